package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo ports.CustomerRepository
	logger       *logger.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo ports.CustomerRepository, logger *logger.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// CreateCustomer creates a new customer
func (s *CustomerService) CreateCustomer(ctx context.Context, req ports.CreateCustomerRequest) (*entities.Customer, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("name and phone: %w", entities.ErrRequiredField)
	}

	now := time.Now().UTC()
	customer := &entities.Customer{
		ID:        uuid.New(),
		Name:      name,
		Phone:     phone,
		Email:     strings.TrimSpace(req.Email),
		Company:   strings.TrimSpace(req.Company),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Infow("Customer created", "customer_id", customer.ID, "name", customer.Name)

	return customer, nil
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entities.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// UpdateCustomer applies the non-nil fields of req
func (s *CustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, req ports.UpdateCustomerRequest) (*entities.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name: %w", entities.ErrRequiredField)
		}
		customer.Name = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return nil, fmt.Errorf("phone: %w", entities.ErrRequiredField)
		}
		customer.Phone = phone
	}
	if req.Email != nil {
		customer.Email = strings.TrimSpace(*req.Email)
	}
	if req.Company != nil {
		customer.Company = strings.TrimSpace(*req.Company)
	}
	if req.Address != nil {
		customer.Address = strings.TrimSpace(*req.Address)
	}
	customer.UpdatedAt = time.Now().UTC()

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.logger.Infow("Customer updated", "customer_id", customer.ID)

	return customer, nil
}

// DeleteCustomer removes a customer along with its contacts and opportunities
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	s.logger.Infow("Customer deleted", "customer_id", id)
	return nil
}

// ListCustomers lists customers newest first
func (s *CustomerService) ListCustomers(ctx context.Context, filter ports.CustomerFilter) ([]*entities.Customer, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	customers, err := s.customerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// checkCustomer reports ErrInvalidReference when id names no customer.
func checkCustomer(ctx context.Context, repo ports.CustomerRepository, id uuid.UUID) error {
	if _, err := repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, entities.ErrCustomerNotFound) {
			return fmt.Errorf("%w: %w", entities.ErrInvalidReference, err)
		}
		return fmt.Errorf("check customer: %w", err)
	}
	return nil
}
