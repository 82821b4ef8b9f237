package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

type dateDisplayer interface {
	Display(d calendar.GregorianDate) string
}

// ContactService handles the contact log
type ContactService struct {
	contactRepo  ports.ContactRepository
	customerRepo ports.CustomerRepository
	dates        dateDisplayer
	logger       *logger.Logger
}

// NewContactService creates a new contact service
func NewContactService(contactRepo ports.ContactRepository, customerRepo ports.CustomerRepository, dates dateDisplayer, logger *logger.Logger) *ContactService {
	return &ContactService{
		contactRepo:  contactRepo,
		customerRepo: customerRepo,
		dates:        dates,
		logger:       logger,
	}
}

// CreateContact records a new contact with an existing customer
func (s *ContactService) CreateContact(ctx context.Context, req ports.CreateContactRequest) (*entities.Contact, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%q: %w", req.Type, entities.ErrInvalidContactType)
	}

	date, err := calendar.ParseISODate(req.Date)
	if err != nil {
		return nil, err
	}

	if err := checkCustomer(ctx, s.customerRepo, req.CustomerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contact := &entities.Contact{
		ID:          uuid.New(),
		CustomerID:  req.CustomerID,
		Type:        req.Type,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.logger.Infow("Contact created", "contact_id", contact.ID, "customer_id", contact.CustomerID, "date", contact.Date.String())

	return s.decorate(contact), nil
}

// GetContact retrieves a contact by ID
func (s *ContactService) GetContact(ctx context.Context, id uuid.UUID) (*entities.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return s.decorate(contact), nil
}

// UpdateContact applies the non-nil fields of req
func (s *ContactService) UpdateContact(ctx context.Context, id uuid.UUID, req ports.UpdateContactRequest) (*entities.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}

	if req.CustomerID != nil && *req.CustomerID != contact.CustomerID {
		if err := checkCustomer(ctx, s.customerRepo, *req.CustomerID); err != nil {
			return nil, err
		}
		contact.CustomerID = *req.CustomerID
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, fmt.Errorf("%q: %w", *req.Type, entities.ErrInvalidContactType)
		}
		contact.Type = *req.Type
	}
	if req.Date != nil {
		date, err := calendar.ParseISODate(*req.Date)
		if err != nil {
			return nil, err
		}
		contact.Date = date
	}
	if req.Description != nil {
		contact.Description = strings.TrimSpace(*req.Description)
	}
	contact.UpdatedAt = time.Now().UTC()

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	s.logger.Infow("Contact updated", "contact_id", contact.ID)

	return s.decorate(contact), nil
}

// DeleteContact removes a contact
func (s *ContactService) DeleteContact(ctx context.Context, id uuid.UUID) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	s.logger.Infow("Contact deleted", "contact_id", id)
	return nil
}

// ListContacts lists contacts, most recent date first
func (s *ContactService) ListContacts(ctx context.Context, filter ports.ContactFilter) ([]*entities.Contact, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, fmt.Errorf("%q: %w", *filter.Type, entities.ErrInvalidContactType)
	}

	contacts, err := s.contactRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	for _, c := range contacts {
		s.decorate(c)
	}
	return contacts, nil
}

func (s *ContactService) decorate(c *entities.Contact) *entities.Contact {
	c.TypeLabel = c.Type.Label()
	c.JalaliDate = s.dates.Display(c.Date)
	return c
}
