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

// OpportunityService handles the sales pipeline
type OpportunityService struct {
	opportunityRepo ports.OpportunityRepository
	customerRepo    ports.CustomerRepository
	dates           dateDisplayer
	logger          *logger.Logger
}

// NewOpportunityService creates a new opportunity service
func NewOpportunityService(opportunityRepo ports.OpportunityRepository, customerRepo ports.CustomerRepository, dates dateDisplayer, logger *logger.Logger) *OpportunityService {
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		customerRepo:    customerRepo,
		dates:           dates,
		logger:          logger,
	}
}

// CreateOpportunity creates a new opportunity for an existing customer
func (s *OpportunityService) CreateOpportunity(ctx context.Context, req ports.CreateOpportunityRequest) (*entities.Opportunity, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name: %w", entities.ErrRequiredField)
	}
	if req.Value <= 0 {
		return nil, entities.ErrInvalidValue
	}
	if !req.Stage.Valid() {
		return nil, fmt.Errorf("%q: %w", req.Stage, entities.ErrInvalidStage)
	}

	probability := entities.DefaultProbability
	if req.Probability != nil {
		probability = *req.Probability
	}
	if probability < 0 || probability > 100 {
		return nil, entities.ErrInvalidProbability
	}

	closeDate, err := parseOptionalDate(req.ExpectedCloseDate)
	if err != nil {
		return nil, err
	}

	if err := checkCustomer(ctx, s.customerRepo, req.CustomerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	opportunity := &entities.Opportunity{
		ID:                uuid.New(),
		Name:              name,
		CustomerID:        req.CustomerID,
		Value:             req.Value,
		Probability:       probability,
		Stage:             req.Stage,
		ExpectedCloseDate: closeDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	s.logger.Infow("Opportunity created",
		"opportunity_id", opportunity.ID,
		"customer_id", opportunity.CustomerID,
		"value", opportunity.Value,
		"probability", opportunity.Probability,
	)

	return s.decorate(opportunity), nil
}

// GetOpportunity retrieves an opportunity by ID
func (s *OpportunityService) GetOpportunity(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error) {
	opportunity, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return s.decorate(opportunity), nil
}

// UpdateOpportunity applies the non-nil fields of req. An empty expected close
// date clears it.
func (s *OpportunityService) UpdateOpportunity(ctx context.Context, id uuid.UUID, req ports.UpdateOpportunityRequest) (*entities.Opportunity, error) {
	opportunity, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get opportunity: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name: %w", entities.ErrRequiredField)
		}
		opportunity.Name = name
	}
	if req.CustomerID != nil && *req.CustomerID != opportunity.CustomerID {
		if err := checkCustomer(ctx, s.customerRepo, *req.CustomerID); err != nil {
			return nil, err
		}
		opportunity.CustomerID = *req.CustomerID
	}
	if req.Value != nil {
		if *req.Value <= 0 {
			return nil, entities.ErrInvalidValue
		}
		opportunity.Value = *req.Value
	}
	if req.Probability != nil {
		if *req.Probability < 0 || *req.Probability > 100 {
			return nil, entities.ErrInvalidProbability
		}
		opportunity.Probability = *req.Probability
	}
	if req.Stage != nil {
		if !req.Stage.Valid() {
			return nil, fmt.Errorf("%q: %w", *req.Stage, entities.ErrInvalidStage)
		}
		opportunity.Stage = *req.Stage
	}
	if req.ExpectedCloseDate != nil {
		closeDate, err := parseOptionalDate(*req.ExpectedCloseDate)
		if err != nil {
			return nil, err
		}
		opportunity.ExpectedCloseDate = closeDate
	}
	opportunity.UpdatedAt = time.Now().UTC()

	if err := s.opportunityRepo.Update(ctx, opportunity); err != nil {
		return nil, fmt.Errorf("failed to update opportunity: %w", err)
	}

	s.logger.Infow("Opportunity updated", "opportunity_id", opportunity.ID, "stage", opportunity.Stage)

	return s.decorate(opportunity), nil
}

// DeleteOpportunity removes an opportunity
func (s *OpportunityService) DeleteOpportunity(ctx context.Context, id uuid.UUID) error {
	if err := s.opportunityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}

	s.logger.Infow("Opportunity deleted", "opportunity_id", id)
	return nil
}

// ListOpportunities lists opportunities newest first
func (s *OpportunityService) ListOpportunities(ctx context.Context, filter ports.OpportunityFilter) ([]*entities.Opportunity, error) {
	if filter.Stage != nil && !filter.Stage.Valid() {
		return nil, fmt.Errorf("%q: %w", *filter.Stage, entities.ErrInvalidStage)
	}

	opportunities, err := s.opportunityRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	for _, o := range opportunities {
		s.decorate(o)
	}
	return opportunities, nil
}

func (s *OpportunityService) decorate(o *entities.Opportunity) *entities.Opportunity {
	o.StageLabel = o.Stage.Label()
	o.ExpectedCloseJalali = ""
	if o.ExpectedCloseDate != nil {
		o.ExpectedCloseJalali = s.dates.Display(*o.ExpectedCloseDate)
	}
	return o
}

func parseOptionalDate(iso string) (*calendar.GregorianDate, error) {
	if strings.TrimSpace(iso) == "" {
		return nil, nil
	}
	d, err := calendar.ParseISODate(iso)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
