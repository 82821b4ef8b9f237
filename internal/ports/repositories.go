package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskmaster/crm/internal/domain/entities"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entities.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Customer, error)
	Update(ctx context.Context, customer *entities.Customer) error
	// Delete removes the customer together with its contacts and opportunities.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter CustomerFilter) ([]*entities.Customer, error)
	Count(ctx context.Context) (int64, error)
}

// ContactRepository defines the interface for contact data operations
type ContactRepository interface {
	Create(ctx context.Context, contact *entities.Contact) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Contact, error)
	Update(ctx context.Context, contact *entities.Contact) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ContactFilter) ([]*entities.Contact, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityRepository defines the interface for opportunity data operations
type OpportunityRepository interface {
	Create(ctx context.Context, opportunity *entities.Opportunity) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error)
	Update(ctx context.Context, opportunity *entities.Opportunity) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter OpportunityFilter) ([]*entities.Opportunity, error)
	Count(ctx context.Context) (int64, error)
	// SumWeightedValue returns the sum of value*probability over all opportunities.
	SumWeightedValue(ctx context.Context) (int64, error)
}

// Store groups the repositories of one backend.
type Store interface {
	Customers() CustomerRepository
	Contacts() ContactRepository
	Opportunities() OpportunityRepository
	Ping(ctx context.Context) error
	Close() error
}

// CustomerFilter narrows customer listings
type CustomerFilter struct {
	Search string
	Limit  int
	Offset int
}

// ContactFilter narrows contact listings
type ContactFilter struct {
	CustomerID *uuid.UUID
	Type       *entities.ContactType
	Limit      int
	Offset     int
}

// OpportunityFilter narrows opportunity listings
type OpportunityFilter struct {
	CustomerID *uuid.UUID
	Stage      *entities.Stage
	Limit      int
	Offset     int
}
