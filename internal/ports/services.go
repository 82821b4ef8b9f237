package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/domain/picker"
)

// CustomerService interface for customer management operations
type CustomerService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*entities.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*entities.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*entities.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]*entities.Customer, error)
}

// ContactService interface for contact log operations
type ContactService interface {
	CreateContact(ctx context.Context, req CreateContactRequest) (*entities.Contact, error)
	GetContact(ctx context.Context, id uuid.UUID) (*entities.Contact, error)
	UpdateContact(ctx context.Context, id uuid.UUID, req UpdateContactRequest) (*entities.Contact, error)
	DeleteContact(ctx context.Context, id uuid.UUID) error
	ListContacts(ctx context.Context, filter ContactFilter) ([]*entities.Contact, error)
}

// OpportunityService interface for sales pipeline operations
type OpportunityService interface {
	CreateOpportunity(ctx context.Context, req CreateOpportunityRequest) (*entities.Opportunity, error)
	GetOpportunity(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id uuid.UUID, req UpdateOpportunityRequest) (*entities.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id uuid.UUID) error
	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]*entities.Opportunity, error)
}

// DashboardService interface for summary statistics
type DashboardService interface {
	GetStats(ctx context.Context) (*entities.DashboardStats, error)
}

// CalendarService interface for date conversion utilities
type CalendarService interface {
	Today(pattern string) (*DateConversion, error)
	ToJalali(iso, pattern string) (*DateConversion, error)
	ToGregorian(jalali, pattern string) (*DateConversion, error)
	Month(year, month int) (picker.RenderPayload, error)
	Display(d calendar.GregorianDate) string
}

// PickerService interface for server-side date picker sessions
type PickerService interface {
	Open(req OpenPickerRequest) (*PickerState, error)
	Focus(id uuid.UUID, req FocusPickerRequest) (*PickerState, error)
	Prev(id uuid.UUID) (*PickerState, error)
	Next(id uuid.UUID) (*PickerState, error)
	Select(id uuid.UUID, req SelectDayRequest) (*PickerState, error)
	Dismiss(id uuid.UUID) (*PickerState, error)
	Get(id uuid.UUID) (*PickerState, error)
	Close(id uuid.UUID) error
}

// AuthService interface for API bearer tokens
type AuthService interface {
	IssueToken(subject string) (*TokenResponse, error)
	ValidateToken(token string) (*Claims, error)
}

// Metrics receives domain events worth counting.
type Metrics interface {
	ObserveConversion(direction, outcome string)
	SetPickerSessions(n int)
	ObservePickerSelection()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveConversion(string, string) {}
func (NopMetrics) SetPickerSessions(int)            {}
func (NopMetrics) ObservePickerSelection()          {}

// Request/Response types

type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Email   string `json:"email" validate:"omitempty,email"`
	Company string `json:"company" validate:"max=200"`
	Address string `json:"address" validate:"max=500"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone   *string `json:"phone" validate:"omitempty,min=1,max=50"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Company *string `json:"company" validate:"omitempty,max=200"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

type CreateContactRequest struct {
	CustomerID  uuid.UUID            `json:"customer_id" validate:"required"`
	Type        entities.ContactType `json:"type" validate:"required,oneof=call email meeting other"`
	Date        string               `json:"date" validate:"required,isodate"`
	Description string               `json:"description" validate:"max=2000"`
}

type UpdateContactRequest struct {
	CustomerID  *uuid.UUID            `json:"customer_id"`
	Type        *entities.ContactType `json:"type" validate:"omitempty,oneof=call email meeting other"`
	Date        *string               `json:"date" validate:"omitempty,isodate"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
}

type CreateOpportunityRequest struct {
	Name              string         `json:"name" validate:"required,max=200"`
	CustomerID        uuid.UUID      `json:"customer_id" validate:"required"`
	Value             int64          `json:"value" validate:"required,gt=0"`
	Probability       *int           `json:"probability" validate:"omitempty,min=0,max=100"`
	Stage             entities.Stage `json:"stage" validate:"required,oneof=prospect proposal negotiation won lost"`
	ExpectedCloseDate string         `json:"expected_close_date" validate:"omitempty,isodate"`
}

type UpdateOpportunityRequest struct {
	Name              *string         `json:"name" validate:"omitempty,min=1,max=200"`
	CustomerID        *uuid.UUID      `json:"customer_id"`
	Value             *int64          `json:"value" validate:"omitempty,gt=0"`
	Probability       *int            `json:"probability" validate:"omitempty,min=0,max=100"`
	Stage             *entities.Stage `json:"stage" validate:"omitempty,oneof=prospect proposal negotiation won lost"`
	ExpectedCloseDate *string         `json:"expected_close_date" validate:"omitempty,isodate"`
}

// DateConversion is one date in both calendars.
type DateConversion struct {
	Gregorian string `json:"gregorian"`
	Jalali    string `json:"jalali"`
	Formatted string `json:"formatted"`
	Weekday   string `json:"weekday"`
	MonthName string `json:"month_name"`
}

type OpenPickerRequest struct {
	AssociatedDate string `json:"associated_date" validate:"omitempty,isodate"`
}

type FocusPickerRequest struct {
	AssociatedDate string `json:"associated_date" validate:"omitempty,isodate"`
}

type SelectDayRequest struct {
	Day int `json:"day" validate:"required,min=1,max=31"`
}

// PickerState is what a client needs to draw a picker session.
type PickerState struct {
	ID           uuid.UUID             `json:"id"`
	Status       string                `json:"status"`
	View         *picker.ViewState     `json:"view,omitempty"`
	Payload      *picker.RenderPayload `json:"payload,omitempty"`
	Value        string                `json:"value,omitempty"`
	DisplayValue string                `json:"display_value,omitempty"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims is what a validated token says about its bearer.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}
