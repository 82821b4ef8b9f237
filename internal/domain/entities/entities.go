package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/crm/internal/domain/calendar"
)

// Common errors
var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrContactNotFound     = errors.New("contact not found")
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrInvalidContactType  = errors.New("invalid contact type")
	ErrInvalidStage        = errors.New("invalid opportunity stage")
	ErrInvalidProbability  = errors.New("probability must be between 0 and 100")
	ErrInvalidValue        = errors.New("opportunity value must be positive")
	ErrRequiredField       = errors.New("required field is missing")
	ErrInvalidReference    = errors.New("referenced record does not exist")
)

// DefaultProbability is applied to opportunities created without one.
const DefaultProbability = 50

type ContactType string

const (
	ContactTypeCall    ContactType = "call"
	ContactTypeEmail   ContactType = "email"
	ContactTypeMeeting ContactType = "meeting"
	ContactTypeOther   ContactType = "other"
)

var contactTypeLabels = map[ContactType]string{
	ContactTypeCall:    "تماس تلفنی",
	ContactTypeEmail:   "ایمیل",
	ContactTypeMeeting: "جلسه حضوری",
	ContactTypeOther:   "سایر",
}

// Valid reports whether t is one of the known contact types.
func (t ContactType) Valid() bool {
	_, ok := contactTypeLabels[t]
	return ok
}

// Label returns the Persian display name.
func (t ContactType) Label() string {
	return contactTypeLabels[t]
}

type Stage string

const (
	StageProspect    Stage = "prospect"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
)

var stageLabels = map[Stage]string{
	StageProspect:    "مشتری بالقوه",
	StageProposal:    "ارسال پیشنهاد",
	StageNegotiation: "مذاکره",
	StageWon:         "موفق",
	StageLost:        "ناموفق",
}

func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

func (s Stage) Label() string {
	return stageLabels[s]
}

// Customer represents a customer record
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email,omitempty" db:"email"`
	Company   string    `json:"company,omitempty" db:"company"`
	Address   string    `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Contact is one interaction with a customer on a given calendar date.
type Contact struct {
	ID          uuid.UUID              `json:"id"`
	CustomerID  uuid.UUID              `json:"customer_id"`
	Type        ContactType            `json:"type"`
	TypeLabel   string                 `json:"type_label,omitempty"`
	Date        calendar.GregorianDate `json:"date"`
	JalaliDate  string                 `json:"jalali_date,omitempty"`
	Description string                 `json:"description,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Opportunity represents a sales opportunity. Value is in rials.
type Opportunity struct {
	ID                  uuid.UUID               `json:"id"`
	Name                string                  `json:"name"`
	CustomerID          uuid.UUID               `json:"customer_id"`
	Value               int64                   `json:"value"`
	Probability         int                     `json:"probability"`
	Stage               Stage                   `json:"stage"`
	StageLabel          string                  `json:"stage_label,omitempty"`
	ExpectedCloseDate   *calendar.GregorianDate `json:"expected_close_date,omitempty"`
	ExpectedCloseJalali string                  `json:"expected_close_jalali,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// WeightedValue is the value scaled by the win probability, in hundredths of a rial.
func (o *Opportunity) WeightedValue() int64 {
	return o.Value * int64(o.Probability)
}

// DashboardStats summarises the record store.
type DashboardStats struct {
	CustomersCount         int64  `json:"customers_count"`
	ContactsCount          int64  `json:"contacts_count"`
	OpportunitiesCount     int64  `json:"opportunities_count"`
	WeightedRevenue        int64  `json:"weighted_revenue"`
	WeightedRevenueDisplay string `json:"weighted_revenue_display"`
	Today                  string `json:"today"`
}
