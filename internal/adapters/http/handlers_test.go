package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/crm/internal/application/services"
	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/domain/picker"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// MockCustomerService is a mock implementation of ports.CustomerService
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) CreateCustomer(ctx context.Context, req ports.CreateCustomerRequest) (*entities.Customer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Customer), args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entities.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Customer), args.Error(1)
}

func (m *MockCustomerService) UpdateCustomer(ctx context.Context, id uuid.UUID, req ports.UpdateCustomerRequest) (*entities.Customer, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Customer), args.Error(1)
}

func (m *MockCustomerService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context, filter ports.CustomerFilter) ([]*entities.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Customer), args.Error(1)
}

// MockContactService is a mock implementation of ports.ContactService
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) CreateContact(ctx context.Context, req ports.CreateContactRequest) (*entities.Contact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Contact), args.Error(1)
}

func (m *MockContactService) GetContact(ctx context.Context, id uuid.UUID) (*entities.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Contact), args.Error(1)
}

func (m *MockContactService) UpdateContact(ctx context.Context, id uuid.UUID, req ports.UpdateContactRequest) (*entities.Contact, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Contact), args.Error(1)
}

func (m *MockContactService) DeleteContact(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContactService) ListContacts(ctx context.Context, filter ports.ContactFilter) ([]*entities.Contact, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Contact), args.Error(1)
}

// MockOpportunityService is a mock implementation of ports.OpportunityService
type MockOpportunityService struct {
	mock.Mock
}

func (m *MockOpportunityService) CreateOpportunity(ctx context.Context, req ports.CreateOpportunityRequest) (*entities.Opportunity, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Opportunity), args.Error(1)
}

func (m *MockOpportunityService) GetOpportunity(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Opportunity), args.Error(1)
}

func (m *MockOpportunityService) UpdateOpportunity(ctx context.Context, id uuid.UUID, req ports.UpdateOpportunityRequest) (*entities.Opportunity, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Opportunity), args.Error(1)
}

func (m *MockOpportunityService) DeleteOpportunity(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOpportunityService) ListOpportunities(ctx context.Context, filter ports.OpportunityFilter) ([]*entities.Opportunity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Opportunity), args.Error(1)
}

// MockDashboardService is a mock implementation of ports.DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) GetStats(ctx context.Context) (*entities.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DashboardStats), args.Error(1)
}

func fixedNow() time.Time {
	return time.Date(2024, 12, 23, 9, 30, 0, 0, time.UTC)
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"customer not found", fmt.Errorf("get customer: %w", entities.ErrCustomerNotFound), http.StatusNotFound},
		{"contact not found", entities.ErrContactNotFound, http.StatusNotFound},
		{"opportunity not found", entities.ErrOpportunityNotFound, http.StatusNotFound},
		{"picker session", services.ErrPickerSessionNotFound, http.StatusNotFound},
		{"dangling reference", fmt.Errorf("%w: %w", entities.ErrInvalidReference, entities.ErrCustomerNotFound), http.StatusBadRequest},
		{"picker closed", picker.ErrPickerClosed, http.StatusConflict},
		{"invalid month", &calendar.InvalidMonthError{Month: 13}, http.StatusBadRequest},
		{"invalid date", &calendar.InvalidDateError{Calendar: "jalali", Year: 1404, Month: 12, Day: 30, Reason: "not a leap year"}, http.StatusBadRequest},
		{"parse", &calendar.DateParseError{Input: "x"}, http.StatusBadRequest},
		{"stage", entities.ErrInvalidStage, http.StatusBadRequest},
		{"probability", entities.ErrInvalidProbability, http.StatusBadRequest},
		{"required", entities.ErrRequiredField, http.StatusBadRequest},
		{"passthrough", echo.NewHTTPError(http.StatusTeapot), http.StatusTeapot},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := HTTPError(tt.err)
			assert.Equal(t, tt.want, he.Code)
		})
	}

	he := HTTPError(errors.New("boom"))
	assert.EqualError(t, he.Internal, "boom")
	assert.Equal(t, "Internal server error", he.Message)
}

func TestValidator_ISODate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&ports.OpenPickerRequest{}))
	assert.NoError(t, v.Validate(&ports.OpenPickerRequest{AssociatedDate: "2024-02-29"}))
	assert.Error(t, v.Validate(&ports.OpenPickerRequest{AssociatedDate: "2023-02-29"}))
	assert.Error(t, v.Validate(&ports.OpenPickerRequest{AssociatedDate: "23/12/2024"}))

	empty := ""
	assert.NoError(t, v.Validate(&ports.UpdateOpportunityRequest{ExpectedCloseDate: &empty}))

	assert.Error(t, v.Validate(&ports.CreateContactRequest{
		CustomerID: uuid.New(), Type: entities.ContactTypeCall,
	}))
}

func TestCustomerHandler_CreateCustomer(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger.NewNop())
		customer := &entities.Customer{ID: uuid.New(), Name: "Ali Rezaei", Phone: "09121234567"}
		svc.On("CreateCustomer", mock.Anything, ports.CreateCustomerRequest{Name: "Ali Rezaei", Phone: "09121234567"}).
			Return(customer, nil)

		c, rec := newContext(http.MethodPost, "/api/v1/customers", `{"name":"Ali Rezaei","phone":"09121234567"}`)
		require.NoError(t, h.CreateCustomer(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var got entities.Customer
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, customer.ID, got.ID)
		svc.AssertExpectations(t)
	})

	t.Run("missing phone", func(t *testing.T) {
		svc := new(MockCustomerService)
		h := NewCustomerHandler(svc, logger.NewNop())

		c, _ := newContext(http.MethodPost, "/api/v1/customers", `{"name":"Ali"}`)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateCustomer(c)))
		svc.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := NewCustomerHandler(new(MockCustomerService), logger.NewNop())
		c, _ := newContext(http.MethodPost, "/api/v1/customers", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateCustomer(c)))
	})
}

func TestCustomerHandler_GetCustomer(t *testing.T) {
	svc := new(MockCustomerService)
	h := NewCustomerHandler(svc, logger.NewNop())

	missing := uuid.New()
	broken := uuid.New()
	svc.On("GetCustomer", mock.Anything, missing).Return(nil, fmt.Errorf("get customer: %w", entities.ErrCustomerNotFound))
	svc.On("GetCustomer", mock.Anything, broken).Return(nil, errors.New("connection reset"))

	c, _ := newContext(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.GetCustomer(withID(c, "not-a-uuid"))))

	c, _ = newContext(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, statusOf(t, h.GetCustomer(withID(c, missing.String()))))

	c, _ = newContext(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, h.GetCustomer(withID(c, broken.String()))))
}

func TestCustomerHandler_ListCustomers(t *testing.T) {
	svc := new(MockCustomerService)
	h := NewCustomerHandler(svc, logger.NewNop())
	svc.On("ListCustomers", mock.Anything, ports.CustomerFilter{Search: "pars", Limit: maxPageSize, Offset: 10}).
		Return([]*entities.Customer{{Name: "Pars"}}, nil)

	c, rec := newContext(http.MethodGet, "/api/v1/customers?search=+pars+&limit=1000&offset=10", "")
	require.NoError(t, h.ListCustomers(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got ListResponse[entities.Customer]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Data, 1)
	assert.Equal(t, maxPageSize, got.Limit)
	svc.AssertExpectations(t)

	c, _ = newContext(http.MethodGet, "/api/v1/customers?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.ListCustomers(c)))
}

func TestCustomerHandler_DeleteCustomer(t *testing.T) {
	svc := new(MockCustomerService)
	h := NewCustomerHandler(svc, logger.NewNop())
	id := uuid.New()
	svc.On("DeleteCustomer", mock.Anything, id).Return(nil).Once()
	svc.On("DeleteCustomer", mock.Anything, id).Return(entities.ErrCustomerNotFound)

	c, rec := newContext(http.MethodDelete, "/", "")
	require.NoError(t, h.DeleteCustomer(withID(c, id.String())))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(http.MethodDelete, "/", "")
	assert.Equal(t, http.StatusNotFound, statusOf(t, h.DeleteCustomer(withID(c, id.String()))))
}

func TestContactHandler(t *testing.T) {
	t.Run("invalid date rejected before the service", func(t *testing.T) {
		svc := new(MockContactService)
		h := NewContactHandler(svc, logger.NewNop())
		body := fmt.Sprintf(`{"customer_id":%q,"type":"call","date":"2023-02-29"}`, uuid.New())

		c, _ := newContext(http.MethodPost, "/api/v1/contacts", body)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateContact(c)))
		svc.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		h := NewContactHandler(new(MockContactService), logger.NewNop())
		body := fmt.Sprintf(`{"customer_id":%q,"type":"fax","date":"2024-12-23"}`, uuid.New())

		c, _ := newContext(http.MethodPost, "/api/v1/contacts", body)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateContact(c)))
	})

	t.Run("dangling customer", func(t *testing.T) {
		svc := new(MockContactService)
		h := NewContactHandler(svc, logger.NewNop())
		svc.On("CreateContact", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: %w", entities.ErrInvalidReference, entities.ErrCustomerNotFound))
		body := fmt.Sprintf(`{"customer_id":%q,"type":"meeting","date":"2024-12-23"}`, uuid.New())

		c, _ := newContext(http.MethodPost, "/api/v1/contacts", body)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateContact(c)))
	})

	t.Run("list filters", func(t *testing.T) {
		svc := new(MockContactService)
		h := NewContactHandler(svc, logger.NewNop())
		customerID := uuid.New()
		email := entities.ContactTypeEmail
		svc.On("ListContacts", mock.Anything, ports.ContactFilter{CustomerID: &customerID, Type: &email, Limit: defaultPageSize}).
			Return([]*entities.Contact{}, nil)

		c, rec := newContext(http.MethodGet, "/api/v1/contacts?type=email&customer_id="+customerID.String(), "")
		require.NoError(t, h.ListContacts(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)

		c, _ = newContext(http.MethodGet, "/api/v1/contacts?customer_id=nope", "")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.ListContacts(c)))
	})
}

func TestOpportunityHandler(t *testing.T) {
	t.Run("probability out of range", func(t *testing.T) {
		svc := new(MockOpportunityService)
		h := NewOpportunityHandler(svc, logger.NewNop())
		body := fmt.Sprintf(`{"name":"ERP","customer_id":%q,"value":1000,"probability":101,"stage":"prospect"}`, uuid.New())

		c, _ := newContext(http.MethodPost, "/api/v1/opportunities", body)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateOpportunity(c)))
		svc.AssertNotCalled(t, "CreateOpportunity", mock.Anything, mock.Anything)
	})

	t.Run("clearing the close date", func(t *testing.T) {
		svc := new(MockOpportunityService)
		h := NewOpportunityHandler(svc, logger.NewNop())
		id := uuid.New()
		empty := ""
		svc.On("UpdateOpportunity", mock.Anything, id, ports.UpdateOpportunityRequest{ExpectedCloseDate: &empty}).
			Return(&entities.Opportunity{ID: id}, nil)

		c, rec := newContext(http.MethodPut, "/", `{"expected_close_date":""}`)
		require.NoError(t, h.UpdateOpportunity(withID(c, id.String())))
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("stage filter", func(t *testing.T) {
		svc := new(MockOpportunityService)
		h := NewOpportunityHandler(svc, logger.NewNop())
		won := entities.StageWon
		svc.On("ListOpportunities", mock.Anything, ports.OpportunityFilter{Stage: &won, Limit: 5}).
			Return([]*entities.Opportunity{}, nil)

		c, _ := newContext(http.MethodGet, "/api/v1/opportunities?stage=won&limit=5", "")
		require.NoError(t, h.ListOpportunities(c))
		svc.AssertExpectations(t)
	})
}

func TestDashboardHandler_GetStats(t *testing.T) {
	svc := new(MockDashboardService)
	h := NewDashboardHandler(svc, logger.NewNop())
	svc.On("GetStats", mock.Anything).Return(&entities.DashboardStats{
		CustomersCount:         3,
		WeightedRevenue:        95_000_000,
		WeightedRevenueDisplay: "۹۵,۰۰۰,۰۰۰ ریال",
		Today:                  "۱۴۰۳/۱۰/۰۳",
	}, nil)

	c, rec := newContext(http.MethodGet, "/api/v1/dashboard", "")
	require.NoError(t, h.GetStats(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "۹۵,۰۰۰,۰۰۰ ریال")
}

func TestCalendarHandler(t *testing.T) {
	h := NewCalendarHandler(services.NewCalendarService(fixedNow, "", nil, logger.NewNop()), logger.NewNop())

	t.Run("today", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/calendar/today", "")
		require.NoError(t, h.Today(c))

		var got ports.DateConversion
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "2024-12-23", got.Gregorian)
		assert.Equal(t, "1403/10/03", got.Jalali)
		assert.Equal(t, "۱۴۰۳/۱۰/۰۳", got.Formatted)
	})

	t.Run("to jalali", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/calendar/to-jalali?date=2025-03-20&format=DD+MMMM+YYYY", "")
		require.NoError(t, h.ToJalali(c))

		var got ports.DateConversion
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "1403/12/30", got.Jalali)
		assert.Equal(t, "اسفند", got.MonthName)
	})

	t.Run("to gregorian with local digits", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/v1/calendar/to-gregorian?date=۱۴۰۳/۱۰/۰۳", "")
		require.NoError(t, h.ToGregorian(c))

		var got ports.DateConversion
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "2024-12-23", got.Gregorian)
	})

	t.Run("bad input", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/api/v1/calendar/to-jalali", "")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.ToJalali(c)))

		c, _ = newContext(http.MethodGet, "/api/v1/calendar/to-jalali?date=2023-02-29", "")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.ToJalali(c)))

		c, _ = newContext(http.MethodGet, "/api/v1/calendar/to-gregorian?date=1404/12/30", "")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.ToGregorian(c)))
	})

	t.Run("month grid", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/", "")
		c.SetParamNames("year", "month")
		c.SetParamValues("1403", "10")
		require.NoError(t, h.Month(c))

		var got picker.RenderPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "دی", got.MonthName)
		assert.Zero(t, got.HighlightDay)

		c, _ = newContext(http.MethodGet, "/", "")
		c.SetParamNames("year", "month")
		c.SetParamValues("1403", "13")
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.Month(c)))
	})
}

func TestPickerHandler_Flow(t *testing.T) {
	svc := services.NewPickerService(fixedNow, "YYYY/MM/DD", 0, nil, logger.NewNop())
	h := NewPickerHandler(svc, logger.NewNop())

	decode := func(rec *httptest.ResponseRecorder) ports.PickerState {
		var state ports.PickerState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
		return state
	}

	c, rec := newContext(http.MethodPost, "/api/v1/pickers", `{"associated_date":"2024-12-23"}`)
	require.NoError(t, h.OpenPicker(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	state := decode(rec)
	assert.Equal(t, "open", state.Status)
	require.NotNil(t, state.Payload)
	assert.Equal(t, 3, state.Payload.HighlightDay)
	id := state.ID.String()

	c, rec = newContext(http.MethodPost, "/", "")
	require.NoError(t, h.PrevMonth(withID(c, id)))
	state = decode(rec)
	assert.Equal(t, 9, state.View.DisplayedMonth)

	c, _ = newContext(http.MethodPost, "/", `{"day":0}`)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.SelectDay(withID(c, id))))

	c, rec = newContext(http.MethodPost, "/", `{"day":1}`)
	require.NoError(t, h.SelectDay(withID(c, id)))
	state = decode(rec)
	assert.Equal(t, "closed", state.Status)
	assert.Equal(t, "2024-11-21", state.Value)
	assert.Equal(t, "۱۴۰۳/۰۹/۰۱", state.DisplayValue)

	c, _ = newContext(http.MethodPost, "/", "")
	assert.Equal(t, http.StatusConflict, statusOf(t, h.NextMonth(withID(c, id))))

	c, rec = newContext(http.MethodPost, "/", "")
	require.NoError(t, h.FocusPicker(withID(c, id)))
	assert.Equal(t, "open", decode(rec).Status)

	c, rec = newContext(http.MethodPost, "/", "")
	require.NoError(t, h.DismissPicker(withID(c, id)))
	assert.Equal(t, "closed", decode(rec).Status)

	c, _ = newContext(http.MethodDelete, "/", "")
	require.NoError(t, h.ClosePicker(withID(c, id)))

	c, _ = newContext(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, statusOf(t, h.GetPicker(withID(c, id))))
}
