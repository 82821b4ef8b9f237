package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/crm/internal/adapters/repository/kv"
	"github.com/taskmaster/crm/internal/application/services"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/config"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "Daftar CRM", Version: "test", Environment: "development"},
		Storage: config.StorageConfig{Driver: config.DriverRedis},
		Auth: config.AuthConfig{
			Enabled:   true,
			Secret:    "0123456789abcdef0123456789abcdef",
			Issuer:    "daftar-crm",
			ExpiresIn: time.Hour,
		},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
		Metrics:  config.MetricsConfig{Enabled: true},
		Calendar: config.CalendarConfig{Location: "UTC", DisplayFormat: "YYYY/MM/DD", PickerIdleTTL: time.Minute},
	}
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	mr      *miniredis.Miniredis
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	srv, err := New(cfg, Dependencies{Store: kv.NewStore(client, "crm")}, logger.NewNop())
	require.NoError(t, err)

	token, err := services.NewAuthService(cfg.Auth, logger.NewNop()).IssueToken("tester")
	require.NoError(t, err)

	return &testServer{t: t, handler: srv.Handler(), mr: mr, token: token.AccessToken}
}

func (ts *testServer) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", "", false).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/ready", "", false).Code)

	rec := ts.do(http.MethodGet, "/health/detailed", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"driver":"redis"`)

	ts.mr.Close()
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/ready", "", false).Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodGet, "/health/detailed", "", false).Code)
}

func TestServer_Auth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/customers", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing authorization header", decode[map[string]string](t, rec)["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/customers", "", true).Code)

	// Calendar utilities stay public.
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/v1/calendar/to-jalali?date=2024-12-23", "", false).Code)
}

func TestServer_CRMFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/customers", `{"name":"Ali Rezaei","phone":"09121234567","company":"Pars"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customer := decode[entities.Customer](t, rec)

	rec = ts.do(http.MethodPost, "/api/v1/contacts",
		fmt.Sprintf(`{"customer_id":%q,"type":"meeting","date":"2024-12-23","description":"kickoff"}`, customer.ID), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	contact := decode[entities.Contact](t, rec)
	assert.Equal(t, "۱۴۰۳/۱۰/۰۳", contact.JalaliDate)
	assert.Equal(t, "جلسه حضوری", contact.TypeLabel)

	rec = ts.do(http.MethodPost, "/api/v1/opportunities",
		fmt.Sprintf(`{"name":"ERP","customer_id":%q,"value":150000000,"stage":"proposal","expected_close_date":"2025-03-20"}`, customer.ID), true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	opportunity := decode[entities.Opportunity](t, rec)
	assert.Equal(t, 50, opportunity.Probability)
	assert.Equal(t, "۱۴۰۳/۱۲/۳۰", opportunity.ExpectedCloseJalali)

	rec = ts.do(http.MethodGet, "/api/v1/dashboard", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[entities.DashboardStats](t, rec)
	assert.Equal(t, int64(1), stats.CustomersCount)
	assert.Equal(t, int64(1), stats.ContactsCount)
	assert.Equal(t, int64(75_000_000), stats.WeightedRevenue)
	assert.Equal(t, "۷۵,۰۰۰,۰۰۰ ریال", stats.WeightedRevenueDisplay)
	assert.NotEmpty(t, stats.Today)

	rec = ts.do(http.MethodGet, "/api/v1/customers/"+customer.ID.String()+"/contacts", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), contact.ID.String())

	// A contact for a customer that does not exist is a bad request.
	rec = ts.do(http.MethodPost, "/api/v1/contacts",
		`{"customer_id":"7d8e3f7a-0000-4000-8000-000000000000","type":"call","date":"2024-12-23"}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/v1/customers/"+customer.ID.String(), "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/contacts/"+contact.ID.String(), "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "get contact: contact not found", decode[map[string]string](t, rec)["error"])

	rec = ts.do(http.MethodGet, "/api/v1/opportunities/"+opportunity.ID.String(), "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_PickerAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/pickers", `{"associated_date":"2024-12-23"}`, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	state := decode[map[string]interface{}](t, rec)
	id := state["id"].(string)

	rec = ts.do(http.MethodPost, "/api/v1/pickers/"+id+"/select", `{"day":1}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-12-21", decode[map[string]interface{}](t, rec)["value"])

	rec = ts.do(http.MethodPost, "/api/v1/pickers/"+id+"/next", "", false)
	assert.Equal(t, http.StatusConflict, rec.Code)

	ts.do(http.MethodGet, "/api/v1/calendar/to-gregorian?date=1404/12/30", "", false)

	rec = ts.do(http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `calendar_conversions_total{direction="to_gregorian",outcome="error"} 1`)
	assert.Contains(t, body, "picker_sessions_active 1")
	assert.Contains(t, body, `http_requests_total{method="POST",path="/api/v1/pickers/:id/next",status="409"} 1`)
}

func TestServer_NotFoundRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode[map[string]string](t, rec)["error"])
}
