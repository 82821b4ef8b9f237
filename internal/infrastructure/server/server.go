package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/crm/docs"
	httpHandlers "github.com/taskmaster/crm/internal/adapters/http"
	"github.com/taskmaster/crm/internal/application/services"
	"github.com/taskmaster/crm/internal/infrastructure/config"
	"github.com/taskmaster/crm/internal/infrastructure/database"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/infrastructure/metrics"
	"github.com/taskmaster/crm/internal/ports"
)

// pickerSweepInterval is how often idle picker sessions are looked for.
const pickerSweepInterval = time.Minute

// Dependencies are the resources the server is built around. DB is set only
// when the store is PostgreSQL and adds pool statistics to the health report.
type Dependencies struct {
	Store ports.Store
	DB    *database.DB
}

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	deps    Dependencies
	metrics *metrics.Metrics
	auth    *services.AuthService
	pickers *services.PickerService

	sweepCtx    context.Context
	stopSweeper context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) (*Server, error) {
	clock, err := cfg.Calendar.Clock()
	if err != nil {
		return nil, err
	}

	e := echo.New()

	// Set custom validator
	e.Validator = httpHandlers.NewValidator()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	appMetrics := metrics.New()
	var domainMetrics ports.Metrics = ports.NopMetrics{}
	if cfg.Metrics.Enabled {
		domainMetrics = appMetrics
	}

	// Initialize services
	calendarService := services.NewCalendarService(clock, cfg.Calendar.DisplayFormat, domainMetrics, appLogger.WithComponent("calendar"))
	customerService := services.NewCustomerService(deps.Store.Customers(), appLogger)
	contactService := services.NewContactService(deps.Store.Contacts(), deps.Store.Customers(), calendarService, appLogger)
	opportunityService := services.NewOpportunityService(deps.Store.Opportunities(), deps.Store.Customers(), calendarService, appLogger)
	dashboardService := services.NewDashboardService(deps.Store, calendarService, appLogger)
	pickerService := services.NewPickerService(clock, cfg.Calendar.DisplayFormat, cfg.Calendar.PickerIdleTTL, domainMetrics, appLogger.WithComponent("pickers"))
	authService := services.NewAuthService(cfg.Auth, appLogger.WithComponent("auth"))

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	server := &Server{
		echo:        e,
		config:      cfg,
		logger:      appLogger,
		deps:        deps,
		metrics:     appMetrics,
		auth:        authService,
		pickers:     pickerService,
		sweepCtx:    sweepCtx,
		stopSweeper: stopSweeper,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	// Setup routes
	server.setupRoutes(routeHandlers{
		customers:     httpHandlers.NewCustomerHandler(customerService, appLogger),
		contacts:      httpHandlers.NewContactHandler(contactService, appLogger),
		opportunities: httpHandlers.NewOpportunityHandler(opportunityService, appLogger),
		dashboard:     httpHandlers.NewDashboardHandler(dashboardService, appLogger),
		calendar:      httpHandlers.NewCalendarHandler(calendarService, appLogger),
		pickers:       httpHandlers.NewPickerHandler(pickerService, appLogger),
	})

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			log := s.logger.WithRequestID(values.RequestID)
			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				log.Errorw("HTTP request failed", fields...)
			} else {
				log.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	if s.config.Security.RateLimitRequests > 0 && s.config.Security.RateLimitWindow > 0 {
		perSecond := float64(s.config.Security.RateLimitRequests) / s.config.Security.RateLimitWindow.Seconds()
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Path(), "/health") || c.Path() == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(perSecond),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: s.config.Security.RateLimitWindow,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				s.logger.LogSecurityEvent("rate_limited", identifier, map[string]interface{}{
					"endpoint": context.Request().URL.Path,
				})
				return context.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Error: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Timeout middleware
	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

type routeHandlers struct {
	customers     *httpHandlers.CustomerHandler
	contacts      *httpHandlers.ContactHandler
	opportunities *httpHandlers.OpportunityHandler
	dashboard     *httpHandlers.DashboardHandler
	calendar      *httpHandlers.CalendarHandler
	pickers       *httpHandlers.PickerHandler
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h routeHandlers) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Calendar utilities and pickers (public)
	calendarGroup := v1.Group("/calendar")
	calendarGroup.GET("/today", h.calendar.Today)
	calendarGroup.GET("/to-jalali", h.calendar.ToJalali)
	calendarGroup.GET("/to-gregorian", h.calendar.ToGregorian)
	calendarGroup.GET("/months/:year/:month", h.calendar.Month)

	pickerGroup := v1.Group("/pickers")
	pickerGroup.POST("", h.pickers.OpenPicker)
	pickerGroup.GET("/:id", h.pickers.GetPicker)
	pickerGroup.DELETE("/:id", h.pickers.ClosePicker)
	pickerGroup.POST("/:id/focus", h.pickers.FocusPicker)
	pickerGroup.POST("/:id/prev", h.pickers.PrevMonth)
	pickerGroup.POST("/:id/next", h.pickers.NextMonth)
	pickerGroup.POST("/:id/select", h.pickers.SelectDay)
	pickerGroup.POST("/:id/dismiss", h.pickers.DismissPicker)

	// CRM records (authenticated when auth is enabled)
	var guard []echo.MiddlewareFunc
	if s.config.Auth.Enabled {
		guard = append(guard, s.authMiddleware(s.auth))
	}

	customerGroup := v1.Group("/customers", guard...)
	customerGroup.GET("", h.customers.ListCustomers)
	customerGroup.POST("", h.customers.CreateCustomer)
	customerGroup.GET("/:id", h.customers.GetCustomer)
	customerGroup.PUT("/:id", h.customers.UpdateCustomer)
	customerGroup.DELETE("/:id", h.customers.DeleteCustomer)
	customerGroup.GET("/:id/contacts", h.contacts.ListCustomerContacts)

	contactGroup := v1.Group("/contacts", guard...)
	contactGroup.GET("", h.contacts.ListContacts)
	contactGroup.POST("", h.contacts.CreateContact)
	contactGroup.GET("/:id", h.contacts.GetContact)
	contactGroup.PUT("/:id", h.contacts.UpdateContact)
	contactGroup.DELETE("/:id", h.contacts.DeleteContact)

	opportunityGroup := v1.Group("/opportunities", guard...)
	opportunityGroup.GET("", h.opportunities.ListOpportunities)
	opportunityGroup.POST("", h.opportunities.CreateOpportunity)
	opportunityGroup.GET("/:id", h.opportunities.GetOpportunity)
	opportunityGroup.PUT("/:id", h.opportunities.UpdateOpportunity)
	opportunityGroup.DELETE("/:id", h.opportunities.DeleteOpportunity)

	v1.GET("/dashboard", h.dashboard.GetStats, guard...)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.echo.Use(s.metrics.Middleware())
	s.echo.GET("/metrics", s.metrics.Handler())
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	storage := map[string]interface{}{"driver": s.config.Storage.Driver}
	if err := s.deps.Store.Ping(ctx); err != nil {
		status = "error"
		storage["status"] = "error"
		storage["error"] = err.Error()
	} else {
		storage["status"] = "ok"
	}
	if s.deps.DB != nil {
		if err := s.deps.DB.HealthCheck(ctx); err != nil {
			status = "error"
			storage["status"] = "error"
			storage["error"] = err.Error()
		} else {
			storage["stats"] = s.deps.DB.Stats()
		}
	}
	checks["storage"] = storage

	checks["pickers"] = map[string]interface{}{
		"status":   "ok",
		"sessions": s.pickers.Len(),
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.deps.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the picker sweeper and the HTTP server. It blocks until the
// server stops.
func (s *Server) Start(address string) error {
	go s.pickers.Run(s.sweepCtx, pickerSweepInterval)

	s.logger.Infow("Starting server", "address", address)

	srv := &http.Server{
		Addr:         address,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	if err := s.echo.StartServer(srv); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	s.stopSweeper()
	return s.echo.Shutdown(ctx)
}
