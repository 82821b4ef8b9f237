package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// DashboardHandler serves the summary numbers
type DashboardHandler struct {
	dashboardService ports.DashboardService
	logger           *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService ports.DashboardService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetStats godoc
// @Summary Dashboard statistics
// @Description Record counts, probability-weighted revenue and today's Jalali date
// @Tags dashboard
// @Produce json
// @Success 200 {object} entities.DashboardStats
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /dashboard [get]
func (h *DashboardHandler) GetStats(c echo.Context) error {
	stats, err := h.dashboardService.GetStats(c.Request().Context())
	if err != nil {
		return fail(h.logger, "Dashboard stats failed", err)
	}
	return c.JSON(http.StatusOK, stats)
}
