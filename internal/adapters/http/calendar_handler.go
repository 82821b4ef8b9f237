package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// CalendarHandler exposes date conversion and month grids
type CalendarHandler struct {
	calendarService ports.CalendarService
	logger          *logger.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService ports.CalendarService, logger *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
		logger:          logger,
	}
}

// Today godoc
// @Summary Today in both calendars
// @Tags calendar
// @Produce json
// @Param format query string false "Display pattern, e.g. YYYY/MM/DD"
// @Success 200 {object} ports.DateConversion
// @Router /calendar/today [get]
func (h *CalendarHandler) Today(c echo.Context) error {
	conv, err := h.calendarService.Today(c.QueryParam("format"))
	if err != nil {
		return fail(h.logger, "Today failed", err)
	}
	return c.JSON(http.StatusOK, conv)
}

// ToJalali godoc
// @Summary Convert a Gregorian date to Jalali
// @Tags calendar
// @Produce json
// @Param date query string true "ISO-8601 date, e.g. 2024-12-23"
// @Param format query string false "Display pattern"
// @Success 200 {object} ports.DateConversion
// @Failure 400 {object} ErrorResponse
// @Router /calendar/to-jalali [get]
func (h *CalendarHandler) ToJalali(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}

	conv, err := h.calendarService.ToJalali(date, c.QueryParam("format"))
	if err != nil {
		return fail(h.logger, "Convert to Jalali failed", err, "date", date)
	}
	return c.JSON(http.StatusOK, conv)
}

// ToGregorian godoc
// @Summary Convert a Jalali date to Gregorian
// @Tags calendar
// @Produce json
// @Param date query string true "Jalali date as YYYY/MM/DD, Latin or Persian digits"
// @Param format query string false "Display pattern"
// @Success 200 {object} ports.DateConversion
// @Failure 400 {object} ErrorResponse
// @Router /calendar/to-gregorian [get]
func (h *CalendarHandler) ToGregorian(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}

	conv, err := h.calendarService.ToGregorian(date, c.QueryParam("format"))
	if err != nil {
		return fail(h.logger, "Convert to Gregorian failed", err, "date", date)
	}
	return c.JSON(http.StatusOK, conv)
}

// Month godoc
// @Summary Day grid of a Jalali month
// @Tags calendar
// @Produce json
// @Param year path int true "Jalali year"
// @Param month path int true "Jalali month, 1-12"
// @Success 200 {object} picker.RenderPayload
// @Failure 400 {object} ErrorResponse
// @Router /calendar/months/{year}/{month} [get]
func (h *CalendarHandler) Month(c echo.Context) error {
	year, err := strconv.Atoi(calendar.ToASCII(c.Param("year")))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid year")
	}
	month, err := strconv.Atoi(calendar.ToASCII(c.Param("month")))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid month")
	}

	payload, err := h.calendarService.Month(year, month)
	if err != nil {
		return fail(h.logger, "Month grid failed", err, "year", year, "month", month)
	}
	return c.JSON(http.StatusOK, payload)
}
