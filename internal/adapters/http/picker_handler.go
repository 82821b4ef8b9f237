package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// PickerHandler drives server-side date picker sessions
type PickerHandler struct {
	pickerService ports.PickerService
	logger        *logger.Logger
}

// NewPickerHandler creates a new picker handler
func NewPickerHandler(pickerService ports.PickerService, logger *logger.Logger) *PickerHandler {
	return &PickerHandler{
		pickerService: pickerService,
		logger:        logger,
	}
}

// OpenPicker godoc
// @Summary Open a date picker
// @Description Shows the month of associated_date, or the current month when it is empty
// @Tags pickers
// @Accept json
// @Produce json
// @Param request body ports.OpenPickerRequest false "Associated field value"
// @Success 201 {object} ports.PickerState
// @Failure 400 {object} ErrorResponse
// @Router /pickers [post]
func (h *PickerHandler) OpenPicker(c echo.Context) error {
	var req ports.OpenPickerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	state, err := h.pickerService.Open(req)
	if err != nil {
		return fail(h.logger, "Open picker failed", err)
	}
	return c.JSON(http.StatusCreated, state)
}

// GetPicker godoc
// @Summary Current state of a picker
// @Tags pickers
// @Produce json
// @Param id path string true "Picker session ID"
// @Success 200 {object} ports.PickerState
// @Failure 404 {object} ErrorResponse
// @Router /pickers/{id} [get]
func (h *PickerHandler) GetPicker(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	state, err := h.pickerService.Get(id)
	if err != nil {
		return fail(h.logger, "Get picker failed", err, "picker_id", id)
	}
	return c.JSON(http.StatusOK, state)
}

// FocusPicker godoc
// @Summary Re-focus a picker
// @Description Opens a dismissed picker again, on the month of associated_date when given
// @Tags pickers
// @Accept json
// @Produce json
// @Param id path string true "Picker session ID"
// @Param request body ports.FocusPickerRequest false "Associated field value"
// @Success 200 {object} ports.PickerState
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /pickers/{id}/focus [post]
func (h *PickerHandler) FocusPicker(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.FocusPickerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	state, err := h.pickerService.Focus(id, req)
	if err != nil {
		return fail(h.logger, "Focus picker failed", err, "picker_id", id)
	}
	return c.JSON(http.StatusOK, state)
}

// PrevMonth godoc
// @Summary Show the previous month
// @Tags pickers
// @Produce json
// @Param id path string true "Picker session ID"
// @Success 200 {object} ports.PickerState
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /pickers/{id}/prev [post]
func (h *PickerHandler) PrevMonth(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	state, err := h.pickerService.Prev(id)
	if err != nil {
		return fail(h.logger, "Picker prev failed", err, "picker_id", id)
	}
	return c.JSON(http.StatusOK, state)
}

// NextMonth godoc
// @Summary Show the next month
// @Tags pickers
// @Produce json
// @Param id path string true "Picker session ID"
// @Success 200 {object} ports.PickerState
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /pickers/{id}/next [post]
func (h *PickerHandler) NextMonth(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	state, err := h.pickerService.Next(id)
	if err != nil {
		return fail(h.logger, "Picker next failed", err, "picker_id", id)
	}
	return c.JSON(http.StatusOK, state)
}

// SelectDay godoc
// @Summary Select a day of the displayed month
// @Description Sets the associated value and closes the picker
// @Tags pickers
// @Accept json
// @Produce json
// @Param id path string true "Picker session ID"
// @Param request body ports.SelectDayRequest true "Day of month"
// @Success 200 {object} ports.PickerState
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /pickers/{id}/select [post]
func (h *PickerHandler) SelectDay(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.SelectDayRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	state, err := h.pickerService.Select(id, req)
	if err != nil {
		return fail(h.logger, "Picker select failed", err, "picker_id", id, "day", req.Day)
	}
	return c.JSON(http.StatusOK, state)
}

// DismissPicker godoc
// @Summary Hide a picker without selecting
// @Tags pickers
// @Produce json
// @Param id path string true "Picker session ID"
// @Success 200 {object} ports.PickerState
// @Failure 404 {object} ErrorResponse
// @Router /pickers/{id}/dismiss [post]
func (h *PickerHandler) DismissPicker(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	state, err := h.pickerService.Dismiss(id)
	if err != nil {
		return fail(h.logger, "Picker dismiss failed", err, "picker_id", id)
	}
	return c.JSON(http.StatusOK, state)
}

// ClosePicker godoc
// @Summary Drop a picker session
// @Tags pickers
// @Produce json
// @Param id path string true "Picker session ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /pickers/{id} [delete]
func (h *PickerHandler) ClosePicker(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.pickerService.Close(id); err != nil {
		return fail(h.logger, "Close picker failed", err, "picker_id", id)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Picker closed"})
}
