package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// OpportunityHandler handles sales pipeline requests
type OpportunityHandler struct {
	opportunityService ports.OpportunityService
	logger             *logger.Logger
}

// NewOpportunityHandler creates a new opportunity handler
func NewOpportunityHandler(opportunityService ports.OpportunityService, logger *logger.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		logger:             logger,
	}
}

// CreateOpportunity godoc
// @Summary Create an opportunity
// @Description Probability defaults to 50 when omitted
// @Tags opportunities
// @Accept json
// @Produce json
// @Param request body ports.CreateOpportunityRequest true "Opportunity data"
// @Success 201 {object} entities.Opportunity
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /opportunities [post]
func (h *OpportunityHandler) CreateOpportunity(c echo.Context) error {
	var req ports.CreateOpportunityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	opportunity, err := h.opportunityService.CreateOpportunity(c.Request().Context(), req)
	if err != nil {
		return fail(h.logger, "Create opportunity failed", err, "customer_id", req.CustomerID)
	}

	return c.JSON(http.StatusCreated, opportunity)
}

// GetOpportunity godoc
// @Summary Get opportunity by ID
// @Tags opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} entities.Opportunity
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetOpportunity(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	opportunity, err := h.opportunityService.GetOpportunity(c.Request().Context(), id)
	if err != nil {
		return fail(h.logger, "Get opportunity failed", err, "opportunity_id", id)
	}

	return c.JSON(http.StatusOK, opportunity)
}

// UpdateOpportunity godoc
// @Summary Update an opportunity
// @Description An empty expected_close_date clears it
// @Tags opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param request body ports.UpdateOpportunityRequest true "Fields to change"
// @Success 200 {object} entities.Opportunity
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) UpdateOpportunity(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateOpportunityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	opportunity, err := h.opportunityService.UpdateOpportunity(c.Request().Context(), id, req)
	if err != nil {
		return fail(h.logger, "Update opportunity failed", err, "opportunity_id", id)
	}

	return c.JSON(http.StatusOK, opportunity)
}

// DeleteOpportunity godoc
// @Summary Delete an opportunity
// @Tags opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) DeleteOpportunity(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.opportunityService.DeleteOpportunity(c.Request().Context(), id); err != nil {
		return fail(h.logger, "Delete opportunity failed", err, "opportunity_id", id)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Opportunity deleted successfully"})
}

// ListOpportunities godoc
// @Summary List opportunities
// @Tags opportunities
// @Produce json
// @Param customer_id query string false "Only opportunities of this customer"
// @Param stage query string false "prospect, proposal, negotiation, won or lost"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse[entities.Opportunity]
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /opportunities [get]
func (h *OpportunityHandler) ListOpportunities(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}

	customerID, err := parseOptionalUUID(c, "customer_id")
	if err != nil {
		return err
	}

	filter := ports.OpportunityFilter{CustomerID: customerID, Limit: limit, Offset: offset}
	if raw := c.QueryParam("stage"); raw != "" {
		stage := entities.Stage(raw)
		filter.Stage = &stage
	}

	opportunities, err := h.opportunityService.ListOpportunities(c.Request().Context(), filter)
	if err != nil {
		return fail(h.logger, "List opportunities failed", err)
	}

	return c.JSON(http.StatusOK, ListResponse[*entities.Opportunity]{Data: opportunities, Limit: limit, Offset: offset})
}
