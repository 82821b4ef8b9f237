package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// CustomerHandler handles customer-related requests
type CustomerHandler struct {
	customerService ports.CustomerService
	logger          *logger.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService ports.CustomerService, logger *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// CreateCustomer godoc
// @Summary Create a new customer
// @Tags customers
// @Accept json
// @Produce json
// @Param request body ports.CreateCustomerRequest true "Customer data"
// @Success 201 {object} entities.Customer
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	var req ports.CreateCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.customerService.CreateCustomer(c.Request().Context(), req)
	if err != nil {
		return fail(h.logger, "Create customer failed", err, "subject", subjectFromContext(c))
	}

	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer godoc
// @Summary Get customer by ID
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} entities.Customer
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	customer, err := h.customerService.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return fail(h.logger, "Get customer failed", err, "customer_id", id)
	}

	return c.JSON(http.StatusOK, customer)
}

// UpdateCustomer godoc
// @Summary Update a customer
// @Description Only the fields present in the body are changed
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param request body ports.UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} entities.Customer
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.customerService.UpdateCustomer(c.Request().Context(), id, req)
	if err != nil {
		return fail(h.logger, "Update customer failed", err, "customer_id", id)
	}

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer godoc
// @Summary Delete a customer
// @Description Deletes the customer together with its contacts and opportunities
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.customerService.DeleteCustomer(c.Request().Context(), id); err != nil {
		return fail(h.logger, "Delete customer failed", err, "customer_id", id)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Customer deleted successfully"})
}

// ListCustomers godoc
// @Summary List customers
// @Tags customers
// @Produce json
// @Param search query string false "Matches name, phone, email or company"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse[entities.Customer]
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}

	filter := ports.CustomerFilter{
		Search: strings.TrimSpace(c.QueryParam("search")),
		Limit:  limit,
		Offset: offset,
	}

	customers, err := h.customerService.ListCustomers(c.Request().Context(), filter)
	if err != nil {
		return fail(h.logger, "List customers failed", err)
	}

	return c.JSON(http.StatusOK, ListResponse[*entities.Customer]{Data: customers, Limit: limit, Offset: offset})
}
