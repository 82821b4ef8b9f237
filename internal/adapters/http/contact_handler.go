package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// ContactHandler handles contact log requests
type ContactHandler struct {
	contactService ports.ContactService
	logger         *logger.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService ports.ContactService, logger *logger.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		logger:         logger,
	}
}

// CreateContact godoc
// @Summary Record a contact with a customer
// @Description The date is an ISO-8601 Gregorian date; the response carries its Jalali rendering
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body ports.CreateContactRequest true "Contact data"
// @Success 201 {object} entities.Contact
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts [post]
func (h *ContactHandler) CreateContact(c echo.Context) error {
	var req ports.CreateContactRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	contact, err := h.contactService.CreateContact(c.Request().Context(), req)
	if err != nil {
		return fail(h.logger, "Create contact failed", err, "customer_id", req.CustomerID)
	}

	return c.JSON(http.StatusCreated, contact)
}

// GetContact godoc
// @Summary Get contact by ID
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} entities.Contact
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id} [get]
func (h *ContactHandler) GetContact(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	contact, err := h.contactService.GetContact(c.Request().Context(), id)
	if err != nil {
		return fail(h.logger, "Get contact failed", err, "contact_id", id)
	}

	return c.JSON(http.StatusOK, contact)
}

// UpdateContact godoc
// @Summary Update a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param id path string true "Contact ID"
// @Param request body ports.UpdateContactRequest true "Fields to change"
// @Success 200 {object} entities.Contact
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id} [put]
func (h *ContactHandler) UpdateContact(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateContactRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	contact, err := h.contactService.UpdateContact(c.Request().Context(), id, req)
	if err != nil {
		return fail(h.logger, "Update contact failed", err, "contact_id", id)
	}

	return c.JSON(http.StatusOK, contact)
}

// DeleteContact godoc
// @Summary Delete a contact
// @Tags contacts
// @Produce json
// @Param id path string true "Contact ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts/{id} [delete]
func (h *ContactHandler) DeleteContact(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.contactService.DeleteContact(c.Request().Context(), id); err != nil {
		return fail(h.logger, "Delete contact failed", err, "contact_id", id)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Contact deleted successfully"})
}

// ListContacts godoc
// @Summary List contacts
// @Description Most recent contact date first
// @Tags contacts
// @Produce json
// @Param customer_id query string false "Only contacts of this customer"
// @Param type query string false "call, email, meeting or other"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} ListResponse[entities.Contact]
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /contacts [get]
func (h *ContactHandler) ListContacts(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}

	customerID, err := parseOptionalUUID(c, "customer_id")
	if err != nil {
		return err
	}

	filter := ports.ContactFilter{CustomerID: customerID, Limit: limit, Offset: offset}
	if raw := c.QueryParam("type"); raw != "" {
		t := entities.ContactType(raw)
		filter.Type = &t
	}

	contacts, err := h.contactService.ListContacts(c.Request().Context(), filter)
	if err != nil {
		return fail(h.logger, "List contacts failed", err)
	}

	return c.JSON(http.StatusOK, ListResponse[*entities.Contact]{Data: contacts, Limit: limit, Offset: offset})
}

// ListCustomerContacts godoc
// @Summary List the contacts of one customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} ListResponse[entities.Contact]
// @Security BearerAuth
// @Router /customers/{id}/contacts [get]
func (h *ContactHandler) ListCustomerContacts(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}

	contacts, err := h.contactService.ListContacts(c.Request().Context(), ports.ContactFilter{CustomerID: &id, Limit: limit, Offset: offset})
	if err != nil {
		return fail(h.logger, "List customer contacts failed", err, "customer_id", id)
	}

	return c.JSON(http.StatusOK, ListResponse[*entities.Contact]{Data: contacts, Limit: limit, Offset: offset})
}
