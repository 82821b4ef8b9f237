package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/crm/internal/application/services"
	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/domain/picker"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// SubjectContextKey is where the auth middleware stores the token subject.
const SubjectContextKey = "subject"

// Response types

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// HTTPError maps a service error onto a status code. Errors it does not
// recognise become a 500 that keeps err as the internal cause.
func HTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrInvalidReference):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrCustomerNotFound),
		errors.Is(err, entities.ErrContactNotFound),
		errors.Is(err, entities.ErrOpportunityNotFound),
		errors.Is(err, services.ErrPickerSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, picker.ErrPickerClosed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrInvalidMonth),
		errors.Is(err, calendar.ErrDateParse),
		errors.Is(err, entities.ErrInvalidContactType),
		errors.Is(err, entities.ErrInvalidStage),
		errors.Is(err, entities.ErrInvalidProbability),
		errors.Is(err, entities.ErrInvalidValue),
		errors.Is(err, entities.ErrRequiredField):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

// fail logs err and converts it for the error handler. Client errors are
// logged at debug level only.
func fail(log *logger.Logger, msg string, err error, keysAndValues ...interface{}) error {
	he := HTTPError(err)
	keysAndValues = append(keysAndValues, "error", err, "status", he.Code)
	if he.Code >= http.StatusInternalServerError {
		log.Errorw(msg, keysAndValues...)
	} else {
		log.Debugw(msg, keysAndValues...)
	}
	return he
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func parseOptionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return &id, nil
}

// parsePagination reads limit and offset query parameters.
func parsePagination(c echo.Context) (limit, offset int, err error) {
	limit = defaultPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid offset")
		}
	}
	return limit, offset, nil
}

func subjectFromContext(c echo.Context) string {
	if subject, ok := c.Get(SubjectContextKey).(string); ok {
		return subject
	}
	return ""
}
