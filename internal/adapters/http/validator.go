package http

import (
	"github.com/go-playground/validator/v10"

	"github.com/taskmaster/crm/internal/domain/calendar"
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator registers the isodate tag on top of the stock validations.
func NewValidator() *CustomValidator {
	v := validator.New()
	// Empty strings pass so that optional dates can be cleared; combine with
	// required where a date is mandatory.
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := calendar.ParseISODate(s)
		return err == nil
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
