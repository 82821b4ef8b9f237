package calendar

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is by callers that do not need the details.
var (
	ErrInvalidMonth = errors.New("invalid month")
	ErrInvalidDate  = errors.New("invalid date")
	ErrDateParse    = errors.New("unparseable date")
)

// InvalidMonthError reports a month outside [1,12].
type InvalidMonthError struct {
	Month int
}

func (e *InvalidMonthError) Error() string {
	return fmt.Sprintf("invalid month %d: must be between 1 and 12", e.Month)
}

func (e *InvalidMonthError) Is(target error) bool {
	return target == ErrInvalidMonth
}

// InvalidDateError reports a structurally invalid calendar date.
type InvalidDateError struct {
	Calendar string
	Year     int
	Month    int
	Day      int
	Reason   string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid %s date %04d-%02d-%02d: %s", e.Calendar, e.Year, e.Month, e.Day, e.Reason)
}

func (e *InvalidDateError) Is(target error) bool {
	return target == ErrInvalidDate
}

// DateParseError reports an input string that is not an ISO-8601 date.
type DateParseError struct {
	Input string
	Err   error
}

func (e *DateParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse date %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("cannot parse date %q", e.Input)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

func (e *DateParseError) Is(target error) bool {
	return target == ErrDateParse
}
