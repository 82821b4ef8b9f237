package services

import (
	"fmt"
	"time"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/picker"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// Conversion directions reported to metrics.
const (
	directionToJalali    = "to_jalali"
	directionToGregorian = "to_gregorian"
)

// CalendarService exposes the calendar engine to the API and to the other services.
type CalendarService struct {
	formatter *calendar.Formatter
	pattern   string
	metrics   ports.Metrics
	logger    *logger.Logger
}

// NewCalendarService creates a calendar service. pattern is the default display
// pattern; now is the clock for "today" and may be nil.
func NewCalendarService(now func() time.Time, pattern string, metrics ports.Metrics, logger *logger.Logger) *CalendarService {
	if pattern == "" {
		pattern = calendar.DefaultPattern
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CalendarService{
		formatter: calendar.NewFormatter(now),
		pattern:   pattern,
		metrics:   metrics,
		logger:    logger,
	}
}

// Today returns today's date in both calendars.
func (s *CalendarService) Today(pattern string) (*ports.DateConversion, error) {
	return s.convert(s.formatter.TodayGregorian(), pattern)
}

// TodayLabel formats today's Jalali date with the default pattern.
func (s *CalendarService) TodayLabel() (string, error) {
	return s.formatter.Today(s.pattern)
}

// ToJalali converts an ISO date.
func (s *CalendarService) ToJalali(iso, pattern string) (*ports.DateConversion, error) {
	g, err := calendar.ParseISODate(iso)
	if err != nil {
		s.metrics.ObserveConversion(directionToJalali, "error")
		return nil, err
	}

	conv, err := s.convert(g, pattern)
	if err != nil {
		s.metrics.ObserveConversion(directionToJalali, "error")
		return nil, err
	}
	s.metrics.ObserveConversion(directionToJalali, "ok")
	return conv, nil
}

// ToGregorian converts a Jalali date written as YYYY/MM/DD in either digit set.
func (s *CalendarService) ToGregorian(jalali, pattern string) (*ports.DateConversion, error) {
	j, err := calendar.ParseJalaliDate(jalali)
	if err != nil {
		s.metrics.ObserveConversion(directionToGregorian, "error")
		return nil, err
	}

	g, err := calendar.JalaliToGregorian(j)
	if err != nil {
		s.metrics.ObserveConversion(directionToGregorian, "error")
		return nil, err
	}

	conv, err := s.convert(g, pattern)
	if err != nil {
		s.metrics.ObserveConversion(directionToGregorian, "error")
		return nil, err
	}
	s.metrics.ObserveConversion(directionToGregorian, "ok")
	return conv, nil
}

// Month renders the picker grid of a Jalali month without opening a session.
func (s *CalendarService) Month(year, month int) (picker.RenderPayload, error) {
	return picker.BuildPayload(year, month, 0)
}

// Display formats d with the default pattern. Dates outside the supported range
// render as an empty string.
func (s *CalendarService) Display(d calendar.GregorianDate) string {
	out, err := s.formatter.FormatGregorian(d, s.pattern)
	if err != nil {
		s.logger.Warnw("Cannot display date", "date", d.String(), "error", err)
		return ""
	}
	return out
}

func (s *CalendarService) convert(g calendar.GregorianDate, pattern string) (*ports.DateConversion, error) {
	if pattern == "" {
		pattern = s.pattern
	}

	j, err := calendar.GregorianToJalali(g)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", g, err)
	}

	monthName, err := calendar.MonthName(j.Month)
	if err != nil {
		return nil, err
	}

	return &ports.DateConversion{
		Gregorian: g.String(),
		Jalali:    j.String(),
		Formatted: calendar.Format(j, pattern),
		Weekday:   g.Weekday().String(),
		MonthName: monthName,
	}, nil
}
