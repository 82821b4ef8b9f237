package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPattern is used when an empty pattern is passed to Format.
const DefaultPattern = "YYYY/MM/DD"

// Format renders d into pattern. YYYY, MM and DD are replaced wherever they occur,
// in a single left-to-right pass, with digits in local glyphs. Everything else in the
// pattern is copied as is.
func Format(d JalaliDate, pattern string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}

	year := ToLocal(fmt.Sprintf("%04d", d.Year))
	month := ToLocal(fmt.Sprintf("%02d", d.Month))
	day := ToLocal(fmt.Sprintf("%02d", d.Day))

	var b strings.Builder
	b.Grow(len(pattern) * 2)
	for i := 0; i < len(pattern); {
		switch {
		case strings.HasPrefix(pattern[i:], "YYYY"):
			b.WriteString(year)
			i += 4
		case strings.HasPrefix(pattern[i:], "MM"):
			b.WriteString(month)
			i += 2
		case strings.HasPrefix(pattern[i:], "DD"):
			b.WriteString(day)
			i += 2
		default:
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}

// Formatter formats dates relative to a clock.
type Formatter struct {
	now func() time.Time
}

// NewFormatter returns a Formatter reading the current time from now.
// A nil now uses time.Now.
func NewFormatter(now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{now: now}
}

// TodayGregorian returns the clock's current calendar date.
func (f *Formatter) TodayGregorian() GregorianDate {
	return FromTime(f.now())
}

// TodayJalali returns today's date in the Jalali calendar.
func (f *Formatter) TodayJalali() (JalaliDate, error) {
	return GregorianToJalali(f.TodayGregorian())
}

// Today formats today's Jalali date with pattern.
func (f *Formatter) Today(pattern string) (string, error) {
	today, err := f.TodayJalali()
	if err != nil {
		return "", fmt.Errorf("today: %w", err)
	}
	return Format(today, pattern), nil
}

// FormatGregorian converts g and formats the result.
func (f *Formatter) FormatGregorian(g GregorianDate, pattern string) (string, error) {
	j, err := GregorianToJalali(g)
	if err != nil {
		return "", err
	}
	return Format(j, pattern), nil
}

// FormatISO parses an ISO date from the record store and formats it in Jalali.
func (f *Formatter) FormatISO(iso, pattern string) (string, error) {
	g, err := ParseISODate(iso)
	if err != nil {
		return "", err
	}
	return f.FormatGregorian(g, pattern)
}
