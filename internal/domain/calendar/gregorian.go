package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ISOLayout is the only date format the record store ever sees.
const ISOLayout = "2006-01-02"

// GregorianDate is a proleptic Gregorian calendar date without a time of day.
type GregorianDate struct {
	Year  int
	Month int
	Day   int
}

// Weekday counts days of the Persian week, Saturday first.
type Weekday int

const (
	Saturday Weekday = iota
	Sunday
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
)

// IsGregorianLeapYear applies the 4/100/400 rule.
func IsGregorianLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInGregorianMonth returns the length of month in year.
func DaysInGregorianMonth(year, month int) (int, error) {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31, nil
	case 4, 6, 9, 11:
		return 30, nil
	case 2:
		if IsGregorianLeapYear(year) {
			return 29, nil
		}
		return 28, nil
	}
	return 0, &InvalidMonthError{Month: month}
}

// NewGregorianDate returns a validated date.
func NewGregorianDate(year, month, day int) (GregorianDate, error) {
	d := GregorianDate{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return GregorianDate{}, err
	}
	return d, nil
}

// FromTime drops the clock and location of t, keeping the calendar date as read in t's zone.
func FromTime(t time.Time) GregorianDate {
	y, m, d := t.Date()
	return GregorianDate{Year: y, Month: int(m), Day: d}
}

// Validate checks month and day ranges.
func (d GregorianDate) Validate() error {
	n, err := DaysInGregorianMonth(d.Year, d.Month)
	if err != nil {
		return &InvalidDateError{Calendar: "gregorian", Year: d.Year, Month: d.Month, Day: d.Day, Reason: "month out of range"}
	}
	if d.Day < 1 || d.Day > n {
		return &InvalidDateError{
			Calendar: "gregorian",
			Year:     d.Year, Month: d.Month, Day: d.Day,
			Reason: fmt.Sprintf("day must be between 1 and %d", n),
		}
	}
	return nil
}

// Time returns midnight UTC of the date.
func (d GregorianDate) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the Saturday-first weekday of the date.
func (d GregorianDate) Weekday() Weekday {
	// Fixed day 1 (0001-01-01) is a Monday, so mod 7 yields a Sunday-first index.
	return Weekday((floorMod(fixedFromGregorian(d), 7) + 1) % 7)
}

// String returns the ISO form YYYY-MM-DD.
func (d GregorianDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalText encodes the date in ISO form.
func (d GregorianDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes an ISO date.
func (d *GregorianDate) UnmarshalText(text []byte) error {
	parsed, err := ParseISODate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseISODate parses YYYY-MM-DD. A trailing RFC 3339 time part is accepted and
// ignored, and local digit glyphs are normalised first.
func ParseISODate(s string) (GregorianDate, error) {
	input := s
	s = strings.TrimSpace(ToASCII(s))
	if i := strings.IndexAny(s, "T "); i >= 0 {
		if _, err := time.Parse(time.RFC3339, strings.Replace(s, " ", "T", 1)); err != nil {
			return GregorianDate{}, &DateParseError{Input: input, Err: err}
		}
		s = s[:i]
	}

	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return GregorianDate{}, &DateParseError{Input: input, Err: errors.New("expected YYYY-MM-DD")}
	}

	var fields [3]int
	for i, p := range parts {
		n, ok := parseDigits(p)
		if !ok {
			return GregorianDate{}, &DateParseError{Input: input, Err: fmt.Errorf("non-numeric field %q", p)}
		}
		fields[i] = n
	}

	d, err := NewGregorianDate(fields[0], fields[1], fields[2])
	if err != nil {
		return GregorianDate{}, &DateParseError{Input: input, Err: err}
	}
	return d, nil
}

// fixedFromGregorian counts days so that 0001-01-01 is day 1.
func fixedFromGregorian(d GregorianDate) int {
	prior := d.Year - 1
	days := 365*prior +
		floorDiv(prior, 4) -
		floorDiv(prior, 100) +
		floorDiv(prior, 400) +
		floorDiv(367*d.Month-362, 12) +
		d.Day
	if d.Month > 2 {
		if IsGregorianLeapYear(d.Year) {
			days--
		} else {
			days -= 2
		}
	}
	return days
}

// gregorianFromFixed undoes fixedFromGregorian by peeling 400-, 100-, 4- and 1-year cycles.
func gregorianFromFixed(fixed int) GregorianDate {
	d0 := fixed - 1
	n400, d1 := floorDiv(d0, 146097), floorMod(d0, 146097)
	n100, d2 := d1/36524, d1%36524
	n4, d3 := d2/1461, d2%1461
	n1 := d3 / 365

	year := 400*n400 + 100*n100 + 4*n4 + n1
	// The last day of a 400-year or 4-year cycle belongs to the year just counted.
	if n100 != 4 && n1 != 4 {
		year++
	}

	jan1 := fixedFromGregorian(GregorianDate{Year: year, Month: 1, Day: 1})
	mar1 := fixedFromGregorian(GregorianDate{Year: year, Month: 3, Day: 1})
	correction := 0
	if fixed >= mar1 {
		if IsGregorianLeapYear(year) {
			correction = 1
		} else {
			correction = 2
		}
	}
	month := floorDiv(12*(fixed-jan1+correction)+373, 367)
	day := fixed - fixedFromGregorian(GregorianDate{Year: year, Month: month, Day: 1}) + 1
	return GregorianDate{Year: year, Month: month, Day: day}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - b*floorDiv(a, b)
}
