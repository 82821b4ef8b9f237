package calendar

import (
	"fmt"
	"strings"
)

const (
	// jalaliEpoch is the fixed day number of 1 Farvardin 1 (0622-03-22 proleptic Gregorian).
	jalaliEpoch = 226896

	cycleYears = 2820
	cycleLeaps = 683
	// cycleDays is the length of one full 2820-year cycle.
	cycleDays = cycleYears*365 + cycleLeaps

	// leapsBeforeYearOne is floor(2346*683/2820), the leap count the formula
	// attributes to years before 1.
	leapsBeforeYearOne = 568

	// daysBeforeMehr is the day-of-year offset of month 7.
	daysBeforeMehr = 6 * 31
)

// JalaliDate is a date in the solar hijri calendar.
type JalaliDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// IsJalaliLeapYear reports whether year has 366 days under the 2820-year cycle rule.
func IsJalaliLeapYear(year int) bool {
	return floorMod((year+2346)*cycleLeaps, cycleYears) < cycleLeaps
}

// DaysInJalaliMonth returns 31 for months 1-6, 30 for 7-11, and 30 or 29 for month 12.
func DaysInJalaliMonth(year, month int) (int, error) {
	switch {
	case month >= 1 && month <= 6:
		return 31, nil
	case month >= 7 && month <= 11:
		return 30, nil
	case month == 12:
		if IsJalaliLeapYear(year) {
			return 30, nil
		}
		return 29, nil
	}
	return 0, &InvalidMonthError{Month: month}
}

// NewJalaliDate returns a validated date.
func NewJalaliDate(year, month, day int) (JalaliDate, error) {
	d := JalaliDate{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return JalaliDate{}, err
	}
	return d, nil
}

// Validate checks that the year is supported and that month and day are in range.
func (d JalaliDate) Validate() error {
	if d.Year < 1 {
		return &InvalidDateError{Calendar: "jalali", Year: d.Year, Month: d.Month, Day: d.Day, Reason: "years before 1 are not supported"}
	}
	n, err := DaysInJalaliMonth(d.Year, d.Month)
	if err != nil {
		return &InvalidDateError{Calendar: "jalali", Year: d.Year, Month: d.Month, Day: d.Day, Reason: "month out of range"}
	}
	if d.Day < 1 || d.Day > n {
		return &InvalidDateError{
			Calendar: "jalali",
			Year:     d.Year, Month: d.Month, Day: d.Day,
			Reason: fmt.Sprintf("day must be between 1 and %d", n),
		}
	}
	return nil
}

// String renders the date as YYYY/MM/DD with ASCII digits.
func (d JalaliDate) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// ParseJalaliDate reads YYYY/MM/DD (or with '-' separators), in ASCII or local digits.
func ParseJalaliDate(s string) (JalaliDate, error) {
	input := s
	s = strings.TrimSpace(ToASCII(s))
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return JalaliDate{}, &DateParseError{Input: input, Err: fmt.Errorf("expected YYYY/MM/DD")}
	}

	var fields [3]int
	for i, p := range parts {
		n, ok := parseDigits(p)
		if !ok {
			return JalaliDate{}, &DateParseError{Input: input, Err: fmt.Errorf("non-numeric field %q", p)}
		}
		fields[i] = n
	}

	d, err := NewJalaliDate(fields[0], fields[1], fields[2])
	if err != nil {
		return JalaliDate{}, &DateParseError{Input: input, Err: err}
	}
	return d, nil
}

// GregorianToJalali converts a Gregorian date. Dates before 1 Farvardin 1 are rejected.
func GregorianToJalali(g GregorianDate) (JalaliDate, error) {
	if err := g.Validate(); err != nil {
		return JalaliDate{}, err
	}

	days := fixedFromGregorian(g) - jalaliEpoch
	if days < 0 {
		return JalaliDate{}, &InvalidDateError{
			Calendar: "gregorian",
			Year:     g.Year, Month: g.Month, Day: g.Day,
			Reason: "before the jalali epoch",
		}
	}
	return jalaliFromDays(days), nil
}

// JalaliToGregorian converts a Jalali date after validating it.
func JalaliToGregorian(j JalaliDate) (GregorianDate, error) {
	if err := j.Validate(); err != nil {
		return GregorianDate{}, err
	}
	return gregorianFromFixed(jalaliEpoch + daysFromJalali(j)), nil
}

// daysBeforeJalaliYear counts the days from 1 Farvardin 1 to 1 Farvardin of year.
//
// A year k is leap exactly when floor((k+2346)*683/2820) steps up between k-1 and k,
// so the leap count over years 1..year-1 telescopes to a single floor division.
func daysBeforeJalaliYear(year int) int {
	return 365*(year-1) + floorDiv((year+2345)*cycleLeaps, cycleYears) - leapsBeforeYearOne
}

func daysFromJalali(j JalaliDate) int {
	days := daysBeforeJalaliYear(j.Year)
	if j.Month <= 7 {
		days += 31 * (j.Month - 1)
	} else {
		days += daysBeforeMehr + 30*(j.Month-7)
	}
	return days + j.Day - 1
}

// jalaliFromDays maps a non-negative day offset from the epoch back to a date.
func jalaliFromDays(days int) JalaliDate {
	cycles := days / cycleDays
	rem := days % cycleDays

	// Proportional estimate inside the cycle, off by at most one year either way.
	year := cycles*cycleYears + rem*cycleYears/cycleDays + 1
	for daysBeforeJalaliYear(year+1) <= days {
		year++
	}
	for daysBeforeJalaliYear(year) > days {
		year--
	}

	dayOfYear := days - daysBeforeJalaliYear(year)
	month := 1
	for {
		n, _ := DaysInJalaliMonth(year, month)
		if dayOfYear < n || month == 12 {
			break
		}
		dayOfYear -= n
		month++
	}
	return JalaliDate{Year: year, Month: month, Day: dayOfYear + 1}
}
