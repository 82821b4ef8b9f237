package calendar

var monthNames = [12]string{
	"فروردین", "اردیبهشت", "خرداد", "تیر", "مرداد", "شهریور",
	"مهر", "آبان", "آذر", "دی", "بهمن", "اسفند",
}

var weekdayNames = [7]string{
	"شنبه", "یکشنبه", "دوشنبه", "سه‌شنبه", "چهارشنبه", "پنج‌شنبه", "جمعه",
}

// MonthName returns the Persian name of a Jalali month.
func MonthName(month int) (string, error) {
	if month < 1 || month > 12 {
		return "", &InvalidMonthError{Month: month}
	}
	return monthNames[month-1], nil
}

// String returns the Persian name of the weekday.
func (w Weekday) String() string {
	if w < Saturday || w > Friday {
		return ""
	}
	return weekdayNames[w]
}

// WeekdayNames returns the picker's column headers, Saturday first.
func WeekdayNames() []string {
	names := make([]string, len(weekdayNames))
	copy(names, weekdayNames[:])
	return names
}
