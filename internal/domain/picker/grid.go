package picker

import (
	"iter"

	"github.com/taskmaster/crm/internal/domain/calendar"
)

// Cell is one slot of a month grid. A zero Day is a blank placeholder.
type Cell struct {
	Day int `json:"day"`
}

// Blank reports whether the cell only pads the first week.
func (c Cell) Blank() bool {
	return c.Day == 0
}

// Label returns the day number in local glyphs, or "" for a blank.
func (c Cell) Label() string {
	if c.Blank() {
		return ""
	}
	return calendar.LocalizeInt(c.Day)
}

// DayGrid describes the cells of one Jalali month laid out in Saturday-first weeks.
// It holds no cells itself; All produces them on demand and may be ranged over any
// number of times.
type DayGrid struct {
	year    int
	month   int
	leading int
	days    int
}

// GenerateDayGrid builds the grid for year/month. The number of leading blanks is the
// weekday of the month's first day.
func GenerateDayGrid(year, month int) (DayGrid, error) {
	days, err := calendar.DaysInJalaliMonth(year, month)
	if err != nil {
		return DayGrid{}, err
	}

	first, err := calendar.JalaliToGregorian(calendar.JalaliDate{Year: year, Month: month, Day: 1})
	if err != nil {
		return DayGrid{}, err
	}

	return DayGrid{
		year:    year,
		month:   month,
		leading: int(first.Weekday()),
		days:    days,
	}, nil
}

// Year returns the Jalali year of the grid.
func (g DayGrid) Year() int { return g.year }

// Month returns the Jalali month of the grid.
func (g DayGrid) Month() int { return g.month }

// LeadingBlanks returns the number of blank cells before day 1.
func (g DayGrid) LeadingBlanks() int { return g.leading }

// DaysInMonth returns the number of day cells.
func (g DayGrid) DaysInMonth() int { return g.days }

// Len returns LeadingBlanks + DaysInMonth.
func (g DayGrid) Len() int { return g.leading + g.days }

// All yields the leading blanks followed by days 1..DaysInMonth.
func (g DayGrid) All() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for i := 0; i < g.leading; i++ {
			if !yield(Cell{}) {
				return
			}
		}
		for d := 1; d <= g.days; d++ {
			if !yield(Cell{Day: d}) {
				return
			}
		}
	}
}

// Weeks yields seven-cell rows, padding the last row with blanks.
func (g DayGrid) Weeks() iter.Seq[[7]Cell] {
	return func(yield func([7]Cell) bool) {
		var row [7]Cell
		i := 0
		for cell := range g.All() {
			row[i] = cell
			i++
			if i == len(row) {
				if !yield(row) {
					return
				}
				row = [7]Cell{}
				i = 0
			}
		}
		if i > 0 {
			yield(row)
		}
	}
}
