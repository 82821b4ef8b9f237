package picker

import (
	"github.com/taskmaster/crm/internal/domain/calendar"
)

// RenderCell is a grid cell as the presentation layer draws it.
type RenderCell struct {
	Day         int    `json:"day,omitempty"`
	Label       string `json:"label,omitempty"`
	Blank       bool   `json:"blank"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// RenderPayload is everything needed to draw the picker for one displayed month.
type RenderPayload struct {
	Year         int          `json:"year"`
	Month        int          `json:"month"`
	MonthName    string       `json:"month_name"`
	YearLabel    string       `json:"year_label"`
	Weekdays     []string     `json:"weekdays"`
	Cells        []RenderCell `json:"cells"`
	HighlightDay int          `json:"highlight_day,omitempty"`
}

// BuildPayload renders year/month. highlightDay is 0 when no day should be marked.
func BuildPayload(year, month, highlightDay int) (RenderPayload, error) {
	grid, err := GenerateDayGrid(year, month)
	if err != nil {
		return RenderPayload{}, err
	}
	name, err := calendar.MonthName(month)
	if err != nil {
		return RenderPayload{}, err
	}

	cells := make([]RenderCell, 0, grid.Len())
	for cell := range grid.All() {
		cells = append(cells, RenderCell{
			Day:         cell.Day,
			Label:       cell.Label(),
			Blank:       cell.Blank(),
			Highlighted: !cell.Blank() && cell.Day == highlightDay,
		})
	}

	return RenderPayload{
		Year:         year,
		Month:        month,
		MonthName:    name,
		YearLabel:    calendar.LocalizeInt(year),
		Weekdays:     calendar.WeekdayNames(),
		Cells:        cells,
		HighlightDay: highlightDay,
	}, nil
}
