package render

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Month writes a Monday-first grid for one month. today is highlighted when
// it falls inside the month.
func Month(w io.Writer, year int, month time.Month, today time.Time) error {
	title := fmt.Sprintf("%s %d", month, year)
	const width = 20
	indent := (width - len(title)) / 2
	if indent < 0 {
		indent = 0
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indent) + title + "\n")
	b.WriteString("Mo Tu We Th Fr Sa Su\n")

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7
	days := first.AddDate(0, 1, -1).Day()

	cells := make([]string, 0, 42)
	for i := 0; i < offset; i++ {
		cells = append(cells, "  ")
	}
	for d := 1; d <= days; d++ {
		cell := fmt.Sprintf("%2d", d)
		if today.Year() == year && today.Month() == month && today.Day() == d {
			cell = dayColor.Sprint(cell)
		}
		cells = append(cells, cell)
	}
	for i := 0; i < len(cells); i += 7 {
		end := i + 7
		if end > len(cells) {
			end = len(cells)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells[i:end], " "), " ") + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Months writes n consecutive month grids starting with the month of start.
func Months(w io.Writer, start time.Time, n int) error {
	if n < 1 {
		n = 1
	}
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	for i := 0; i < n; i++ {
		m := first.AddDate(0, i, 0)
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := Month(w, m.Year(), m.Month(), start); err != nil {
			return err
		}
	}
	return nil
}
