// Package render formats entries for the terminal and for notifications.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/bobuk/yewcal/internal/calendar"
)

const summaryWidth = 20

var (
	dayColor     = color.New(color.Bold)
	timeColor    = color.New(color.FgBlue)
	summaryColor = color.New(color.FgGreen)
)

// Options control how a listing looks.
type Options struct {
	// Human shows times relative to Now instead of clock times.
	Human bool
	// Numbered prefixes each line with its index instead of the short id.
	Numbered bool
	// UseLocalTime shows clock times in Location instead of the event zone.
	UseLocalTime bool
	Now          time.Time
	Location     *time.Location
	Zone         string
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Events writes a "Current time" header followed by one line per entry.
func Events(w io.Writer, entries []*calendar.Entry, o Options) error {
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(o.location())
	if _, err := fmt.Fprintf(w, "Current time: %s, %s\n", now.Format(time.RFC3339), o.Zone); err != nil {
		return err
	}

	var lastDay string
	for i, e := range entries {
		shown := e.Dt
		if o.UseLocalTime {
			shown = shown.In(o.location())
		}

		var b strings.Builder
		if day := shown.Format("Mon 2006-01-02"); day != lastDay {
			lastDay = day
			b.WriteString(dayColor.Sprint(pad(day, 16)))
		} else {
			b.WriteString(pad("", 16))
		}
		if o.Numbered {
			b.WriteString(pad(fmt.Sprintf("%d", i), 3) + ")")
		} else {
			b.WriteString(pad(e.ShortID(), 10))
		}
		if o.Human {
			b.WriteString(timeColor.Sprint(pad(humanize.RelTime(e.Dt, now, "ago", "from now"), 16)))
		} else {
			b.WriteString(pad(shown.Format("15:04"), 8))
		}
		b.WriteString(summaryColor.Sprint(pad(truncate(e.Summary, summaryWidth), summaryWidth+2)))
		b.WriteString(pad(fmt.Sprintf("[%s %s]", e.Dt.Format("15:04"), e.Timezone), 22))
		b.WriteString(pad(e.Duration.String(), 10))
		if e.Repeats != calendar.Unique {
			b.WriteString(pad(e.Repeats.String(), 10))
		}

		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

// Describe writes every field of e, one per line.
func Describe(w io.Writer, e *calendar.Entry) error {
	rows := [][2]string{
		{"uid", e.UID},
		{"user", e.User},
		{"summary", e.Summary},
		{"description", e.Description},
		{"dt", e.Dt.Format(time.RFC3339)},
		{"timezone", e.Timezone},
		{"duration", fmt.Sprintf("%s (%s)", e.Duration.ISO(), e.Duration)},
		{"repeats", e.Repeats.String()},
		{"created", e.Created.Format(time.RFC3339)},
		{"updated", e.Updated.Format(time.RFC3339)},
		{"external_id", e.ExternalID},
		{"source", e.Source},
	}
	if len(e.Data) > 0 {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encode data: %w", err)
		}
		rows = append(rows, [2]string{"data", string(raw)})
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s: %s\n", pad(r[0], 12), r[1]); err != nil {
			return err
		}
	}
	return nil
}

// Summary is the plain text body used for notifications: one "HH:MM summary"
// line per entry.
func Summary(entries []*calendar.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s\n", e.Dt.Format("15:04"), e.Summary)
	}
	return b.String()
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
