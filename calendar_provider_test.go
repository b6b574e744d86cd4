package main

import (
	"strings"
	"testing"
	"time"

	"github.com/bobuk/yewcal/internal/importer"
)

func TestUpcoming(t *testing.T) {
	base := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }
	events := []importer.ExternalEvent{
		{ID: "later", Start: at(48)},
		{ID: "over", Start: at(-3), End: at(-2)},
		{ID: "running", Start: at(-1), End: at(1)},
		{ID: "soon", Start: at(2)},
		{ID: "started", Start: at(-1)},
	}

	ids := func(evs []importer.ExternalEvent) string {
		var out []string
		for _, ev := range evs {
			out = append(out, ev.ID)
		}
		return strings.Join(out, ",")
	}

	if got := ids(upcoming(events, base, 0)); got != "running,soon,later" {
		t.Errorf("upcoming without limit = %s", got)
	}
	if got := ids(upcoming(events, base, 2)); got != "running,soon" {
		t.Errorf("upcoming limited to 2 = %s", got)
	}
	if got := ids(upcoming(events, time.Time{}, 0)); got != "over,running,started,soon,later" {
		t.Errorf("upcoming from zero time = %s", got)
	}
	if events[0].ID != "later" {
		t.Errorf("input was reordered")
	}
}

func TestPickConfigured(t *testing.T) {
	if got, err := pickConfigured("CalDAV server", "caldav", "", []string{"work"}); err != nil || got != "work" {
		t.Errorf("single server: got %q, %v", got, err)
	}
	if got, err := pickConfigured("CalDAV server", "caldav", "home", []string{"home", "work"}); err != nil || got != "home" {
		t.Errorf("named server: got %q, %v", got, err)
	}
	for _, tt := range []struct {
		name  string
		names []string
		want  string
	}{
		{"", nil, "no CalDAV server configured; add a [caldav.<name>] section"},
		{"", []string{"home", "work"}, "pick one of: home, work"},
		{"office", []string{"home"}, "CalDAV server 'office' not found"},
	} {
		_, err := pickConfigured("CalDAV server", "caldav", tt.name, tt.names)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("pickConfigured(%q, %v) error = %v, want %q", tt.name, tt.names, err, tt.want)
		}
	}
}
