package calendar

import (
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bobuk/yewcal/internal/dates"
	"github.com/bobuk/yewcal/internal/tz"
)

// phraseParser understands the handful of phrases used by the fixtures plus
// ISO timestamps.
type phraseParser struct{}

func (phraseParser) Parse(text string, loc *time.Location, now time.Time) (time.Time, error) {
	now = now.In(loc)
	switch text {
	case "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	case "in four days":
		return now.AddDate(0, 0, 4), nil
	case "next week":
		return now.AddDate(0, 0, 7), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", text, loc); err == nil {
		return t, nil
	}
	return time.Time{}, dates.ErrNoMatch
}

var fixtureZones = tz.StaticSource{"Europe/London", "Asia/Tokyo", "America/New_York", "Pacific/Kwajalein", "Etc/UTC"}

// referenceNow is a Thursday morning in London.
func referenceNow(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, 3, 14, 9, 0, 0, 0, mustLoad(t, "Europe/London"))
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	return loc
}

func testEnv(t *testing.T, now time.Time) dates.Env {
	t.Helper()
	return dates.Env{
		Now:      func() time.Time { return now },
		Location: mustLoad(t, "Europe/London"),
		Zone:     "Europe/London",
	}
}

func testBuilder(t *testing.T, now time.Time) *Builder {
	t.Helper()
	counter := 0
	return &Builder{
		Dates: &dates.Interpreter{
			Parser:   phraseParser{},
			Resolver: tz.NewResolver(fixtureZones),
			Env:      testEnv(t, now),
		},
		User: "tester",
		NewID: func() string {
			counter++
			return fmt.Sprintf("%08x-0000-4000-8000-%012x", counter, counter)
		},
	}
}

func mustBuild(t *testing.T, b *Builder, p NewEntry) *Entry {
	t.Helper()
	e, err := b.Build(p)
	if err != nil {
		t.Fatalf("Build(%+v) returned error: %v", p, err)
	}
	return e
}

// fourEvents mirrors the classic fixture: tomorrow, next week, in four days
// and today.
func fourEvents(t *testing.T, b *Builder) []*Entry {
	t.Helper()
	return []*Entry{
		mustBuild(t, b, NewEntry{
			Summary:    "event1",
			When:       "tomorrow",
			Timezone:   "london",
			Duration:   span(time.Hour),
			ExternalID: "my_external_id",
			Source:     "some_external_source",
			Data:       map[string]any{"mydata": "could be anything"},
		}),
		mustBuild(t, b, NewEntry{Summary: "event2", When: "next week"}),
		mustBuild(t, b, NewEntry{Summary: "event3", When: "in four days"}),
		mustBuild(t, b, NewEntry{Summary: "event4", When: "today"}),
	}
}

func span(d time.Duration) *time.Duration { return &d }
