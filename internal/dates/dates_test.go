package dates

import (
	"errors"
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/bobuk/yewcal/internal/tz"
)

type isoParser struct{}

func (isoParser) Parse(text string, loc *time.Location, now time.Time) (time.Time, error) {
	switch text {
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", text, loc); err == nil {
		return t, nil
	}
	return time.Time{}, ErrNoMatch
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	return loc
}

func newInterpreter(t *testing.T, now time.Time) *Interpreter {
	t.Helper()
	return &Interpreter{
		Parser:   isoParser{},
		Resolver: tz.NewResolver(tz.StaticSource{"Europe/London", "Asia/Tokyo", "America/New_York"}),
		Env: Env{
			Now:      func() time.Time { return now },
			Location: mustLoad(t, "Europe/London"),
			Zone:     "Europe/London",
		},
	}
}

func TestEnv_DayBoundaries(t *testing.T) {
	t.Parallel()

	london := mustLoad(t, "Europe/London")
	now := time.Date(2024, 3, 30, 22, 15, 30, 500, london)
	env := Env{Now: func() time.Time { return now }, Location: london, Zone: "Europe/London"}

	if got, want := env.Today(), time.Date(2024, 3, 30, 0, 0, 0, 0, london); !got.Equal(want) {
		t.Fatalf("Today = %s, want %s", got, want)
	}
	if got, want := env.Tomorrow(), time.Date(2024, 3, 31, 0, 0, 0, 0, london); !got.Equal(want) {
		t.Fatalf("Tomorrow = %s, want %s", got, want)
	}
	// The clocks go forward on 31 March, so that day only lasts 23 hours.
	if got, want := env.DayAfterTomorrow(), time.Date(2024, 4, 1, 0, 0, 0, 0, london); !got.Equal(want) {
		t.Fatalf("DayAfterTomorrow = %s, want %s", got, want)
	}
	if d := env.DayAfterTomorrow().Sub(env.Tomorrow()); d != 23*time.Hour {
		t.Fatalf("expected a 23h day across the DST change, got %s", d)
	}
}

func TestEnv_Nowish(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 10, 0, 0, 999, time.UTC)
	env := Env{Now: func() time.Time { return now }}
	got := env.Nowish(15)
	if want := time.Date(2024, 1, 2, 10, 15, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Nowish(15) = %s, want %s", got, want)
	}
	if got.Nanosecond() != 0 {
		t.Fatalf("expected whole seconds, got %d ns", got.Nanosecond())
	}

	// Beyond the range of a time.Duration.
	if got, want := env.Nowish(200000000), time.Date(2404, 4, 8, 7, 20, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Nowish(200000000) = %s, want %s", got, want)
	}
	if got := env.Nowish(math.MaxInt); got.Year() < 1000000 {
		t.Fatalf("Nowish(MaxInt) = %s, want a far future instant", got)
	}
}

func TestInterpreter_AttachesResolvedZone(t *testing.T) {
	t.Parallel()

	i := newInterpreter(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	got, zone, err := i.Interpret("2024-07-01T09:30:00.75", "tokyo")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if zone != "Asia/Tokyo" {
		t.Fatalf("expected Asia/Tokyo, got %q", zone)
	}
	if got.Location().String() != "Asia/Tokyo" {
		t.Fatalf("expected instant in Asia/Tokyo, got %s", got.Location())
	}
	if _, off := got.Zone(); off != 9*3600 {
		t.Fatalf("expected +09:00 offset, got %d", off)
	}
	if got.Hour() != 9 || got.Minute() != 30 || got.Nanosecond() != 0 {
		t.Fatalf("unexpected wall clock %s", got)
	}
}

func TestInterpreter_KeepsExplicitOffset(t *testing.T) {
	t.Parallel()

	i := newInterpreter(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	got, _, err := i.Interpret("2024-01-15T10:00:00+02:00", "london")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if want := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got.Location().String() != "Europe/London" {
		t.Fatalf("expected display zone Europe/London, got %s", got.Location())
	}
}

func TestInterpreter_DefaultsToEnvZone(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	i := newInterpreter(t, now)
	got, zone, err := i.Interpret("tomorrow", "")
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if zone != "Europe/London" {
		t.Fatalf("expected default zone, got %q", zone)
	}
	if !got.Equal(now.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected instant %s", got)
	}
}

func TestInterpreter_Errors(t *testing.T) {
	t.Parallel()

	i := newInterpreter(t, time.Now())
	if _, _, err := i.Interpret("this is no datetime", ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, _, err := i.Interpret("tomorrow", "xxxxxxxxx"); !errors.Is(err, tz.ErrNotFound) {
		t.Fatalf("expected tz.ErrNotFound, got %v", err)
	}
	if _, err := i.Check("nope"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid from Check, got %v", err)
	}
}

func TestNaturalParser(t *testing.T) {
	t.Parallel()

	loc := mustLoad(t, "Europe/London")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, loc)

	got, err := NaturalParser{}.Parse("2024-03-14T10:00:00+02:00", loc, now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if want := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	if _, err := (NaturalParser{}).Parse("   ", loc, now); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for blank input, got %v", err)
	}
}

func TestNaturalParser_NaiveAndRelative(t *testing.T) {
	t.Parallel()

	tokyo := mustLoad(t, "Asia/Tokyo")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, tokyo)
	p := NaturalParser{}

	got, err := p.Parse("2024-07-01 10:00", tokyo, now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if want := time.Date(2024, 7, 1, 1, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("naive input: expected %s, got %s", want, got)
	}
	if _, offset := got.Zone(); offset != 9*3600 {
		t.Fatalf("naive input not anchored in Tokyo: %s", got)
	}

	got, err = p.Parse("tomorrow", tokyo, now)
	if err != nil {
		t.Fatalf("Parse(tomorrow) returned error: %v", err)
	}
	if d := got.In(tokyo).Format(time.DateOnly); d != "2024-06-02" {
		t.Fatalf("tomorrow = %s", got)
	}

	got, err = p.Parse("next week", tokyo, now)
	if err != nil {
		t.Fatalf("Parse(next week) returned error: %v", err)
	}
	if d := got.Sub(now); d <= 24*time.Hour || d > 8*24*time.Hour {
		t.Fatalf("next week = %s, %s after now", got, d)
	}

	if _, err := p.Parse("xxxxxxxx", tokyo, now); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch for garbage, got %v", err)
	}
}
