// Package dates turns free-form date strings into absolute, zone-aware
// instants and computes the day boundaries used by listings.
package dates

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/bobuk/yewcal/internal/tz"
)

var (
	// ErrInvalid is returned when a string cannot be turned into a datetime.
	ErrInvalid = errors.New("could not turn into datetime")
	// ErrNoMatch is returned by a Parser that does not recognise its input.
	ErrNoMatch = errors.New("no datetime match")
)

// Env carries the current instant and the default timezone. It is passed to
// every operation that needs "now" or a local day boundary.
type Env struct {
	Now      func() time.Time
	Location *time.Location
	Zone     string
}

// Current returns the current instant in the default location.
func (e Env) Current() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return now().In(e.loc())
}

func (e Env) loc() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// Midnight returns the start of the day containing t, in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today returns local midnight at the start of the current day.
func (e Env) Today() time.Time { return Midnight(e.Current()) }

// Tomorrow returns local midnight at the start of the next day.
func (e Env) Tomorrow() time.Time { return e.Today().AddDate(0, 0, 1) }

// DayAfterTomorrow returns local midnight two days from today.
func (e Env) DayAfterTomorrow() time.Time { return e.Today().AddDate(0, 0, 2) }

// maxShift caps Nowish at about two million years, past any stored entry.
const maxShift = 1 << 40

// Nowish returns the current instant shifted forward by minutes, truncated to
// whole seconds. Shifts too large for a time.Duration are applied in steps.
func (e Env) Nowish(minutes int) time.Time {
	const step = math.MaxInt64 / int64(time.Minute)
	m := max(min(int64(minutes), maxShift), -maxShift)
	t := e.Current()
	for m != 0 {
		n := max(min(m, step), -step)
		t = t.Add(time.Duration(n) * time.Minute)
		m -= n
	}
	return t.Truncate(time.Second)
}

// Parser parses free text. Naive input is interpreted in loc; relative input
// is measured from now. Unrecognised text yields ErrNoMatch.
type Parser interface {
	Parse(text string, loc *time.Location, now time.Time) (time.Time, error)
}

// NaturalParser understands ISO strings and phrases like "tomorrow" or
// "next week".
type NaturalParser struct{}

// Parse implements Parser.
func (NaturalParser) Parse(text string, loc *time.Location, now time.Time) (time.Time, error) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, ErrNoMatch
	}
	cfg := &dps.Configuration{
		CurrentTime:     now.In(loc),
		DefaultTimezone: loc,
	}
	dt, err := dps.Parse(cfg, text)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, ErrNoMatch
	}
	return dt.Time, nil
}

// Interpreter combines a Parser with timezone resolution.
type Interpreter struct {
	Parser   Parser
	Resolver *tz.Resolver
	Env      Env
}

// Interpret parses text for an event anchored to zone (the default zone when
// empty). It returns the instant, truncated to whole seconds and expressed in
// the resolved zone, along with the canonical zone name.
func (i *Interpreter) Interpret(text, zone string) (time.Time, string, error) {
	if zone == "" {
		zone = i.Env.Zone
	}
	loc, canonical, err := i.Resolver.Location(zone)
	if err != nil {
		return time.Time{}, "", err
	}
	parser := i.Parser
	if parser == nil {
		parser = NaturalParser{}
	}
	t, err := parser.Parse(text, loc, i.Env.Current())
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			return time.Time{}, "", fmt.Errorf("%w: %s", ErrInvalid, text)
		}
		return time.Time{}, "", fmt.Errorf("%w: %s: %v", ErrInvalid, text, err)
	}
	return t.Truncate(time.Second).In(loc), canonical, nil
}

// Check interprets text in the default zone.
func (i *Interpreter) Check(text string) (time.Time, error) {
	t, _, err := i.Interpret(text, "")
	return t, err
}
