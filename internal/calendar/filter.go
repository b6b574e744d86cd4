package calendar

import (
	"fmt"
	"time"

	"github.com/bobuk/yewcal/internal/dates"
)

// Predicate selects entries.
type Predicate func(*Entry) bool

// Filter returns the entries matching p, in their original order.
func Filter(entries []*Entry, p Predicate) []*Entry {
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if p == nil || p(e) {
			out = append(out, e)
		}
	}
	return out
}

// Between matches entries starting in [start, end).
func Between(start, end time.Time) Predicate {
	return func(e *Entry) bool {
		return !e.Dt.Before(start) && e.Dt.Before(end)
	}
}

// OnOrAfter matches entries starting at or after t.
func OnOrAfter(t time.Time) Predicate {
	return func(e *Entry) bool { return !e.Dt.Before(t) }
}

// All matches every entry.
func All() Predicate {
	return func(*Entry) bool { return true }
}

// Today matches entries starting between local midnight today and tomorrow.
func Today(env dates.Env) Predicate {
	return Between(env.Today(), env.Tomorrow())
}

// Tomorrow matches entries starting on the next local day.
func Tomorrow(env dates.Env) Predicate {
	return Between(env.Tomorrow(), env.DayAfterTomorrow())
}

// Future matches entries starting at or after local midnight today.
func Future(env dates.Env) Predicate {
	return OnOrAfter(env.Today())
}

// Impending matches entries starting within the next minutes.
func Impending(env dates.Env, minutes int) Predicate {
	return Between(env.Nowish(0), env.Nowish(minutes))
}

// ListFilter returns the predicate behind a listing command name.
func ListFilter(name string, env dates.Env) (Predicate, error) {
	switch name {
	case "today":
		return Today(env), nil
	case "tomorrow":
		return Tomorrow(env), nil
	case "future":
		return Future(env), nil
	case "all":
		return All(), nil
	}
	return nil, fmt.Errorf("unknown listing %q", name)
}
