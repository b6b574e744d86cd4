package calendar

import (
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"

	"github.com/bobuk/yewcal/internal/dates"
)

// DefaultDuration applies when an entry is created without one.
const DefaultDuration = Duration(time.Hour)

// NewEntry describes an entry to construct. Exactly one of When and At
// should be set: When is free text for the interpreter, At an absolute instant.
type NewEntry struct {
	Summary     string
	Description string
	When        string
	At          time.Time
	Timezone    string
	// Duration is nil when unspecified, which means DefaultDuration.
	Duration   *time.Duration
	Repeats    Repeats
	ExternalID string
	Source     string
	Data       map[string]any
}

// Builder constructs entries.
type Builder struct {
	Dates *dates.Interpreter
	User  string
	NewID func() string
}

// Build constructs a new entry with a fresh uid and timestamps.
func (b *Builder) Build(p NewEntry) (*Entry, error) {
	duration := DefaultDuration
	if p.Duration != nil {
		if *p.Duration < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDuration, *p.Duration)
		}
		duration = Duration(*p.Duration)
	}

	var (
		dt   time.Time
		zone string
		err  error
	)
	if p.At.IsZero() {
		dt, zone, err = b.Dates.Interpret(p.When, p.Timezone)
		if err != nil {
			return nil, err
		}
	} else {
		name := p.Timezone
		if name == "" {
			name = b.Dates.Env.Zone
		}
		loc, canonical, err := b.Dates.Resolver.Location(name)
		if err != nil {
			return nil, err
		}
		dt, zone = p.At.Truncate(time.Second).In(loc), canonical
	}

	newID := b.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := b.Dates.Env.Current().In(dt.Location()).Truncate(time.Second)

	return &Entry{
		UID:         newID(),
		User:        b.user(),
		Dt:          dt,
		Created:     now,
		Updated:     now,
		Summary:     p.Summary,
		Description: p.Description,
		Duration:    duration,
		Timezone:    zone,
		Repeats:     p.Repeats,
		ExternalID:  p.ExternalID,
		Source:      p.Source,
		Data:        p.Data,
	}, nil
}

func (b *Builder) user() string {
	if b.User != "" {
		return b.User
	}
	return CurrentUser()
}

// CurrentUser returns the login name of the process owner.
func CurrentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "unknown"
}
