package calendar

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrEventNotFound is returned when no entry matches a token.
	ErrEventNotFound = errors.New("event not found")
	// ErrSelectionOutOfRange is returned when a chooser picks a missing candidate.
	ErrSelectionOutOfRange = errors.New("selection out of range")
	// ErrAmbiguous is returned when several entries match and no chooser is set.
	ErrAmbiguous = errors.New("ambiguous event name")
)

var (
	uidPattern      = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	shortUIDPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}$`)
)

// IsUID reports whether s has the shape of a full uid.
func IsUID(s string) bool { return uidPattern.MatchString(s) }

// IsShortUID reports whether s has the shape of a short id.
func IsShortUID(s string) bool { return shortUIDPattern.MatchString(s) }

// Chooser picks one of several candidates, returning its index.
type Chooser interface {
	Choose(candidates []*Entry) (int, error)
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(candidates []*Entry) (int, error)

// Choose implements Chooser.
func (f ChooserFunc) Choose(candidates []*Entry) (int, error) { return f(candidates) }

// FirstChooser always picks the first candidate.
var FirstChooser = ChooserFunc(func([]*Entry) (int, error) { return 0, nil })

// RejectChooser refuses to pick.
var RejectChooser = ChooserFunc(func([]*Entry) (int, error) { return -1, ErrAmbiguous })

// Select resolves token to a single entry. A full uid matches exactly, a short
// id matches the first uid segment, anything else matches the summary. When
// several summaries match, chooser decides.
func Select(entries []*Entry, token string, chooser Chooser) (*Entry, error) {
	switch {
	case IsUID(token):
		for _, e := range entries {
			if e.UID == token {
				return e, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, token)
	case IsShortUID(token):
		for _, e := range entries {
			if e.ShortID() == token {
				return e, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, token)
	}

	candidates := entries
	if token != "" {
		candidates = Filter(entries, func(e *Entry) bool { return e.Summary == token })
	}
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, token)
	case 1:
		return candidates[0], nil
	}
	if chooser == nil {
		return nil, fmt.Errorf("%w: %d events named %q", ErrAmbiguous, len(candidates), token)
	}
	i, err := chooser.Choose(candidates)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(candidates) {
		return nil, fmt.Errorf("%w: %d not in 0..%d", ErrSelectionOutOfRange, i, len(candidates)-1)
	}
	return candidates[i], nil
}
