// Package tz maps loose timezone names such as "london" onto canonical
// identifiers from the timezone database.
package tz

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when no canonical identifier matches a name.
var ErrNotFound = errors.New("timezone not found")

// Source enumerates canonical timezone identifiers.
type Source interface {
	Zones() ([]string, error)
}

// StaticSource serves a fixed list of identifiers.
type StaticSource []string

// Zones implements Source.
func (s StaticSource) Zones() ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// Resolver resolves loose names against a Source. The zone list is read once.
type Resolver struct {
	source Source

	once  sync.Once
	zones []string
	err   error
}

// NewResolver returns a resolver backed by source. A nil source means the
// system timezone database.
func NewResolver(source Source) *Resolver {
	if source == nil {
		source = SystemSource{}
	}
	return &Resolver{source: source}
}

func (r *Resolver) load() ([]string, error) {
	r.once.Do(func() {
		zones, err := r.source.Zones()
		if err != nil {
			r.err = fmt.Errorf("tz: list zones: %w", err)
			return
		}
		r.zones = rank(zones)
	})
	return r.zones, r.err
}

// rank orders identifiers so that region-qualified names come before bare
// legacy aliases, then lexicographically. Resolve returns the first hit in
// this order.
func rank(zones []string) []string {
	out := make([]string, 0, len(zones))
	seen := make(map[string]bool, len(zones))
	for _, z := range zones {
		if z == "" || seen[z] {
			continue
		}
		seen[z] = true
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool {
		qi, qj := strings.Contains(out[i], "/"), strings.Contains(out[j], "/")
		if qi != qj {
			return qi
		}
		return out[i] < out[j]
	})
	return out
}

// Zones returns every known identifier in lexicographic order.
func (r *Resolver) Zones() ([]string, error) {
	zones, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(zones))
	copy(out, zones)
	sort.Strings(out)
	return out, nil
}

// Resolve returns the canonical identifier for name. A name containing "/"
// must equal a full identifier; any other name must equal the final path
// segment of one. Both comparisons ignore case.
func (r *Resolver) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrNotFound)
	}
	zones, err := r.load()
	if err != nil {
		return "", err
	}
	qualified := strings.Contains(name, "/")
	for _, z := range zones {
		candidate := z
		if !qualified {
			candidate = z[strings.LastIndex(z, "/")+1:]
		}
		if strings.EqualFold(candidate, name) {
			return z, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Location resolves name and loads the matching location.
func (r *Resolver) Location(name string) (*time.Location, string, error) {
	canonical, err := r.Resolve(name)
	if err != nil {
		return nil, "", err
	}
	loc, err := time.LoadLocation(canonical)
	if err != nil {
		return nil, "", fmt.Errorf("tz: load %s: %w", canonical, err)
	}
	return loc, canonical, nil
}

// Search lists identifiers containing substr, ignoring case. An empty substr
// lists everything.
func (r *Resolver) Search(substr string) ([]string, error) {
	zones, err := r.Zones()
	if err != nil {
		return nil, err
	}
	if substr == "" {
		return zones, nil
	}
	needle := strings.ToLower(substr)
	var out []string
	for _, z := range zones {
		if strings.Contains(strings.ToLower(z), needle) {
			out = append(out, z)
		}
	}
	return out, nil
}

// LocalName reports the canonical name of the process timezone, or "UTC" when
// it cannot be determined.
func LocalName() string {
	if v := strings.TrimPrefix(os.Getenv("TZ"), ":"); v != "" {
		if _, err := time.LoadLocation(v); err == nil && !filepath.IsAbs(v) {
			return v
		}
	}
	if target, err := os.Readlink("/etc/localtime"); err == nil {
		if i := strings.Index(target, "zoneinfo/"); i >= 0 {
			name := target[i+len("zoneinfo/"):]
			if _, err := time.LoadLocation(name); err == nil {
				return name
			}
		}
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}
