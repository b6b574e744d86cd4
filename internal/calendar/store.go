package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrCorruptStore is returned when the events file cannot be decoded.
var ErrCorruptStore = errors.New("corrupt event store")

// Load reads every entry from path. A missing or empty file yields no entries.
func Load(path string) ([]*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*Entry{}, nil
		}
		return nil, fmt.Errorf("read events %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*Entry{}, nil
	}
	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}
	out := entries[:0]
	for _, e := range entries {
		if e == nil {
			continue
		}
		e.anchor()
		out = append(out, e)
	}
	return out, nil
}

// Save writes entries to path as one JSON array. The data goes to a temporary
// file in the same directory which then replaces path.
func Save(path string, entries []*Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if entries == nil {
		entries = []*Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write events: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync events: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close events: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod events: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Upsert updates the entry in entries sharing event's uid, or appends event
// when there is none, then saves the whole collection to path.
//
// A matched entry keeps its identity and position: only summary, description,
// duration and repeats are copied from event and updated is set to now. The
// returned slice must replace entries; stored is the entry now held in it.
func Upsert(path string, event *Entry, entries []*Entry, now time.Time) (out []*Entry, stored *Entry, created bool, err error) {
	for _, e := range entries {
		if e.UID == event.UID {
			stored = e
			break
		}
	}
	if stored != nil {
		stored.Summary = event.Summary
		stored.Description = event.Description
		stored.Duration = event.Duration
		stored.Repeats = event.Repeats
		stored.Updated = now.In(stored.Dt.Location()).Truncate(time.Second)
		out = entries
	} else {
		stored = event
		created = true
		out = append(entries, event)
	}
	if err := Save(path, out); err != nil {
		return out, stored, created, err
	}
	return out, stored, created, nil
}

// Store is the in-memory collection loaded from an events file.
type Store struct {
	path    string
	now     func() time.Time
	entries []*Entry
}

// Open loads the store at path. now stamps updates; nil means time.Now.
func Open(path string, now func() time.Time) (*Store, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Store{path: path, now: now, entries: entries}, nil
}

// Path returns the events file location.
func (s *Store) Path() string { return s.path }

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns the entries in insertion order.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Sorted returns the entries ordered by start time.
func (s *Store) Sorted() []*Entry {
	return SortByStart(s.entries)
}

// Upsert applies Upsert to the store and persists it. When the save fails
// the store is left as it was.
func (s *Store) Upsert(event *Entry) (*Entry, bool, error) {
	var before *Entry
	for _, e := range s.entries {
		if e.UID == event.UID {
			before = e.Clone()
			break
		}
	}
	out, stored, created, err := Upsert(s.path, event, s.entries, s.now())
	if err != nil {
		if before != nil {
			*stored = *before
		}
		return nil, false, err
	}
	s.entries = out
	return stored, created, nil
}

// Save persists the current collection.
func (s *Store) Save() error {
	return Save(s.path, s.entries)
}

// Remove deletes the entry with uid and persists the collection.
func (s *Store) Remove(uid string) (*Entry, error) {
	for i, e := range s.entries {
		if e.UID == uid {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return e, s.Save()
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEventNotFound, uid)
}

// RemoveSource deletes every entry imported from source and persists the
// collection when anything was removed.
func (s *Store) RemoveSource(source string) ([]*Entry, error) {
	var removed []*Entry
	kept := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if source != "" && e.Source == source {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	s.entries = kept
	return removed, s.Save()
}

// FindExternal returns the entry imported with externalID, if any.
func (s *Store) FindExternal(externalID string) *Entry {
	if externalID == "" {
		return nil
	}
	for _, e := range s.entries {
		if e.ExternalID == externalID {
			return e
		}
	}
	return nil
}

// SortByStart returns a copy of entries ordered by dt. Entries starting at
// the same instant keep their relative order.
func SortByStart(entries []*Entry) []*Entry {
	out := make([]*Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Dt.Before(out[j].Dt)
	})
	return out
}
