package calendar

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_MissingAndEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entries, err := Load(filepath.Join(dir, "nope.json"))
	if err != nil {
		t.Fatalf("Load of missing file returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err = Load(empty)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty result for blank file, got %d entries, err %v", len(entries), err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	t.Parallel()

	for name, content := range map[string]string{
		"truncated":    `[{"uid": "abc"`,
		"not an array": `{"uid": "abc"}`,
		"bad duration": `[{"uid":"a","dt":"2024-03-14T09:00:00Z","created":"2024-03-14T09:00:00Z","updated":"2024-03-14T09:00:00Z","duration":"-PT1H","repeats":"UNIQUE"}]`,
		"bad repeats":  `[{"uid":"a","dt":"2024-03-14T09:00:00Z","created":"2024-03-14T09:00:00Z","updated":"2024-03-14T09:00:00Z","duration":"PT1H","repeats":"FORTNIGHTLY"}]`,
	} {
		name, content := name, content
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "events.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(path); !errors.Is(err, ErrCorruptStore) {
				t.Fatalf("expected ErrCorruptStore, got %v", err)
			}
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	now := referenceNow(t)
	b := testBuilder(t, now)
	full := mustBuild(t, b, NewEntry{
		Summary:     "dentist",
		Description: "bring the forms",
		When:        "2024-04-02T15:30:00",
		Timezone:    "tokyo",
		Duration:    span(90 * time.Minute),
		Repeats:     Monthly,
		ExternalID:  "ext-1",
		Source:      "googlecal",
		Data:        map[string]any{"conference": map[string]any{"uri": "https://meet.example/abc"}, "n": float64(3)},
	})
	bare := mustBuild(t, b, NewEntry{Summary: "lunch", When: "tomorrow"})
	entries := []*Entry{full, bare}

	path := filepath.Join(t.TempDir(), "nested", "dir", "events.json")
	if err := Save(path, entries); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(loaded) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(loaded))
	}
	for i := range entries {
		assertSameEntry(t, entries[i], loaded[i])
	}
	if loaded[0].Dt.Location().String() != "Asia/Tokyo" {
		t.Fatalf("expected loaded dt anchored to Asia/Tokyo, got %s", loaded[0].Dt.Location())
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".events.json.*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func assertSameEntry(t *testing.T, want, got *Entry) {
	t.Helper()
	if got.UID != want.UID || got.User != want.User || got.Summary != want.Summary ||
		got.Description != want.Description || got.Duration != want.Duration ||
		got.Timezone != want.Timezone || got.Repeats != want.Repeats ||
		got.ExternalID != want.ExternalID || got.Source != want.Source {
		t.Fatalf("entry mismatch:\nwant %+v\ngot  %+v", want, got)
	}
	if !got.Dt.Equal(want.Dt) || !got.Created.Equal(want.Created) || !got.Updated.Equal(want.Updated) {
		t.Fatalf("instant mismatch:\nwant %s %s %s\ngot  %s %s %s", want.Dt, want.Created, want.Updated, got.Dt, got.Created, got.Updated)
	}
	_, wantOff := want.Dt.Zone()
	if _, gotOff := got.Dt.Zone(); gotOff != wantOff {
		t.Fatalf("offset mismatch for %s: want %d got %d", want.UID, wantOff, gotOff)
	}
	if !reflect.DeepEqual(got.Data, want.Data) {
		t.Fatalf("data mismatch: want %#v got %#v", want.Data, got.Data)
	}
}

func TestUpsert_AppendsNewEntry(t *testing.T) {
	t.Parallel()

	now := referenceNow(t)
	b := testBuilder(t, now)
	entries := fourEvents(t, b)
	path := filepath.Join(t.TempDir(), "events.json")

	fresh := mustBuild(t, b, NewEntry{Summary: "upserted event", When: "next week"})
	out, stored, created, err := Upsert(path, fresh, entries, now)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if !created || stored != fresh {
		t.Fatalf("expected the new entry to be appended")
	}
	if len(out) != len(entries)+1 {
		t.Fatalf("expected %d entries, got %d", len(entries)+1, len(out))
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(loaded) != len(entries)+1 || loaded[len(loaded)-1].UID != fresh.UID {
		t.Fatalf("persisted collection does not end with the new entry")
	}
}

func TestUpsert_UpdatesStoredEntryInPlace(t *testing.T) {
	t.Parallel()

	now := referenceNow(t)
	b := testBuilder(t, now)
	entries := fourEvents(t, b)
	path := filepath.Join(t.TempDir(), "events.json")

	original := entries[2]
	originalDt := original.Dt
	originalCreated := original.Created

	change := original.Clone()
	change.Summary = "renamed"
	change.Description = "now with details"
	change.Duration = Duration(2 * time.Hour)
	change.Repeats = Weekly
	change.Dt = originalDt.Add(48 * time.Hour)
	change.User = "someone-else"
	change.Created = originalCreated.Add(-time.Hour)

	later := now.Add(10 * time.Minute)
	out, stored, created, err := Upsert(path, change, entries, later)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if created {
		t.Fatalf("expected an update, not an insert")
	}
	if stored != original || out[2] != original {
		t.Fatalf("stored entry lost its identity or position")
	}
	if len(out) != len(entries) {
		t.Fatalf("expected length %d, got %d", len(entries), len(out))
	}
	if original.Summary != "renamed" || original.Description != "now with details" ||
		original.Duration != Duration(2*time.Hour) || original.Repeats != Weekly {
		t.Fatalf("whitelisted fields not copied: %+v", original)
	}
	if !original.Dt.Equal(originalDt) || original.User != "tester" || !original.Created.Equal(originalCreated) {
		t.Fatalf("fields outside the whitelist changed: %+v", original)
	}
	if !original.Updated.Equal(later) {
		t.Fatalf("expected updated %s, got %s", later, original.Updated)
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	t.Parallel()

	now := referenceNow(t)
	b := testBuilder(t, now)
	entries := fourEvents(t, b)
	path := filepath.Join(t.TempDir(), "events.json")

	snapshot := make([]*Entry, len(entries))
	for i, e := range entries {
		snapshot[i] = e.Clone()
	}

	var err error
	for i := 0; i < 2; i++ {
		entries, _, _, err = Upsert(path, entries[0].Clone(), entries, now.Add(time.Duration(i+1)*time.Minute))
		if err != nil {
			t.Fatalf("Upsert returned error: %v", err)
		}
	}
	if len(entries) != len(snapshot) {
		t.Fatalf("expected length %d, got %d", len(snapshot), len(entries))
	}
	for i := range entries {
		want := snapshot[i].Clone()
		want.Updated = entries[i].Updated
		assertSameEntry(t, want, entries[i])
	}
}

func TestStore_OpenUpsertFindExternal(t *testing.T) {
	t.Parallel()

	now := referenceNow(t)
	b := testBuilder(t, now)
	path := filepath.Join(t.TempDir(), "events.json")
	if err := Save(path, fourEvents(t, b)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	s, err := Open(path, func() time.Time { return now })
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", s.Len())
	}
	if e := s.FindExternal("my_external_id"); e == nil || e.Summary != "event1" {
		t.Fatalf("FindExternal did not find event1: %v", e)
	}
	if e := s.FindExternal(""); e != nil {
		t.Fatalf("empty external id must not match, got %v", e)
	}

	sorted := s.Sorted()
	want := []string{"event4", "event1", "event3", "event2"}
	for i, e := range sorted {
		if e.Summary != want[i] {
			t.Fatalf("sorted[%d] = %s, want %s", i, e.Summary, want[i])
		}
	}
	if s.Entries()[0].Summary != "event1" {
		t.Fatalf("Entries must keep insertion order")
	}

	if _, created, err := s.Upsert(mustBuild(t, b, NewEntry{Summary: "extra", When: "today"})); err != nil || !created {
		t.Fatalf("Upsert: created=%v err=%v", created, err)
	}
	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 5 {
		t.Fatalf("expected 5 persisted entries, got %d", reopened.Len())
	}
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	now := referenceNow(t)
	b := testBuilder(t, now)
	path := filepath.Join(t.TempDir(), "events.json")
	events := fourEvents(t, b)
	if err := Save(path, events); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	removed, err := s.Remove(events[1].UID)
	if err != nil || removed.Summary != "event2" {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if _, err := s.Remove(events[1].UID); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}

	gone, err := s.RemoveSource("some_external_source")
	if err != nil || len(gone) != 1 || gone[0].Summary != "event1" {
		t.Fatalf("RemoveSource = %v, %v", gone, err)
	}
	if gone, err := s.RemoveSource(""); err != nil || gone != nil {
		t.Fatalf("empty source must remove nothing, got %v, %v", gone, err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var names []string
	for _, e := range reopened.Entries() {
		names = append(names, e.Summary)
	}
	if len(names) != 2 || names[0] != "event3" || names[1] != "event4" {
		t.Fatalf("unexpected persisted entries %v", names)
	}
}

func TestStore_UpsertKeepsStateWhenSaveFails(t *testing.T) {
	t.Parallel()

	now := referenceNow(t)
	b := testBuilder(t, now)
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "events.json")
	if err := Save(path, fourEvents(t, b)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	s, err := Open(path, func() time.Time { return now })
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	// A plain file where the directory was makes every save fail.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	extra := mustBuild(t, b, NewEntry{Summary: "extra", When: "today", ExternalID: "ext-1"})
	if _, _, err := s.Upsert(extra); err == nil {
		t.Fatalf("expected a save error")
	}
	if s.Len() != 4 || s.FindExternal("ext-1") != nil {
		t.Fatalf("failed insert is visible: %d entries", s.Len())
	}

	first := s.Entries()[0]
	change := first.Clone()
	change.Summary = "renamed"
	if _, _, err := s.Upsert(change); err == nil {
		t.Fatalf("expected a save error")
	}
	if first.Summary != "event1" {
		t.Fatalf("failed update is visible: %q", first.Summary)
	}
}
