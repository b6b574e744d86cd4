// Package calendar holds the event model, the JSON-backed event store and the
// lookup and filtering rules used by every command.
package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entry is one calendar event as persisted in the events file.
type Entry struct {
	UID         string         `json:"uid"`
	User        string         `json:"user"`
	Dt          time.Time      `json:"dt"`
	Created     time.Time      `json:"created"`
	Updated     time.Time      `json:"updated"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Duration    Duration       `json:"duration"`
	Timezone    string         `json:"timezone"`
	Repeats     Repeats        `json:"repeats"`
	ExternalID  string         `json:"external_id,omitempty"`
	Source      string         `json:"source,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// ShortID returns the first dash-delimited segment of the uid.
func (e *Entry) ShortID() string {
	id, _, _ := strings.Cut(e.UID, "-")
	return id
}

// End returns the instant the event finishes.
func (e *Entry) End() time.Time {
	return e.Dt.Add(e.Duration.Std())
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s: %s, %s", e.User, e.Dt.Format(time.RFC3339), e.Summary)
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Data != nil {
		c.Data = cloneData(e.Data)
	}
	return &c
}

func cloneData(data map[string]any) map[string]any {
	raw, err := json.Marshal(data)
	if err != nil {
		out := make(map[string]any, len(data))
		for k, v := range data {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// anchor re-expresses the entry instants in the entry's own timezone so that
// decoded entries display the same way as freshly created ones.
func (e *Entry) anchor() {
	if e.Timezone == "" {
		return
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return
	}
	e.Dt = e.Dt.In(loc)
	e.Created = e.Created.In(loc)
	e.Updated = e.Updated.In(loc)
}
