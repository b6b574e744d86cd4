package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Repeats records how often an event recurs. The value is stored only; no
// occurrences are ever expanded from it.
type Repeats int

const (
	Unique Repeats = iota
	Hourly
	Daily
	Weekly
	Monthly
	Yearly
)

var repeatsNames = [...]string{"UNIQUE", "HOURLY", "DAILY", "WEEKLY", "MONTHLY", "YEARLY"}

func (r Repeats) String() string {
	if r < Unique || r > Yearly {
		return fmt.Sprintf("Repeats(%d)", int(r))
	}
	return repeatsNames[r]
}

// ParseRepeats accepts a symbolic name, optionally prefixed with "Repeats.".
func ParseRepeats(s string) (Repeats, error) {
	name := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "Repeats."))
	for i, n := range repeatsNames {
		if n == name {
			return Repeats(i), nil
		}
	}
	return Unique, fmt.Errorf("unknown repeats value %q", s)
}

// MarshalJSON encodes the symbolic name.
func (r Repeats) MarshalJSON() ([]byte, error) {
	if r < Unique || r > Yearly {
		return nil, fmt.Errorf("invalid repeats value %d", int(r))
	}
	return json.Marshal(repeatsNames[r])
}

// UnmarshalJSON accepts the symbolic name or the ordinal.
func (r *Repeats) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		v, err := ParseRepeats(name)
		if err != nil {
			return err
		}
		*r = v
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid repeats value %s", data)
	}
	if Repeats(n) < Unique || Repeats(n) > Yearly {
		return fmt.Errorf("invalid repeats value %d", n)
	}
	*r = Repeats(n)
	return nil
}
