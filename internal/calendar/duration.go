package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	isoduration "github.com/sosodev/duration"
)

// ErrInvalidDuration is returned for negative or malformed durations.
var ErrInvalidDuration = errors.New("invalid duration")

// Duration is a non-negative span encoded as an ISO-8601 duration.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// ISO formats d as PnDTnHnMnS, omitting zero components.
func (d Duration) ISO() string {
	v := time.Duration(d)
	if v == 0 {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteString("P")
	if days := v / (24 * time.Hour); days > 0 {
		fmt.Fprintf(&b, "%dD", days)
		v -= days * 24 * time.Hour
	}
	if v == 0 {
		return b.String()
	}
	b.WriteString("T")
	if h := v / time.Hour; h > 0 {
		fmt.Fprintf(&b, "%dH", h)
		v -= h * time.Hour
	}
	if m := v / time.Minute; m > 0 {
		fmt.Fprintf(&b, "%dM", m)
		v -= m * time.Minute
	}
	if v > 0 {
		b.WriteString(strconv.FormatFloat(v.Seconds(), 'f', -1, 64))
		b.WriteString("S")
	}
	return b.String()
}

// ParseISODuration parses the week, day and time parts of an ISO-8601
// duration. Years and months are rejected because their length is not fixed.
func ParseISODuration(s string) (Duration, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	invalid := fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	if norm == "" || norm == "P" || strings.HasSuffix(norm, "T") {
		return 0, invalid
	}
	if last := norm[len(norm)-1]; last < 'A' || last > 'Z' {
		return 0, invalid
	}
	d, err := isoduration.Parse(norm)
	if err != nil || d.Negative || d.Years != 0 || d.Months != 0 {
		return 0, invalid
	}
	ns := d.Weeks*float64(7*24*time.Hour) +
		d.Days*float64(24*time.Hour) +
		d.Hours*float64(time.Hour) +
		d.Minutes*float64(time.Minute) +
		d.Seconds*float64(time.Second)
	if ns < 0 || ns >= math.MaxInt64 {
		return 0, invalid
	}
	return Duration(math.Round(ns)), nil
}

// MarshalJSON encodes the ISO form.
func (d Duration) MarshalJSON() ([]byte, error) {
	if d < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDuration, d)
	}
	return json.Marshal(d.ISO())
}

// UnmarshalJSON accepts the ISO form or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := ParseISODuration(s)
		if err != nil {
			return err
		}
		*d = v
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, data)
	}
	if secs < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, data)
	}
	*d = Duration(math.Round(secs * float64(time.Second)))
	return nil
}
