package importer

import (
	"strings"

	"github.com/teambition/rrule-go"

	"github.com/bobuk/yewcal/internal/calendar"
)

// RepeatsFromRRule maps the frequency of an RFC 5545 recurrence rule onto
// Repeats. Only the frequency is kept; rules finer than hourly, and rules that
// do not parse, become Unique.
func RepeatsFromRRule(rule string) calendar.Repeats {
	rule = strings.TrimSpace(rule)
	if len(rule) >= 6 && strings.EqualFold(rule[:6], "RRULE:") {
		rule = rule[6:]
	}
	if rule == "" {
		return calendar.Unique
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return calendar.Unique
	}
	switch opt.Freq {
	case rrule.YEARLY:
		return calendar.Yearly
	case rrule.MONTHLY:
		return calendar.Monthly
	case rrule.WEEKLY:
		return calendar.Weekly
	case rrule.DAILY:
		return calendar.Daily
	case rrule.HOURLY:
		return calendar.Hourly
	}
	return calendar.Unique
}

// RepeatsFromRecurrence picks the first RRULE line out of a list of
// recurrence lines, as returned by providers that also list EXDATE and RDATE.
func RepeatsFromRecurrence(lines []string) calendar.Repeats {
	for _, l := range lines {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(l)), "RRULE:") {
			return RepeatsFromRRule(l)
		}
	}
	return calendar.Unique
}
