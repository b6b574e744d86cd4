package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobuk/yewcal/internal/calendar"
	"github.com/bobuk/yewcal/internal/dates"
	"github.com/bobuk/yewcal/internal/render"
)

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [name]",
		Short: "Edit a calendar event",
		Long:  `Edit a calendar event chosen by uid, short id or summary.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, e, err := a.selectEvent(firstArg(args))
			if err != nil {
				return err
			}
			if err := a.editEventInteractive(e); err != nil {
				return err
			}
			stored, _, err := store.Upsert(e)
			if err != nil {
				return err
			}
			return render.Describe(a.out, stored)
		},
	}
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [name]",
		Short: "Show detail about a calendar event",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := a.selectEvent(firstArg(args))
			if err != nil {
				return err
			}
			return render.Describe(a.out, e)
		},
	}
}

// selectEvent loads the store and picks one entry, asking on the terminal
// when several share a summary.
func (a *app) selectEvent(token string) (*calendar.Store, *calendar.Entry, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	e, err := calendar.Select(store.Sorted(), token, a.term)
	if err != nil {
		return nil, nil, err
	}
	return store, e, nil
}

// editEventInteractive asks for each field, offering the current value as
// the default, and applies the answers to e. Nothing is saved.
func (a *app) editEventInteractive(e *calendar.Entry) error {
	summary, err := a.term.Prompt("Summary", e.Summary)
	if err != nil {
		return err
	}
	fields := []struct {
		label    string
		value    int
		min, max int
	}{
		{"Year", e.Dt.Year(), 1, 9999},
		{"Month", int(e.Dt.Month()), 1, 12},
		{"Day", e.Dt.Day(), 1, 31},
		{"Hour", e.Dt.Hour(), 0, 23},
		{"Minute", e.Dt.Minute(), 0, 59},
	}
	for i := range fields {
		f := &fields[i]
		n, err := a.term.PromptInt(f.label, f.value)
		if err != nil {
			return err
		}
		if n < f.min || n > f.max {
			return fmt.Errorf("%w: %s %d", dates.ErrInvalid, f.label, n)
		}
		f.value = n
	}
	zone, err := a.term.Prompt("Timezone", e.Timezone)
	if err != nil {
		return err
	}
	loc, canonical, err := a.resolver.Location(zone)
	if err != nil {
		return err
	}

	dt := time.Date(fields[0].value, time.Month(fields[1].value), fields[2].value,
		fields[3].value, fields[4].value, 0, 0, loc)
	if dt.Day() != fields[2].value {
		return fmt.Errorf("%w: %d-%02d-%02d", dates.ErrInvalid, fields[0].value, fields[1].value, fields[2].value)
	}
	e.Summary = summary
	e.Dt = dt
	e.Timezone = canonical
	return nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
