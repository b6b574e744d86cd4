package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobuk/yewcal/internal/calendar"
	"github.com/bobuk/yewcal/internal/render"
)

type createOptions struct {
	timezone    string
	interactive bool
	duration    string
	description string
	repeats     string
}

func newCreateCmd(a *app) *cobra.Command {
	var o createOptions
	cmd := &cobra.Command{
		Use:   "create [summary] [dt]",
		Short: "Create a calendar event",
		Long: `Create a calendar event. Without a summary or a date the event is
edited interactively, starting from "my summary" at midnight tomorrow.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.createEvent(args, o)
		},
	}
	cmd.Flags().StringVarP(&o.timezone, "timezone", "t", "", "event timezone (default is the default timezone)")
	cmd.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "edit the event before saving it")
	cmd.Flags().StringVar(&o.duration, "duration", "", "duration, ISO 8601 (PT1H30M) or Go style (1h30m)")
	cmd.Flags().StringVar(&o.description, "description", "", "event description")
	cmd.Flags().StringVar(&o.repeats, "repeats", "", "UNIQUE, HOURLY, DAILY, WEEKLY, MONTHLY or YEARLY")
	return cmd
}

func (a *app) createEvent(args []string, o createOptions) error {
	p := calendar.NewEntry{
		Summary:     "my summary",
		Description: o.description,
		Timezone:    o.timezone,
	}
	interactive := o.interactive
	if len(args) > 0 {
		p.Summary = args[0]
	} else {
		interactive = true
	}
	if len(args) > 1 {
		p.When = args[1]
	} else {
		p.At = a.env.Tomorrow()
		interactive = true
	}
	if o.duration != "" {
		d, err := parseDuration(o.duration)
		if err != nil {
			return err
		}
		p.Duration = &d
	}
	if o.repeats != "" {
		r, err := calendar.ParseRepeats(o.repeats)
		if err != nil {
			return err
		}
		p.Repeats = r
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	e, err := a.builder().Build(p)
	if err != nil {
		return err
	}
	if interactive {
		if err := a.editEventInteractive(e); err != nil {
			return err
		}
	}
	stored, _, err := store.Upsert(e)
	if err != nil {
		return err
	}
	a.logger.Debug("created event", "uid", stored.UID)
	return render.Describe(a.out, stored)
}

// parseDuration accepts ISO 8601 durations and Go duration strings.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "P") {
		d, err := calendar.ParseISODuration(s)
		return d.Std(), err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", calendar.ErrInvalidDuration, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s", calendar.ErrInvalidDuration, s)
	}
	return d, nil
}
