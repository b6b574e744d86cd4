package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bobuk/yewcal/internal/calendar"
	"github.com/bobuk/yewcal/internal/render"
)

type listOptions struct {
	human    bool
	local    bool
	numbered bool
}

func newListCmd(a *app, name, short string) *cobra.Command {
	var o listOptions
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listEvents(name, o)
		},
	}
	cmd.Flags().BoolVarP(&o.human, "human", "H", false, "show times relative to now")
	cmd.Flags().BoolVarP(&o.local, "local", "l", true, "show times in the default timezone")
	cmd.Flags().BoolVarP(&o.numbered, "numbered", "n", false, "number the events instead of showing short ids")
	return cmd
}

func (a *app) listEvents(filter string, o listOptions) error {
	pred, err := calendar.ListFilter(filter, a.env)
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	events := calendar.Filter(store.Sorted(), pred)
	return render.Events(a.out, events, render.Options{
		Human:        o.human,
		Numbered:     o.numbered,
		UseLocalTime: o.local,
		Now:          a.env.Current(),
		Location:     a.env.Location,
		Zone:         a.env.Zone,
	})
}

func newTZCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tz [name]",
		Short: "List timezones, optionally only those containing name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zones, err := a.resolver.Search(firstArg(args))
			if err != nil {
				return err
			}
			for _, z := range zones {
				fmt.Fprintln(a.out, z)
			}
			return nil
		},
	}
}

func newCalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cal [months]",
		Short: "Show a calendar for the current and following months",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 1
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 1 {
					return fmt.Errorf("months must be a positive number, got %q", args[0])
				}
				n = v
			}
			return render.Months(a.out, a.env.Current(), n)
		},
	}
}
