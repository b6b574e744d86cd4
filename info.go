package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <dt>",
		Short: "Show how a date string will be interpreted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.dates.Check(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, t.Format(time.RFC3339))
			return nil
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show information about settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line := func(k, v string) {
				if r := []rune(v); len(r) > 50 {
					v = string(r[:50])
				}
				fmt.Fprintf(a.out, "%-25s: %s\n", k, v)
			}
			line("USER", a.user)
			line("BASE_DATA_PATH", a.paths.Dir)
			line("EVENTS_DATA_PATH", a.paths.Events)
			line("SETTINGS_PATH", a.paths.Settings)
			line("PREFERENCES_PATH", a.prefsPath)
			for _, it := range a.settings.Items() {
				line(it.Key, it.Value)
			}
			line("CURRENT_TZ", a.env.Location.String())
			line("DEFAULT_TZ_NAME", a.env.Zone)
			line("CURRENT_TIME", a.env.Current().Format(time.RFC3339))

			db, err := a.openState(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := db.ImportStats(cmd.Context())
			if err != nil {
				return err
			}
			for _, st := range stats {
				line("IMPORTED "+st.Source, fmt.Sprintf("%d, last %s", st.Count, st.Last.Format(time.RFC3339)))
			}
			return nil
		},
	}
}
