package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobuk/yewcal/internal/importer"
)

// importFrom runs the interactive import loop over src.
func (a *app) importFrom(ctx context.Context, src importer.Source, limit int) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	db, err := a.openState(ctx)
	if err != nil {
		return err
	}
	a.printVerbosely(1, "📥 Pulling up to %d events from %s\n", limit, src.Name())

	im := &importer.Importer{
		Store:    store,
		Builder:  a.builder(),
		Confirm:  a.term,
		Recorder: db,
		Out:      a.out,
	}
	report, err := im.Run(ctx, src, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✅ %d imported, %d skipped, %d already present\n", report.Imported, report.Rejected, report.Skipped)
	return nil
}

func newPullGoogleEventsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pull-google-events",
		Short: "Interactively import upcoming events from Google Calendar",
		Long: `Interactively import upcoming events from Google Calendar.
Requires client_id and client_secret in the [google] section of the preferences.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max") {
				limit = a.prefs.Google.MaxResults
			}
			src, err := a.googleSource(cmd.Context())
			if err != nil {
				return err
			}
			return a.importFrom(cmd.Context(), src, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "max", 10, "maximum number of events to offer (default from max_results)")
	return cmd
}

func newPullCalDAVEventsCmd(a *app) *cobra.Command {
	var (
		server string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "pull-caldav-events",
		Short: "Interactively import upcoming events from a CalDAV server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.caldavSource(server)
			if err != nil {
				return err
			}
			return a.importFrom(cmd.Context(), src, limit)
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "name of the [caldav.<name>] server to read")
	cmd.Flags().IntVar(&limit, "max", 10, "maximum number of events to offer")
	return cmd
}

func newPullICSEventsCmd(a *app) *cobra.Command {
	var (
		feed  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "pull-ics-events",
		Short: "Interactively import upcoming events from an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.icsSource(feed)
			if err != nil {
				return err
			}
			return a.importFrom(cmd.Context(), src, limit)
		},
	}
	cmd.Flags().StringVar(&feed, "feed", "", "name of the [ics.<name>] feed to read")
	cmd.Flags().IntVar(&limit, "max", 10, "maximum number of events to offer")
	return cmd
}
