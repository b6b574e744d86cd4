package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/bobuk/yewcal/internal/dates"
	"github.com/bobuk/yewcal/internal/tz"
)

// rootOptions carries everything the commands take from the process, so
// tests can substitute them.
type rootOptions struct {
	home      string
	now       func() time.Time
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	parser    dates.Parser
	zones     tz.Source
	localZone string
	// googleOptions are appended when the Google service is built.
	googleOptions []option.ClientOption
}

func defaultRootOptions() rootOptions {
	home, _ := os.UserHomeDir()
	return rootOptions{
		home:      home,
		now:       time.Now,
		in:        os.Stdin,
		out:       os.Stdout,
		errOut:    os.Stderr,
		parser:    dates.NaturalParser{},
		zones:     tz.SystemSource{},
		localZone: tz.LocalName(),
	}
}

func newRootCmd(opts rootOptions) *cobra.Command {
	a := &app{opts: opts}
	cmd := &cobra.Command{
		Use:           "yc",
		Short:         "A personal command-line calendar",
		Long:          `yc keeps your events in a local file, lists them, sends reminders and imports events from other calendars.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	cmd.SetIn(opts.in)
	cmd.SetOut(opts.out)
	cmd.SetErr(opts.errOut)

	cmd.PersistentFlags().StringVar(&a.user, "user", "", "user name (default is the login name)")
	cmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "debug logging")

	cmd.AddCommand(
		newCreateCmd(a),
		newEditCmd(a),
		newDescribeCmd(a),
		newDeleteCmd(a),
		newListCmd(a, "today", "Show today's events"),
		newListCmd(a, "tomorrow", "Show tomorrow's events"),
		newListCmd(a, "future", "Show all future events"),
		newListCmd(a, "all", "List all events, past and future"),
		newTZCmd(a),
		newCalCmd(a),
		newCheckCmd(a),
		newNotifyTodayCmd(a),
		newNotifySoonCmd(a),
		newPushEventsCmd(a),
		newPullEventsCmd(a),
		newPullGoogleEventsCmd(a),
		newPullCalDAVEventsCmd(a),
		newPullICSEventsCmd(a),
		newDesyncCmd(a),
		newInfoCmd(a),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultRootOptions()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
