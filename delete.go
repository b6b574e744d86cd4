package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a calendar event",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, e, err := a.selectEvent(firstArg(args))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "📅 %s\n", e)
			if !yes {
				ok, err := a.term.Confirm("⚠️  Are you sure you want to delete this event?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.out, "❌ Event deletion cancelled")
					return nil
				}
			}
			if _, err := store.Remove(e.UID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "✅ Event %s deleted successfully\n", e.ShortID())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
