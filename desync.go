package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDesyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "desync <source>",
		Short: "Remove every event imported from a source",
		Long: `Remove every event imported from a source (for example googlecal,
caldav:work or ics:holidays) and forget that they were imported, so a later
pull offers them again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			a.printVerbosely(1, "🚀 Starting desynchronization of %s...\n", source)

			store, err := a.openStore()
			if err != nil {
				return err
			}
			removed, err := store.RemoveSource(source)
			if err != nil {
				return err
			}
			for _, e := range removed {
				a.printVerbosely(2, "  🗑 Removed event: %s\n", e)
			}

			db, err := a.openState(cmd.Context())
			if err != nil {
				return err
			}
			forgotten, err := db.ForgetImports(cmd.Context(), source)
			if err != nil {
				return fmt.Errorf("forget imports: %w", err)
			}
			a.logger.Debug("forgot imports", "source", source, "rows", forgotten)

			fmt.Fprintf(a.out, "✅ %d events from %s removed\n", len(removed), source)
			return nil
		},
	}
}
