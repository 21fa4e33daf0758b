package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/sandboxcore/internal/audit"
)

// historyCmd prints the most recent exec audit log entries for this
// state directory, newest first.
func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed commands from the local audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := audit.Open(filepath.Join(stateDir, "audit.db"))
			if err != nil {
				return err
			}
			defer log.Close()

			entries, err := log.Recent(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\texit=%d\t%dms\t%s\t%s\n",
					e.RecordedAt.Format("2006-01-02T15:04:05"), e.ExitCode, e.DurationMS, e.Workdir, e.Command)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}
