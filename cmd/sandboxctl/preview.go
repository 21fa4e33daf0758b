package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <port>",
		Short: "Resolve a preview link for a workspace port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", args[0], err)
			}

			h, closeAll, err := openHandle()
			if err != nil {
				return err
			}
			defer closeAll()

			if err := h.EnsureReady(context.Background()); err != nil {
				return err
			}
			link := h.GetPreviewLink(context.Background(), port)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", link.URL, link.Token)
			return nil
		},
	}
	return cmd
}

func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Tear down the remote workspace and reset local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closeAll, err := openHandle()
			if err != nil {
				return err
			}
			defer closeAll()

			h.Cleanup(context.Background())
			fmt.Fprintln(cmd.OutOrStdout(), "workspace cleaned up")
			return nil
		},
	}
	return cmd
}
