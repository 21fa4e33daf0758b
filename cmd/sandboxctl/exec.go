package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/sandboxcore/internal/sandbox"
)

func execCmd() *cobra.Command {
	var workdir string
	var timeoutMs int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Run a command in the remote workspace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closeAll, err := openHandle()
			if err != nil {
				return err
			}
			defer closeAll()

			start := time.Now()
			result := h.Exec(context.Background(), sandbox.ExecInput{
				Cmd:       args,
				Workdir:   workdir,
				TimeoutMs: timeoutMs,
			})

			if jsonOut {
				fmt.Fprintln(cmd.OutOrStdout(), sandbox.EncodeEnvelope(result, time.Since(start).Seconds()))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
				fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
			}

			if result.ExitCode != 0 {
				return errExit
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", "", "remote working directory (host-shaped path)")
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "command timeout in milliseconds")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the tool-call output envelope instead of raw stdout/stderr")
	return cmd
}
