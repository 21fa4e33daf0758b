package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func applyPatchCmd() *cobra.Command {
	var patchFile string

	cmd := &cobra.Command{
		Use:   "apply-patch",
		Short: "Apply a patch file to the remote workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			var patchText string
			if patchFile != "" {
				b, err := os.ReadFile(patchFile)
				if err != nil {
					return err
				}
				patchText = string(b)
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				patchText = string(b)
			}

			h, closeAll, err := openHandle()
			if err != nil {
				return err
			}
			defer closeAll()

			result := h.ApplyPatch(context.Background(), patchText)
			fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
			fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
			if result.ExitCode != 0 {
				return errExit
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&patchFile, "file", "f", "", "patch file path (default: read from stdin)")
	return cmd
}
