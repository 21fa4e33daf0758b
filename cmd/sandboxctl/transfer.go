package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func uploadCmd() *cobra.Command {
	var localFile string

	cmd := &cobra.Command{
		Use:   "upload <host-path>",
		Short: "Upload a local file to the mapped remote path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(localFile)
			if err != nil {
				return err
			}

			h, closeAll, err := openHandle()
			if err != nil {
				return err
			}
			defer closeAll()

			if !h.UploadFile(context.Background(), args[0], content) {
				fmt.Fprintln(cmd.ErrOrStderr(), "upload failed")
				return errExit
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&localFile, "src", "", "local file to read (required)")
	_ = cmd.MarkFlagRequired("src")
	return cmd
}

func downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <remote-path>",
		Short: "Download a remote file's contents to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, closeAll, err := openHandle()
			if err != nil {
				return err
			}
			defer closeAll()

			content := h.DownloadFile(context.Background(), args[0])
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}
	return cmd
}
