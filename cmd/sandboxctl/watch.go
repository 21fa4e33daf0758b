package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchCmd implements a directory-watch mode: any *.patch file written into
// the watched directory is applied to the remote workspace as soon as the
// write settles.
func watchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory for *.patch files and apply them as they appear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch: %s: %w", dir, err)
			}

			h, closeAll, err := openHandle()
			if err != nil {
				return err
			}
			defer closeAll()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s for *.patch files\n", dir)

			pending := map[string]*time.Timer{}
			apply := func(path string) {
				b, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "read %s: %v\n", path, err)
					return
				}
				result := h.ApplyPatch(context.Background(), string(b))
				fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
				fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
				if result.ExitCode == 0 {
					if err := os.Remove(path); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "remove %s: %v\n", path, err)
					}
				}
			}

			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !strings.HasSuffix(ev.Name, ".patch") {
						continue
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					if t, exists := pending[ev.Name]; exists {
						t.Stop()
					}
					path := ev.Name
					pending[path] = time.AfterFunc(debounce, func() { apply(path) })
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "settle time before applying a changed patch file")
	return cmd
}
