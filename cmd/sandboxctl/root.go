package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/sandboxcore/internal/audit"
	"github.com/nextlevelbuilder/sandboxcore/internal/lock"
	"github.com/nextlevelbuilder/sandboxcore/internal/sandbox"
	"github.com/nextlevelbuilder/sandboxcore/internal/telemetry"
)

var errExit = errors.New("exit")

var (
	tomlConfigPath string
	stateDir       string
	verbose        bool
)

// run executes the sandboxctl CLI with the given args, writing output to
// stdout and errors to stderr. Returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "sandboxctl",
		Short:         "sandboxctl — drive a remote sandbox workspace",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&tomlConfigPath, "config", "", "optional TOML overlay config file")
	root.PersistentFlags().StringVar(&stateDir, "state-dir", defaultStateDir(), "directory for the audit log and lock file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(execCmd())
	root.AddCommand(applyPatchCmd())
	root.AddCommand(uploadCmd())
	root.AddCommand(downloadCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(cleanupCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(versionCmd())

	return root
}

func defaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".sandboxctl")
	}
	return ".sandboxctl"
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openHandle wires a Handle with the audit/telemetry recorders and an
// instance lock. Callers must call the returned cleanup function.
func openHandle() (h *sandbox.Handle, closeAll func(), err error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("state dir: %w", err)
	}

	inst, err := lock.Acquire(filepath.Join(stateDir, "sandboxctl.lock"))
	if err != nil {
		return nil, nil, err
	}

	cfg, err := sandbox.LoadConfig(tomlConfigPath)
	if err != nil {
		inst.Release()
		return nil, nil, err
	}

	auditLog, err := audit.Open(filepath.Join(stateDir, "audit.db"))
	if err != nil {
		inst.Release()
		return nil, nil, err
	}

	client := sandbox.NewDaytonaClient(cfg)
	h = sandbox.New(cfg, client,
		sandbox.WithLogger(newLogger()),
		sandbox.WithAuditLog(auditLog),
		sandbox.WithMetrics(telemetry.NewRecorder()),
	)

	closeAll = func() {
		_ = auditLog.Close()
		inst.Release()
	}
	return h, closeAll, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "sandboxctl dev")
			return nil
		},
	}
}
