package main

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, &stdout, &stderr)
	assert.Equal(t, code, 0)
	assert.Assert(t, strings.Contains(stdout.String(), "sandboxctl"))
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"frobnicate"}, &stdout, &stderr)
	assert.Equal(t, code, 1)
}

// TestRun_ExecMissingAPIKey covers openHandle's config-error path: with no
// DAYTONA_API_KEY set, exec fails fast without ever dialing out.
func TestRun_ExecMissingAPIKey(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := run([]string{"exec", "--", "echo", "hi"}, &stdout, &stderr)
	assert.Equal(t, code, 1)
}

func TestRun_ExecRequiresArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"exec"}, &stdout, &stderr)
	assert.Equal(t, code, 1)
}

func TestDefaultStateDir(t *testing.T) {
	got := defaultStateDir()
	assert.Assert(t, strings.Contains(got, ".sandboxctl"))
}

func TestNewLogger_RespectsVerbose(t *testing.T) {
	orig := verbose
	defer func() { verbose = orig }()

	verbose = false
	l := newLogger()
	assert.Assert(t, !l.Enabled(nil, -4)) // slog.LevelDebug

	verbose = true
	l = newLogger()
	assert.Assert(t, l.Enabled(nil, -4))
}
