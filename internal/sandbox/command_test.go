package sandbox

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

// TestPrepareCommand_NoWrapNeeded: alphanumeric/dash-only argv is never
// shell-wrapped.
func TestPrepareCommand_NoWrapNeeded(t *testing.T) {
	got := PrepareCommand([]string{"ls", "-la", "my-dir"}, "/home/daytona", "/home/daytona")
	assert.Equal(t, got, "cd /home/daytona && ls -la my-dir")
}

func TestPrepareCommand_SimpleRootedRun(t *testing.T) {
	got := PrepareCommand([]string{"echo", "hello"}, "/home/daytona", "/home/daytona")
	assert.Equal(t, got, "cd /home/daytona && /bin/sh -c 'echo hello'")
}

func TestPrepareCommand_RootsSimpleFilename(t *testing.T) {
	got := PrepareCommand([]string{"cat", "notes.txt"}, "/home/daytona", "/home/daytona")
	assert.Assert(t, strings.Contains(got, "/home/daytona/notes.txt"))
}

// TestPrepareCommand_Idempotent: re-submitting an already-wrapped inner
// command is a no-op.
func TestPrepareCommand_Idempotent(t *testing.T) {
	first := PrepareCommand([]string{"echo", "hi && bye"}, "/home/daytona", "/home/daytona")
	// Simulate a caller re-submitting the already-wrapped inner command.
	innerStart := strings.Index(first, "/bin/sh -c")
	already := first[innerStart:]
	second := PrepareCommand([]string{already}, "/home/daytona", "/home/daytona")
	assert.Assert(t, strings.HasSuffix(second, already))
}

func TestPrepareCommand_TimeoutRewrite(t *testing.T) {
	got := PrepareCommand([]string{"timeout", "2", "sleep", "10"}, "/home/daytona", "/home/daytona")
	assert.Assert(t, strings.Contains(got, "sleep 10 & pid=$!"))
	assert.Assert(t, strings.Contains(got, "sleep 2"))
	assert.Assert(t, strings.Contains(got, "kill $pid"))
}

// TestPrepareCommand_PythonDashCRewrite covers the python -c '<code>'
// targeted rewrite: it must fire instead of the generic shell-wrap, which
// would otherwise leave the literal python -c invocation unrewritten.
func TestPrepareCommand_PythonDashCRewrite(t *testing.T) {
	got := PrepareCommand([]string{"python", "-c", "'print(1)'"}, "/home/daytona", "/home/daytona")
	assert.Assert(t, strings.Contains(got, `python3 -c "print(1)"`))
}

func TestPrepareCommand_PythonDashCRewrite_EscapesDoubleQuotes(t *testing.T) {
	got := PrepareCommand([]string{"python", "-c", `'print("hi")'`}, "/home/daytona", "/home/daytona")
	assert.Assert(t, strings.Contains(got, `python3 -c "print(\"hi\")"`))
}

// TestPrepareCommand_SleepRewrite covers the bare "sleep N" targeted
// rewrite.
func TestPrepareCommand_SleepRewrite(t *testing.T) {
	got := PrepareCommand([]string{"sleep", "5"}, "/home/daytona", "/home/daytona")
	assert.Equal(t, got, "cd /home/daytona && /bin/sh -c 'sleep 5'")
}

// TestPrepareCommand_NohupRewrite covers the bare "nohup <cmd>" targeted
// rewrite, which must fire instead of the generic shell-wrap that
// needsShellWrap's bareReservedTokens check would otherwise apply.
func TestPrepareCommand_NohupRewrite(t *testing.T) {
	got := PrepareCommand([]string{"nohup", "python3", "server.py"}, "/home/daytona", "/home/daytona")
	assert.Equal(t, got, "cd /home/daytona && /bin/sh -c 'nohup python3 server.py'")
}

func TestNeedsShellWrap(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"ls -la", false},
		{"echo hi", true},
		{"cat a.txt | grep x", true},
		{"python app.py", false},
		{"find . -name x", true},
	}
	for _, tt := range tests {
		got := needsShellWrap(tt.cmd)
		assert.Equal(t, got, tt.want, tt.cmd)
	}
}

func TestLooksLikeFlaskLaunch(t *testing.T) {
	assert.Assert(t, looksLikeFlaskLaunch("flask run"))
	assert.Assert(t, looksLikeFlaskLaunch("python app.py"))
	assert.Assert(t, !looksLikeFlaskLaunch("python other.py"))
}

func TestTimeoutSeconds(t *testing.T) {
	tests := []struct {
		ms   int
		want int
	}{
		{0, 0},
		{-5, 0},
		{999, 0},
		{1000, 1},
		{2500, 2},
	}
	for _, tt := range tests {
		got := timeoutSeconds(tt.ms)
		assert.Equal(t, got, tt.want)
	}
}

func TestShellSingleQuote(t *testing.T) {
	got := shellSingleQuote(`it's a test`)
	assert.Equal(t, got, `'it'\''s a test'`)
}
