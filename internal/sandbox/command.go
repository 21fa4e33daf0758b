package sandbox

import (
	"fmt"
	"regexp"
	"strings"
)

const shWrapPrefix = "/bin/sh -c"

var simpleFileCmdPattern = regexp.MustCompile(`^(rm|ls|cat|chmod|python|python3|head|tail|mkdir)\s+([^/\\\s-]+)(\s|$)`)

var bareReservedTokens = []string{"echo", "which", "find", "grep", "nohup"}

var shellOperators = []string{">", "|", "&&", ";", " & "}

var shellSpecialChars = []string{`"`, `'`, "`", "$"}

// targetedRewrite is one entry of the pattern → rewriter table for commands
// known to misbehave in a remote session (timeout, sleep, nohup, ...). Each
// rewriter receives the regexp submatches and the raw command string.
type targetedRewrite struct {
	name    string
	pattern *regexp.Regexp
	rewrite func(matches []string, s string) string
}

var targetedRewrites = []targetedRewrite{
	{
		name:    "python_dash_c",
		pattern: regexp.MustCompile(`^(?:python|python3)\s+-c\s+'(.*)'$`),
		rewrite: func(m []string, s string) string {
			code := strings.ReplaceAll(m[1], `"`, `\"`)
			return wrapShell(fmt.Sprintf(`python3 -c "%s"`, code))
		},
	},
	{
		name:    "timeout",
		pattern: regexp.MustCompile(`^timeout\s+(?:-t\s+)?(\d+)\s+(.+)$`),
		rewrite: func(m []string, s string) string {
			n, rest := m[1], m[2]
			inner := fmt.Sprintf(`%s & pid=$!; sleep %s; kill $pid 2>/dev/null || true; wait $pid 2>/dev/null || true`, rest, n)
			return wrapShell(inner)
		},
	},
	{
		name:    "sleep",
		pattern: regexp.MustCompile(`^sleep\s+(\d+)$`),
		rewrite: func(m []string, s string) string {
			return wrapShell(s)
		},
	},
	{
		name:    "nohup",
		pattern: regexp.MustCompile(`^nohup\s+(.+)$`),
		rewrite: func(m []string, s string) string {
			return wrapShell("nohup " + m[1])
		},
	},
}

// shellSingleQuote escapes s for embedding inside single quotes, closing
// and reopening the quote around each literal single quote: ' -> '\''.
func shellSingleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func wrapShell(s string) string {
	return shWrapPrefix + " " + shellSingleQuote(s)
}

func alreadyWrapped(s string) bool {
	return strings.HasPrefix(s, shWrapPrefix)
}

// rootSimpleFilename rewrites the bare filename argument of a small set
// of commands to an absolute workspace path.
func rootSimpleFilename(s, rootDir string) string {
	loc := simpleFileCmdPattern.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	// Group 2 is the filename token; loc[4:6] are its byte offsets.
	start, end := loc[4], loc[5]
	token := s[start:end]
	rooted := rootDir + "/" + token
	return s[:start] + rooted + s[end:]
}

func containsWordBoundary(s, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(s)
}

// needsShellWrap reports whether s needs an explicit /bin/sh -c wrapper
// to behave the same way remotely as it would in a local interactive shell.
func needsShellWrap(s string) bool {
	if alreadyWrapped(s) {
		return false
	}
	for _, op := range shellOperators {
		if strings.Contains(s, op) {
			return true
		}
	}
	for _, ch := range shellSpecialChars {
		if strings.Contains(s, ch) {
			return true
		}
	}
	for _, tok := range bareReservedTokens {
		if containsWordBoundary(s, tok) {
			return true
		}
	}
	if strings.HasPrefix(s, "python ") || strings.HasPrefix(s, "python3 ") {
		if strings.Contains(s, "-c") || strings.Contains(s, "-m") {
			return true
		}
	}
	return false
}

var flaskRunPattern = regexp.MustCompile(`\bflask\s+run\b`)
var appPyPattern = regexp.MustCompile(`\bapp\.py\b`)

// looksLikeFlaskLaunch detects "flask run" and bare "python app.py"
// invocations, which need a background-launch rewrite of their own.
func looksLikeFlaskLaunch(s string) bool {
	if flaskRunPattern.MatchString(s) {
		return true
	}
	return strings.HasPrefix(s, "python") && appPyPattern.MatchString(s)
}

// rewriteFlaskLaunch builds the backgrounded-launch-plus-banner form.
func rewriteFlaskLaunch(cmd []string, s string) string {
	lastArg := s
	if len(cmd) > 0 {
		lastArg = cmd[len(cmd)-1]
	}
	inner := fmt.Sprintf(`cd $(dirname %s); nohup %s > flask.log 2>&1 &; echo "Flask app started with PID: $!"`, lastArg, s)
	return wrapShell(inner)
}

// matchTargetedRewrite finds the first targetedRewrites entry whose
// pattern matches s, returning its submatches alongside it.
func matchTargetedRewrite(s string) ([]string, *targetedRewrite) {
	for i := range targetedRewrites {
		rw := &targetedRewrites[i]
		if m := rw.pattern.FindStringSubmatch(s); m != nil {
			return m, rw
		}
	}
	return nil, nil
}

// PrepareCommand lowers an argv slice to the shell string actually sent to
// the remote session: argv join, simple-filename rooting, targeted
// rewrites, the shell-wrap decision, and finally the
// "cd <remoteWorkdir> &&" prefix. Targeted rewrites are checked before the
// generic shell-wrap decision: several of them (python -c, nohup) match
// commands that needsShellWrap would otherwise also flag, and the
// targeted rewrite's own shape must win or it would never fire.
func PrepareCommand(cmd []string, rootDir, remoteWorkdir string) string {
	s := strings.Join(cmd, " ")
	s = rootSimpleFilename(s, rootDir)

	if !alreadyWrapped(s) {
		if looksLikeFlaskLaunch(s) && !strings.Contains(s, "&") {
			s = rewriteFlaskLaunch(cmd, s)
		} else if m, rw := matchTargetedRewrite(s); rw != nil {
			s = rw.rewrite(m, s)
		} else if needsShellWrap(s) {
			s = wrapShell(s)
		}
	}

	workdir := remoteWorkdir
	if workdir == "" {
		workdir = rootDir
	}
	return fmt.Sprintf("cd %s && %s", workdir, s)
}

// timeoutSeconds floor-divides a millisecond timeout into the seconds
// the remote session command API expects; 0 or absent forwards 0, which
// callers interpret as "no explicit timeout requested".
func timeoutSeconds(timeoutMs int) int {
	if timeoutMs <= 0 {
		return 0
	}
	return timeoutMs / 1000
}
