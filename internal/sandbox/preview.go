package sandbox

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var serverLaunchHints = []string{
	"flask run", "node ", "npm start", "npm run dev", "npx",
	"rails server", "rails s", "server", "serve", "express",
	"http-server", "live-server",
}

var appPyLaunchPattern = regexp.MustCompile(`\bpython\w*\b.*\bapp\.py\b`)

var runningOnPattern = regexp.MustCompile(`(?i)Running on https?://[^:/\s]+:(\d+)`)
var listeningPortPattern = regexp.MustCompile(`(?i)(?:listening|started|running|server).*?(?:port|:)\s*(\d+)`)
var cmdPortFlagPattern = regexp.MustCompile(`(?:--port[= ]|-p\s+)(\d+)`)

// looksLikeServerLaunch detects whether a prepared command looks like it
// starts a long-running web server.
func looksLikeServerLaunch(prepared string) bool {
	if appPyLaunchPattern.MatchString(prepared) {
		return true
	}
	for _, hint := range serverLaunchHints {
		if strings.Contains(prepared, hint) {
			return true
		}
	}
	return false
}

// resolvePort picks the port a launched server is most likely bound to,
// checking the command's own stdout before falling back to flags and
// framework defaults.
func resolvePort(stdout, prepared string) int {
	if m := runningOnPattern.FindStringSubmatch(stdout); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			return p
		}
	}
	if m := listeningPortPattern.FindStringSubmatch(stdout); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			return p
		}
	}
	if m := cmdPortFlagPattern.FindStringSubmatch(prepared); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			return p
		}
	}
	switch {
	case strings.Contains(prepared, "flask"):
		return 5000
	case strings.Contains(prepared, "rails"), strings.Contains(prepared, "next"), strings.Contains(prepared, "vite"):
		return 3000
	default:
		return 8000
	}
}

// synthesizePreviewURL builds the fallback URL used when the provider
// does not expose getPreviewLink.
func synthesizePreviewURL(port int, sandboxID string) string {
	prefix := sandboxID
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return fmt.Sprintf("https://%d-%s.%s.daytona.work", port, sandboxID, prefix)
}

// annotatePreview mutates result in place, appending a preview banner to
// stdout and a one-line summary to stderr when the prepared command
// looks like a web-server launch.
func annotatePreview(ctx context.Context, ws Workspace, prepared string, result *ExecResult) {
	if !looksLikeServerLaunch(prepared) {
		return
	}

	port := resolvePort(result.Stdout, prepared)

	var link PreviewLink
	if provider, ok := ws.(previewLinkProvider); ok {
		if pl, err := provider.GetPreviewLink(ctx, port); err == nil && pl != nil {
			link = *pl
		}
	}
	if link.URL == "" {
		link.URL = synthesizePreviewURL(port, ws.ID())
		link.Token = "auth-required"
	}

	banner := fmt.Sprintf("\n====== PREVIEW LINK ======\n%s\n=========================\n", link.URL)
	result.Stdout += banner
	result.Stderr += fmt.Sprintf("PREVIEW LINK: %s\n", link.URL)
}
