package sandbox

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultSessionID = "default-exec-session"

var sessionKeySanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeSessionKey(k string) string {
	return sessionKeySanitizer.ReplaceAllString(k, "-")
}

func sessionKeyFor(workdir string) string {
	if workdir == "" {
		return "default"
	}
	return workdir
}

func looksAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// getOrCreateSession resolves (or lazily creates) the remote session for
// a working directory, serialized per key by h.sessionGroup so only one
// createSession RPC fires per session-key even under concurrent callers.
func (h *Handle) getOrCreateSession(ctx context.Context, key string) (string, error) {
	h.sessionMu.Lock()
	if id, ok := h.sessions[key]; ok {
		h.sessionMu.Unlock()
		return id, nil
	}
	h.sessionMu.Unlock()

	v, err, _ := h.sessionGroup.Do(key, func() (interface{}, error) {
		h.sessionMu.Lock()
		if id, ok := h.sessions[key]; ok {
			h.sessionMu.Unlock()
			return id, nil
		}
		h.sessionMu.Unlock()

		ws := h.workspaceRef()
		if ws == nil {
			return "", initErr("session", errEmptyRootDir)
		}
		proc := ws.Process()

		sessionID := fmt.Sprintf("exec-session-%s-%s", sanitizeSessionKey(key), uuid.NewString()[:8])
		if err := proc.CreateSession(ctx, sessionID); err != nil {
			h.log.Warn("sandbox.session.create_failed", "key", key, "session_id", sessionID, "error", err)
			if err2 := proc.CreateSession(ctx, defaultSessionID); err2 != nil && !looksAlreadyExists(err2) {
				return "", err2
			}
			sessionID = defaultSessionID
		}

		h.sessionMu.Lock()
		h.sessions[key] = sessionID
		h.sessionMu.Unlock()
		return sessionID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// rootDirOrMapped resolves the remote working directory for a session
// key: the workspace root when no workdir was supplied, else the mapped
// path.
func (h *Handle) rootDirOrMapped(workdir string) string {
	if workdir == "" {
		return h.RootDir()
	}
	return h.MapPath(workdir)
}

// preflightDaytonaHome runs a pre-flight check: when an argument
// references /home/daytona, make sure the directory exists before the
// command runs, swallowing every failure along the way.
func (h *Handle) preflightDaytonaHome(ctx context.Context, cmd []string) {
	referenced := false
	for _, arg := range cmd {
		if strings.Contains(arg, daytonaHomeSegment) {
			referenced = true
			break
		}
	}
	if !referenced {
		return
	}

	ws := h.workspaceRef()
	if ws == nil {
		return
	}
	proc := ws.Process()

	probe, err := proc.ExecuteCommand(ctx, `test -d /home/daytona && echo exists || echo missing`, "", nil, 0)
	if err != nil {
		h.log.Warn("sandbox.preflight.probe_failed", "error", err)
		return
	}
	if strings.TrimSpace(probe.Stdout) != "missing" {
		return
	}

	if err := ws.FS().CreateFolder(ctx, "/home/daytona"); err != nil {
		h.log.Warn("sandbox.preflight.create_folder_failed", "error", err)
		if _, mkErr := proc.ExecuteCommand(ctx, "mkdir -p /home/daytona", "", nil, 0); mkErr != nil {
			h.log.Warn("sandbox.preflight.mkdir_fallback_failed", "error", mkErr)
		}
	}
}

// Exec runs a command in the workspace: session acquisition, command
// submission, log streaming fallback, and cancellation — it never
// returns a Go error.
func (h *Handle) Exec(ctx context.Context, in ExecInput) ExecResult {
	start := time.Now()

	if len(in.Cmd) == 0 {
		return ExecResult{Stderr: errEmptyCommand.Error(), ExitCode: 1}
	}

	if err := h.EnsureReady(ctx); err != nil {
		return ExecResult{Stderr: err.Error(), ExitCode: 1}
	}

	resultCh := make(chan ExecResult, 1)
	go func() {
		resultCh <- h.execInner(ctx, in)
	}()

	var res ExecResult
	if in.Cancel != nil {
		select {
		case res = <-resultCh:
		case <-in.Cancel:
			res = ExecResult{Stderr: "cancelled", ExitCode: 1}
		}
	} else {
		res = <-resultCh
	}

	durationMS := time.Since(start).Milliseconds()
	if h.metrics != nil {
		h.metrics.RecordRPC(ctx, "exec", durationMS, nil)
	}
	if h.audit != nil {
		h.audit.RecordExec(ctx, in.Workdir, strings.Join(in.Cmd, " "), res.ExitCode, durationMS)
	}
	return res
}

func (h *Handle) execInner(ctx context.Context, in ExecInput) ExecResult {
	key := sessionKeyFor(in.Workdir)

	sessionID, err := h.getOrCreateSession(ctx, key)
	if err != nil {
		return ExecResult{Stderr: err.Error(), ExitCode: 1}
	}

	h.preflightDaytonaHome(ctx, in.Cmd)

	remoteWorkdir := h.rootDirOrMapped(in.Workdir)
	prepared := PrepareCommand(in.Cmd, h.RootDir(), remoteWorkdir)

	ws := h.workspaceRef()
	if ws == nil {
		return ExecResult{Stderr: "workspace not ready", ExitCode: 1}
	}
	proc := ws.Process()

	resp, err := proc.ExecuteSessionCommand(ctx, sessionID, SessionCommandRequest{
		Command:    prepared,
		Async:      false,
		TimeoutSec: timeoutSeconds(in.TimeoutMs),
	})
	if err != nil {
		return ExecResult{Stderr: err.Error(), ExitCode: 1}
	}

	result := ExecResult{Stdout: resp.Output, Stderr: resp.Error, ExitCode: resp.ExitCode}

	if result.Stdout == "" && resp.CmdID != "" {
		var sb strings.Builder
		if err := proc.GetSessionCommandLogs(ctx, sessionID, resp.CmdID, func(chunk string) {
			sb.WriteString(chunk)
		}); err != nil {
			h.log.Warn("sandbox.session.stream_logs_failed", "session_id", sessionID, "error", err)
		} else {
			result.Stdout = sb.String()
		}
	}

	annotatePreview(ctx, ws, prepared, &result)

	return result
}
