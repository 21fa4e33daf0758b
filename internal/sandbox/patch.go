package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	patchBegin     = "*** Begin Patch"
	patchEnd       = "*** End Patch"
	patchEndOfFile = "*** End of File"
	addFilePrefix  = "*** Add File: "
	deleteFilePfx  = "*** Delete File: "
	updateFilePfx  = "*** Update File: "
)

type patchOp struct {
	kind    string // "add" or "delete"
	path    string
	content string // add only
}

// parsePatch implements the custom Add/Delete/Update File patch grammar.
// It returns a parse error only for malformed top/bottom markers;
// anything else about an individual block is tolerated by the grammar
// itself.
func parsePatch(text string) ([]patchOp, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " ") != patchBegin {
		return nil, fmt.Errorf("patch must start with %q", patchBegin)
	}

	lastNonEmpty := len(lines) - 1
	for lastNonEmpty > 0 && strings.TrimSpace(lines[lastNonEmpty]) == "" {
		lastNonEmpty--
	}
	if strings.TrimRight(lines[lastNonEmpty], " ") != patchEnd {
		return nil, fmt.Errorf("patch must end with %q", patchEnd)
	}

	var ops []patchOp
	var openAdd *patchOp
	var content strings.Builder

	flushAdd := func() {
		if openAdd != nil {
			openAdd.content = content.String()
			ops = append(ops, *openAdd)
			openAdd = nil
			content.Reset()
		}
	}

	for _, line := range lines[1:lastNonEmpty] {
		switch {
		case strings.HasPrefix(line, addFilePrefix):
			flushAdd()
			openAdd = &patchOp{kind: "add", path: strings.TrimPrefix(line, addFilePrefix)}
		case strings.HasPrefix(line, deleteFilePfx):
			flushAdd()
			ops = append(ops, patchOp{kind: "delete", path: strings.TrimPrefix(line, deleteFilePfx)})
		case strings.HasPrefix(line, updateFilePfx):
			// Closes any open add; update semantics are out of scope.
			flushAdd()
		case line == patchEndOfFile:
			flushAdd()
		case openAdd != nil && strings.HasPrefix(line, "+"):
			content.WriteString(strings.TrimPrefix(line, "+"))
			content.WriteString("\n")
		}
	}
	flushAdd()

	return ops, nil
}

// applyAdd implements the "Application of a single add" algorithm.
func applyAdd(ctx context.Context, h *Handle, op patchOp, log *strings.Builder) {
	remote := h.MapPath(op.path)
	ws := h.workspaceRef()
	if ws == nil {
		fmt.Fprintf(log, "Error creating %s: workspace not ready\n", op.path)
		return
	}
	fs := ws.FS()
	proc := ws.Process()

	dir := parentDir(remote)
	if dir != "" {
		_ = fs.CreateFolder(ctx, dir)
	}

	if err := fs.UploadFile(ctx, remote, []byte(op.content)); err != nil {
		fmt.Fprintf(log, "Error creating %s: %s\n", op.path, err)
		return
	}

	verify, err := ws.Process().ExecuteCommand(ctx, fmt.Sprintf(`test -f "%s" && echo exists || echo missing`, remote), "", nil, 0)
	if err == nil && verify != nil && strings.TrimSpace(verify.Stdout) == "exists" {
		fmt.Fprintf(log, "Created %s\n", op.path)
		return
	}

	echoCmd := fmt.Sprintf(`echo %s > "%s"`, shellSingleQuote(op.content), remote)
	if _, err := proc.ExecuteCommand(ctx, echoCmd, "", nil, 0); err != nil {
		fmt.Fprintf(log, "Error creating %s: %s\n", op.path, err)
		return
	}
	fmt.Fprintf(log, "Created %s (using echo fallback)\n", op.path)
}

// applyDelete implements the "Application of a delete" algorithm.
func applyDelete(ctx context.Context, h *Handle, op patchOp, log *strings.Builder) {
	remote := h.MapPath(op.path)
	ws := h.workspaceRef()
	if ws == nil {
		fmt.Fprintf(log, "Error deleting %s: workspace not ready\n", op.path)
		return
	}
	if err := ws.FS().DeleteFile(ctx, remote); err != nil {
		fmt.Fprintf(log, "Error deleting %s: %s\n", op.path, err)
		return
	}
	fmt.Fprintf(log, "Deleted %s\n", op.path)
}

func parentDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return ""
	}
	return p[:i]
}

// ApplyPatch parses and applies a patch end to end.
func (h *Handle) ApplyPatch(ctx context.Context, patchText string) (result ExecResult) {
	start := time.Now()
	defer func() {
		durationMS := time.Since(start).Milliseconds()
		if h.metrics != nil {
			h.metrics.RecordRPC(ctx, "patch", durationMS, nil)
		}
		if h.audit != nil {
			h.audit.RecordExec(ctx, "", "apply-patch", result.ExitCode, durationMS)
		}
	}()

	ops, err := parsePatch(patchText)
	if err != nil {
		return ExecResult{Stderr: err.Error(), ExitCode: 1}
	}

	if err := h.EnsureReady(ctx); err != nil {
		return ExecResult{Stderr: err.Error(), ExitCode: 1}
	}

	var log strings.Builder
	for _, op := range ops {
		switch op.kind {
		case "add":
			applyAdd(ctx, h, op, &log)
		case "delete":
			applyDelete(ctx, h, op, &log)
		}
	}

	stdout := log.String()
	if stdout == "" {
		stdout = "Patch applied successfully"
	}
	return ExecResult{Stdout: stdout, ExitCode: 0}
}
