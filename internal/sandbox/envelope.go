package sandbox

import (
	"context"
	"encoding/json"
	"strings"
)

// envelopeMetadata is the "metadata" object of the tool-call envelope.
type envelopeMetadata struct {
	ExitCode        int     `json:"exit_code"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error,omitempty"`
}

type envelope struct {
	Output   string           `json:"output"`
	Metadata envelopeMetadata `json:"metadata"`
}

// EncodeEnvelope serializes an ExecResult for the outer assistant.
// Stdout becomes "output". On a non-zero exit code, a non-empty Stderr is
// carried as metadata.error and also becomes "output" when Stdout is empty.
func EncodeEnvelope(result ExecResult, durationSeconds float64) string {
	meta := envelopeMetadata{ExitCode: result.ExitCode, DurationSeconds: durationSeconds}
	output := result.Stdout
	if result.ExitCode != 0 {
		meta.Error = result.Stderr
		if output == "" {
			output = result.Stderr
		}
	}
	b, err := json.Marshal(envelope{Output: output, Metadata: meta})
	if err != nil {
		return `{"output":"Failed to parse output: marshal error","metadata":{"exit_code":1}}`
	}
	return string(b)
}

// DecodeEnvelope implements the consumer side of the envelope protocol:
// valid JSON in the envelope shape, a raw patch echo recognized by a
// known prefix, or an unrecognized string truncated into a
// parse-failure envelope.
func DecodeEnvelope(s string) (output string, exitCode int) {
	var env struct {
		Output   *string          `json:"output"`
		Metadata envelopeMetadata `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(s), &env); err == nil && env.Output != nil {
		return *env.Output, env.Metadata.ExitCode
	}

	for _, prefix := range []string{patchBegin, addFilePrefix, "Created "} {
		if strings.HasPrefix(s, prefix) {
			return s, 0
		}
	}

	truncated := s
	if len(truncated) > 100 {
		truncated = truncated[:100]
	}
	return "Failed to parse output: " + truncated + "…", 1
}

// UploadFile is the best-effort uploadFile collaborator operation:
// parent directory created if missing, existence verified.
func (h *Handle) UploadFile(ctx context.Context, hostPath string, content []byte) bool {
	if err := h.EnsureReady(ctx); err != nil {
		return false
	}
	remote := h.MapPath(hostPath)
	ws := h.workspaceRef()
	if ws == nil {
		return false
	}
	fs := ws.FS()

	if dir := parentDir(remote); dir != "" {
		_ = fs.CreateFolder(ctx, dir)
	}
	if err := fs.UploadFile(ctx, remote, content); err != nil {
		return false
	}

	verify, err := ws.Process().ExecuteCommand(ctx, `test -f "`+remote+`" && echo exists || echo missing`, "", nil, 0)
	if err != nil || verify == nil {
		return false
	}
	return strings.TrimSpace(verify.Stdout) == "exists"
}

// DownloadFile is the downloadFile collaborator operation: reads the
// remote file's content, returning an empty string if it is absent.
func (h *Handle) DownloadFile(ctx context.Context, remotePath string) string {
	if err := h.EnsureReady(ctx); err != nil {
		return ""
	}
	ws := h.workspaceRef()
	if ws == nil {
		return ""
	}
	content, err := ws.FS().DownloadFile(ctx, remotePath)
	if err != nil {
		return ""
	}
	return string(content)
}

// GetPreviewLink is the getPreviewLink collaborator operation for a port
// the caller already knows: it asks the provider for a link and, like
// annotatePreview, falls back to a synthesized URL.
func (h *Handle) GetPreviewLink(ctx context.Context, port int) PreviewLink {
	ws := h.workspaceRef()
	if ws == nil {
		return PreviewLink{}
	}
	if provider, ok := ws.(previewLinkProvider); ok {
		if pl, err := provider.GetPreviewLink(ctx, port); err == nil && pl != nil {
			return *pl
		}
	}
	return PreviewLink{URL: synthesizePreviewURL(port, ws.ID()), Token: "auth-required"}
}
