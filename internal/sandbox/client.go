package sandbox

import "context"

// CreateOptions configures workspace creation.
type CreateOptions struct {
	AutoStopInterval int // minutes; 0 disables auto-stop
}

// CommandResult is the response shape of a one-shot process.executeCommand call.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// SessionCommandRequest is submitted to process.executeSessionCommand.
type SessionCommandRequest struct {
	Command    string
	Async      bool
	TimeoutSec int // 0 means "no explicit timeout forwarded"
}

// SessionCommandResult is the raw {output, error, exitCode, cmdId} response.
type SessionCommandResult struct {
	Output   string
	Error    string
	ExitCode int
	CmdID    string
}

// PreviewLink is returned by workspace.getPreviewLink.
type PreviewLink struct {
	URL   string
	Token string
}

// FileSystem binds workspace.fs.*.
type FileSystem interface {
	CreateFolder(ctx context.Context, path string) error
	UploadFile(ctx context.Context, path string, content []byte) error
	DeleteFile(ctx context.Context, path string) error
	DownloadFile(ctx context.Context, path string) ([]byte, error)
}

// LogChunkFunc receives one chunk of streamed session command output.
type LogChunkFunc func(chunk string)

// ProcessAPI binds workspace.process.*.
type ProcessAPI interface {
	ExecuteCommand(ctx context.Context, cmd, workdir string, env map[string]string, timeoutSec int) (*CommandResult, error)
	CreateSession(ctx context.Context, sessionID string) error
	ExecuteSessionCommand(ctx context.Context, sessionID string, req SessionCommandRequest) (*SessionCommandResult, error)
	GetSessionCommandLogs(ctx context.Context, sessionID, cmdID string, onChunk LogChunkFunc) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// previewLinkProvider is implemented by workspaces whose provider supports
// resolving a public preview URL for a port. Not all providers do; the
// Response Post-Processor falls back to a synthesized URL when absent.
type previewLinkProvider interface {
	GetPreviewLink(ctx context.Context, port int) (*PreviewLink, error)
}

// Workspace is the opaque remote-workspace handle returned by client.Create.
type Workspace interface {
	ID() string
	GetUserRootDir(ctx context.Context) (string, error)
	FS() FileSystem
	Process() ProcessAPI
}

// RemoteClient is the narrow binding to the workspace provider's RPCs,
// scoped to exactly the operations this package needs rather than the
// vendor SDK's full surface. Tests substitute a fake satisfying this
// interface.
type RemoteClient interface {
	Create(ctx context.Context, opts CreateOptions) (Workspace, error)
	Remove(ctx context.Context, ws Workspace) error
}
