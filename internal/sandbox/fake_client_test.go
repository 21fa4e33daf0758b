package sandbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// fakeClient is a hand-rolled RemoteClient/Workspace/FileSystem/ProcessAPI
// used across the package's tests, per the narrow-binding design note.
type fakeClient struct {
	createCalls int32
	rootDir     string

	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	// execBlock, when non-nil, makes ExecuteSessionCommand wait for it to
	// be closed before returning — used to test cancellation deterministically.
	execBlock chan struct{}
}

func newFakeClient(rootDir string) *fakeClient {
	return &fakeClient{
		rootDir: rootDir,
		files:   make(map[string][]byte),
		dirs:    make(map[string]bool),
	}
}

func (c *fakeClient) Create(ctx context.Context, opts CreateOptions) (Workspace, error) {
	atomic.AddInt32(&c.createCalls, 1)
	return &fakeWorkspace{id: "fake-sandbox-id", client: c}, nil
}

func (c *fakeClient) Remove(ctx context.Context, ws Workspace) error {
	return nil
}

type fakeWorkspace struct {
	id     string
	client *fakeClient
}

func (w *fakeWorkspace) ID() string { return w.id }

func (w *fakeWorkspace) GetUserRootDir(ctx context.Context) (string, error) {
	return w.client.rootDir, nil
}

func (w *fakeWorkspace) FS() FileSystem      { return &fakeFS{c: w.client} }
func (w *fakeWorkspace) Process() ProcessAPI { return &fakeProcess{c: w.client} }

type fakeFS struct{ c *fakeClient }

func (f *fakeFS) CreateFolder(ctx context.Context, path string) error {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	f.c.dirs[path] = true
	return nil
}

func (f *fakeFS) UploadFile(ctx context.Context, path string, content []byte) error {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	cp := make([]byte, len(content))
	copy(cp, content)
	f.c.files[path] = cp
	return nil
}

func (f *fakeFS) DeleteFile(ctx context.Context, path string) error {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	if _, ok := f.c.files[path]; !ok {
		return fmt.Errorf("no such file: %s", path)
	}
	delete(f.c.files, path)
	return nil
}

func (f *fakeFS) DownloadFile(ctx context.Context, path string) ([]byte, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	content, ok := f.c.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

type fakeProcess struct{ c *fakeClient }

func (p *fakeProcess) ExecuteCommand(ctx context.Context, cmd, workdir string, env map[string]string, timeoutSec int) (*CommandResult, error) {
	// "test -f <path> && echo exists || echo missing" probes, used by the
	// patch applier / preflight check / upload verification.
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	for path := range p.c.files {
		if containsQuoted(cmd, path) {
			return &CommandResult{Stdout: "exists\n"}, nil
		}
	}
	if containsQuoted(cmd, "/home/daytona") && p.c.dirs["/home/daytona"] {
		return &CommandResult{Stdout: "exists\n"}, nil
	}
	return &CommandResult{Stdout: "missing\n"}, nil
}

func containsQuoted(cmd, needle string) bool {
	return len(cmd) > 0 && (indexOf(cmd, needle) >= 0)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func (p *fakeProcess) CreateSession(ctx context.Context, sessionID string) error {
	return nil
}

func (p *fakeProcess) ExecuteSessionCommand(ctx context.Context, sessionID string, req SessionCommandRequest) (*SessionCommandResult, error) {
	if p.c.execBlock != nil {
		<-p.c.execBlock
	}
	// Echoes back a recognizable marker so tests can assert on command
	// preparation without a real remote shell.
	if containsQuoted(req.Command, "echo hello") {
		return &SessionCommandResult{Output: "hello\n"}, nil
	}
	return &SessionCommandResult{Output: "", Error: "", ExitCode: 0}, nil
}

func (p *fakeProcess) GetSessionCommandLogs(ctx context.Context, sessionID, cmdID string, onChunk LogChunkFunc) error {
	return nil
}

func (p *fakeProcess) DeleteSession(ctx context.Context, sessionID string) error {
	return nil
}
