package sandbox

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/singleflight"
)

// AuditRecorder persists a record of each exec/patch call. Implemented by
// internal/audit.Log; nil is a valid no-op recorder.
type AuditRecorder interface {
	RecordExec(ctx context.Context, workdir, command string, exitCode int, durationMS int64)
}

// MetricsRecorder records RPC counters/durations. Implemented by
// internal/telemetry.Recorder; nil is a valid no-op recorder.
type MetricsRecorder interface {
	RecordRPC(ctx context.Context, op string, durationMS int64, err error)
}

// Handle is the process-wide workspace handle. It is constructed
// explicitly by the caller rather than hidden behind package-level
// globals, so a caller can run more than one in tests or in a
// multi-tenant host.
type Handle struct {
	cfg      *Config
	client   RemoteClient
	hostHome string
	log      *slog.Logger
	audit    AuditRecorder
	metrics  MetricsRecorder

	mu          sync.RWMutex
	workspace   Workspace
	rootDir     string
	initialized bool
	initGroup   singleflight.Group

	pathMu    sync.Mutex
	pathCache map[string]string

	sessionMu    sync.Mutex
	sessions     map[string]string
	sessionGroup singleflight.Group
}

// Option configures a Handle at construction time.
type Option func(*Handle)

// WithAuditLog wires a local audit recorder for exec/patch calls.
func WithAuditLog(a AuditRecorder) Option { return func(h *Handle) { h.audit = a } }

// WithMetrics wires an RPC metrics recorder.
func WithMetrics(m MetricsRecorder) Option { return func(h *Handle) { h.metrics = m } }

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option { return func(h *Handle) { h.log = l } }

// WithHostHome overrides the host home directory used by the path mapper
// (defaults to os.UserHomeDir()); mainly used by tests.
func WithHostHome(home string) Option { return func(h *Handle) { h.hostHome = home } }

// New constructs a Handle bound to a RemoteClient. The workspace itself is
// not created until the first EnsureReady call (lazy init).
func New(cfg *Config, client RemoteClient, opts ...Option) *Handle {
	home, _ := os.UserHomeDir()
	h := &Handle{
		cfg:       cfg,
		client:    client,
		hostHome:  home,
		log:       slog.Default(),
		pathCache: make(map[string]string),
		sessions:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EnsureReady returns once the workspace is initialized, or with a
// terminal *Error (KindInit) if creation failed. Concurrent callers
// share one in-flight init.
func (h *Handle) EnsureReady(ctx context.Context) error {
	h.mu.RLock()
	ready := h.initialized
	h.mu.RUnlock()
	if ready {
		return nil
	}

	_, err, _ := h.initGroup.Do("init", func() (interface{}, error) {
		h.mu.RLock()
		already := h.initialized
		h.mu.RUnlock()
		if already {
			return nil, nil
		}

		h.log.Debug("sandbox.init.start")
		ws, err := h.client.Create(ctx, CreateOptions{AutoStopInterval: h.cfg.AutoStopInterval})
		if err != nil {
			h.log.Error("sandbox.init.create_failed", "error", err)
			return nil, initErr("create", err)
		}

		root, err := ws.GetUserRootDir(ctx)
		if err != nil {
			h.safeRemove(ws)
			h.log.Error("sandbox.init.root_dir_failed", "error", err)
			return nil, initErr("root_dir", err)
		}
		if root == "" {
			h.safeRemove(ws)
			h.log.Error("sandbox.init.empty_root_dir")
			return nil, initErr("root_dir", errEmptyRootDir)
		}

		h.mu.Lock()
		h.workspace = ws
		h.rootDir = root
		h.initialized = true
		h.mu.Unlock()

		h.log.Debug("sandbox.init.done", "workspace_id", ws.ID(), "root_dir", root)

		go h.bootstrapDirectories(context.Background())

		return nil, nil
	})
	return err
}

func (h *Handle) safeRemove(ws Workspace) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.client.Remove(ctx, ws); err != nil {
		h.log.Warn("sandbox.init.rollback_remove_failed", "error", err)
	}
}

// bootstrapDirectories creates the default working-tree directories in the
// background; failures are logged and swallowed.
func (h *Handle) bootstrapDirectories(ctx context.Context) {
	h.mu.RLock()
	ws, root := h.workspace, h.rootDir
	h.mu.RUnlock()
	if ws == nil {
		return
	}
	for _, dir := range h.cfg.BootstrapDirs {
		remote := path.Join(root, dir)
		if err := ws.FS().CreateFolder(ctx, remote); err != nil {
			h.log.Warn("sandbox.bootstrap.mkdir_failed", "dir", remote, "error", err)
		}
	}
}

// Cleanup tears the workspace down: deletes every known remote session,
// removes the workspace, and resets the handle to its pre-init zero
// state. It is idempotent and never panics to its caller.
func (h *Handle) Cleanup(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized && h.workspace == nil {
		return
	}

	h.sessionMu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]string)
	h.sessionMu.Unlock()

	if h.workspace != nil {
		proc := h.workspace.Process()
		for key, id := range sessions {
			if err := proc.DeleteSession(ctx, id); err != nil {
				h.log.Warn("sandbox.cleanup.delete_session_failed", "key", key, "session_id", id, "error", err)
			}
		}
		if err := h.client.Remove(ctx, h.workspace); err != nil {
			h.log.Warn("sandbox.cleanup.remove_workspace_failed", "error", err)
		}
	}

	h.workspace = nil
	h.rootDir = ""
	h.initialized = false

	h.pathMu.Lock()
	h.pathCache = make(map[string]string)
	h.pathMu.Unlock()
}

// RootDir returns the cached workspace root, or "" before initialization.
func (h *Handle) RootDir() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootDir
}

// workspaceRef returns the current workspace under the read lock, or nil.
func (h *Handle) workspaceRef() Workspace {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.workspace
}

// RegisterCleanupOnExit registers h.Cleanup to run when the process
// receives SIGINT or SIGTERM, after which the process exits. A normal
// return from main does not run it. The returned stop function
// unregisters the handler. The core does not register this for itself —
// a caller that owns process lifetime opts in explicitly.
func RegisterCleanupOnExit(h *Handle) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			func() {
				defer func() {
					if r := recover(); r != nil {
						h.log.Warn("sandbox.cleanup.panic_recovered", "recover", r)
					}
				}()
				h.Cleanup(ctx)
			}()
			os.Exit(0)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
