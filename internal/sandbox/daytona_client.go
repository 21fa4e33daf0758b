package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultAPIURL = "https://app.daytona.io/api"

// daytonaClient is the HTTP binding to the workspace provider: a plain
// *http.Client with a generous timeout and context-scoped requests, no
// HTTP client library.
type daytonaClient struct {
	apiKey string
	apiURL string
	target string
	http   *http.Client
}

// NewDaytonaClient constructs the default RemoteClient implementation.
func NewDaytonaClient(cfg *Config) RemoteClient {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &daytonaClient{
		apiKey: cfg.APIKey,
		apiURL: strings.TrimRight(apiURL, "/"),
		target: cfg.Target,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *daytonaClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("daytona: %s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

type createWorkspaceRequest struct {
	AutoStopInterval int    `json:"autoStopInterval"`
	Target           string `json:"target"`
}

type createWorkspaceResponse struct {
	ID string `json:"id"`
}

func (c *daytonaClient) Create(ctx context.Context, opts CreateOptions) (Workspace, error) {
	var resp createWorkspaceResponse
	err := c.doJSON(ctx, http.MethodPost, "/workspace", createWorkspaceRequest{
		AutoStopInterval: opts.AutoStopInterval,
		Target:           c.target,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("daytona: create returned no workspace id")
	}
	return &daytonaWorkspace{id: resp.ID, client: c}, nil
}

func (c *daytonaClient) Remove(ctx context.Context, ws Workspace) error {
	return c.doJSON(ctx, http.MethodDelete, "/workspace/"+ws.ID(), nil, nil)
}

// daytonaWorkspace implements Workspace over the HTTP binding.
type daytonaWorkspace struct {
	id     string
	client *daytonaClient
}

func (w *daytonaWorkspace) ID() string { return w.id }

func (w *daytonaWorkspace) GetUserRootDir(ctx context.Context) (string, error) {
	var resp struct {
		RootDir string `json:"rootDir"`
	}
	if err := w.client.doJSON(ctx, http.MethodGet, "/workspace/"+w.id+"/root-dir", nil, &resp); err != nil {
		return "", err
	}
	return resp.RootDir, nil
}

func (w *daytonaWorkspace) FS() FileSystem      { return &daytonaFS{w: w} }
func (w *daytonaWorkspace) Process() ProcessAPI { return &daytonaProcess{w: w} }

func (w *daytonaWorkspace) GetPreviewLink(ctx context.Context, port int) (*PreviewLink, error) {
	var resp PreviewLink
	err := w.client.doJSON(ctx, http.MethodGet, fmt.Sprintf("/workspace/%s/preview/%d", w.id, port), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

type daytonaFS struct{ w *daytonaWorkspace }

func (f *daytonaFS) CreateFolder(ctx context.Context, path string) error {
	return f.w.client.doJSON(ctx, http.MethodPost, "/workspace/"+f.w.id+"/fs/folder", map[string]string{"path": path}, nil)
}

func (f *daytonaFS) UploadFile(ctx context.Context, path string, content []byte) error {
	return f.w.client.doJSON(ctx, http.MethodPost, "/workspace/"+f.w.id+"/fs/file", map[string]string{
		"path":    path,
		"content": string(content),
	}, nil)
}

func (f *daytonaFS) DeleteFile(ctx context.Context, path string) error {
	return f.w.client.doJSON(ctx, http.MethodDelete, "/workspace/"+f.w.id+"/fs/file?path="+path, nil, nil)
}

func (f *daytonaFS) DownloadFile(ctx context.Context, path string) ([]byte, error) {
	var resp struct {
		Content string `json:"content"`
	}
	if err := f.w.client.doJSON(ctx, http.MethodGet, "/workspace/"+f.w.id+"/fs/file?path="+path, nil, &resp); err != nil {
		return nil, err
	}
	return []byte(resp.Content), nil
}

type daytonaProcess struct{ w *daytonaWorkspace }

func (p *daytonaProcess) ExecuteCommand(ctx context.Context, cmd, workdir string, env map[string]string, timeoutSec int) (*CommandResult, error) {
	var resp CommandResult
	err := p.w.client.doJSON(ctx, http.MethodPost, "/workspace/"+p.w.id+"/process/execute", map[string]interface{}{
		"command": cmd,
		"workdir": workdir,
		"env":     env,
		"timeout": timeoutSec,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *daytonaProcess) CreateSession(ctx context.Context, sessionID string) error {
	err := p.w.client.doJSON(ctx, http.MethodPost, "/workspace/"+p.w.id+"/process/session", map[string]string{"sessionId": sessionID}, nil)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return nil
	}
	return err
}

func (p *daytonaProcess) ExecuteSessionCommand(ctx context.Context, sessionID string, req SessionCommandRequest) (*SessionCommandResult, error) {
	var resp SessionCommandResult
	err := p.w.client.doJSON(ctx, http.MethodPost, "/workspace/"+p.w.id+"/process/session/"+sessionID+"/exec", map[string]interface{}{
		"command": req.Command,
		"async":   req.Async,
		"timeout": req.TimeoutSec,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSessionCommandLogs streams log chunks over a websocket, the way the
// provider's log tail endpoint is documented to behave for long-running
// session commands whose inline output was empty.
func (p *daytonaProcess) GetSessionCommandLogs(ctx context.Context, sessionID, cmdID string, onChunk LogChunkFunc) error {
	wsURL := strings.Replace(p.w.client.apiURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL += fmt.Sprintf("/workspace/%s/process/session/%s/command/%s/logs", p.w.id, sessionID, cmdID)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.w.client.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if err == io.EOF || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if len(data) == 0 {
			continue
		}
		onChunk(string(data))
	}
}

func (p *daytonaProcess) DeleteSession(ctx context.Context, sessionID string) error {
	return p.w.client.doJSON(ctx, http.MethodDelete, "/workspace/"+p.w.id+"/process/session/"+sessionID, nil, nil)
}
