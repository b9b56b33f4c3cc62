package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"printflow/internal/api"
	"printflow/internal/config"
	"printflow/internal/daemon"
	"printflow/internal/services"
	"printflow/internal/task"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// RemoteError is a failed API response. It carries the server's error kind so
// callers classify it the same way as an in-process error.
type RemoteError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("daemon returned %d", e.StatusCode)
}

// ErrorKind implements services.ErrorClassifier.
func (e *RemoteError) ErrorKind() string {
	if e.Kind != "" {
		return e.Kind
	}
	return "internal"
}

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient targets the API bind address and token from cfg.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: BaseURL(cfg.Paths.APIBind),
		token:   strings.TrimSpace(cfg.Paths.APIToken),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// BaseURL turns a listen address into a URL reachable from this host.
func BaseURL(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return "http://" + strings.TrimSpace(bind)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Status returns the daemon runtime snapshot.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// ListTasks returns tasks matching query.
func (c *Client) ListTasks(ctx context.Context, query api.TaskQuery) ([]api.Task, error) {
	path := "/api/tasks"
	if encoded := query.Values().Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out api.TaskListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Describe fetches a single task.
func (c *Client) Describe(ctx context.Context, id string) (api.Task, error) {
	var out api.TaskResponse
	err := c.do(ctx, http.MethodGet, taskPath(id, ""), nil, nil, &out)
	return out.Task, err
}

// Create stores a new task on behalf of actor.
func (c *Client) Create(ctx context.Context, req api.CreateTaskRequest, actor task.Actor) (api.Task, error) {
	var out api.TaskResponse
	err := c.do(ctx, http.MethodPost, "/api/tasks", &actor, req, &out)
	return out.Task, err
}

// Update edits a task's descriptive fields.
func (c *Client) Update(ctx context.Context, id string, req api.UpdateTaskRequest, actor task.Actor) (api.Task, error) {
	var out api.TaskResponse
	err := c.do(ctx, http.MethodPatch, taskPath(id, ""), &actor, req, &out)
	return out.Task, err
}

// Move requests a status change.
func (c *Client) Move(ctx context.Context, id string, req api.StatusChangeRequest, actor task.Actor) (api.StatusChangeResponse, error) {
	var out api.StatusChangeResponse
	err := c.do(ctx, http.MethodPost, taskPath(id, "/status"), &actor, req, &out)
	return out, err
}

// Comment appends a comment note.
func (c *Client) Comment(ctx context.Context, id string, req api.CommentRequest, actor task.Actor) (api.Note, error) {
	var out api.NoteResponse
	err := c.do(ctx, http.MethodPost, taskPath(id, "/comments"), &actor, req, &out)
	return out.Note, err
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id, ""), nil, nil, nil)
}

// Next lists the statuses role may move the task to.
func (c *Client) Next(ctx context.Context, id string, role task.Role) (api.NextStatusesResponse, error) {
	var out api.NextStatusesResponse
	path := taskPath(id, "/next-statuses") + "?role=" + url.QueryEscape(string(role))
	err := c.do(ctx, http.MethodGet, path, nil, nil, &out)
	return out, err
}

// Notifications lists inbox entries for recipient, or all when empty.
func (c *Client) Notifications(ctx context.Context, recipient string) (api.NotificationListResponse, error) {
	path := "/api/notifications"
	if recipient = strings.TrimSpace(recipient); recipient != "" {
		path += "?recipient=" + url.QueryEscape(recipient)
	}
	var out api.NotificationListResponse
	err := c.do(ctx, http.MethodGet, path, nil, nil, &out)
	return out, err
}

// MarkRead flags one notification as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

// MarkAllRead flags every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil, nil)
}

// ClearNotifications empties the inbox.
func (c *Client) ClearNotifications(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications", nil, nil, nil)
}

// Close is a no-op; it lets Client stand in for an in-process backend.
func (c *Client) Close() error {
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, actor *task.Actor, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if actor != nil {
		req.Header.Set(daemon.HeaderActorID, actor.ID)
		req.Header.Set(daemon.HeaderActorName, actor.Name)
		req.Header.Set(daemon.HeaderActorRole, string(actor.Role))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "daemon api", method+" "+path, errors.Join(ErrDaemonNotRunning, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload api.ErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload)
		return &RemoteError{StatusCode: resp.StatusCode, Kind: payload.Kind, Message: payload.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func taskPath(id, suffix string) string {
	return "/api/tasks/" + url.PathEscape(strings.TrimSpace(id)) + suffix
}
