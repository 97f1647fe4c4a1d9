package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"todoboard/internal/model"
	"todoboard/pkg/trace"
)

// ErrTransport means the server could not be reached or answered with a body
// that is not an RPC response.
var ErrTransport = errors.New("rpc transport failed")

// RemoteError is an error kind reported by the server.
type RemoteError struct {
	Kind   string
	Status int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc error: %s (status %d)", e.Kind, e.Status)
}

// Client calls the board RPC endpoints. Like the server side it returns the
// operation's sentinel together with any error, so callers can render the
// result without checking the error first.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type rpcResponse struct {
	Task      *model.Task      `json:"task"`
	Tasks     []model.Task     `json:"tasks"`
	Assignee  *model.Assignee  `json:"assignee"`
	Assignees []model.Assignee `json:"assignees"`
	OK        bool             `json:"ok"`
	Error     string           `json:"error"`
}

func (c *Client) AddTask(ctx context.Context, title string, description *string, urgency string) (*model.Task, error) {
	body := map[string]any{"title": title, "description": description, "urgency": urgency}
	resp, err := c.call(ctx, http.MethodPost, "/api/tasks", body)
	if err != nil {
		return nil, err
	}
	return resp.Task, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	resp, err := c.call(ctx, http.MethodGet, "/api/tasks", nil)
	if err != nil || resp.Tasks == nil {
		return []model.Task{}, err
	}
	return resp.Tasks, nil
}

func (c *Client) AddAssignee(ctx context.Context, name string) (*model.Assignee, error) {
	resp, err := c.call(ctx, http.MethodPost, "/api/assignees", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	return resp.Assignee, nil
}

func (c *Client) ListAssignees(ctx context.Context) ([]model.Assignee, error) {
	resp, err := c.call(ctx, http.MethodGet, "/api/assignees", nil)
	if err != nil || resp.Assignees == nil {
		return []model.Assignee{}, err
	}
	return resp.Assignees, nil
}

func (c *Client) AssignTask(ctx context.Context, taskID, assigneeID string) (bool, error) {
	resp, err := c.call(ctx, http.MethodPost, "/api/assignments", map[string]any{
		"task_id":     taskID,
		"assignee_id": assigneeID,
	})
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (c *Client) CompleteTask(ctx context.Context, taskID string) (*model.Task, error) {
	resp, err := c.call(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(taskID)+"/complete", nil)
	if err != nil {
		return nil, err
	}
	return resp.Task, nil
}

// call performs one request. A decoded body with an "error" kind becomes a
// *RemoteError regardless of the status code.
func (c *Client) call(ctx context.Context, method, path string, body any) (*rpcResponse, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("RPC request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	var out rpcResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		c.logger.Warn("RPC response not decodable",
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: status %d: %v", ErrTransport, res.StatusCode, err)
	}
	if out.Error != "" {
		return nil, &RemoteError{Kind: out.Error, Status: res.StatusCode}
	}
	return &out, nil
}
