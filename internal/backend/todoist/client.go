// Package todoist implements remote.Remote over the Todoist API.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"mole/internal/remote"
)

const (
	// DefaultBaseURL is the Todoist API root.
	DefaultBaseURL = "https://api.todoist.com/api/v1"

	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// PageSize is the number of items requested per page.
	PageSize = 200

	// TokenLength is the length of a Todoist API token.
	TokenLength = 40
)

// ErrInvalidToken is returned for a token that can't be a Todoist API token.
var ErrInvalidToken = errors.New("invalid todoist token")

// ValidateToken checks the token's shape without calling the API.
func ValidateToken(token string) error {
	if len(token) != TokenLength {
		return fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidToken, TokenLength, len(token))
	}
	return nil
}

// Client implements remote.Remote using the Todoist API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger

	mu       sync.Mutex
	projects map[string]string // id -> name
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client authenticating with token.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return NewWithHTTPClient(oauth2.NewClient(ctx, ts), opts...), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// The HTTP client is responsible for authentication.
func NewWithHTTPClient(httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    httpClient,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// GetTasks implements remote.Remote.
// Name is always matched locally; Todoist has no exact-title filter.
func (c *Client) GetTasks(ctx context.Context, f remote.Filter) ([]remote.Task, error) {
	path := "/tasks"
	q := url.Values{}
	if f.Query != "" {
		path = "/tasks/filter"
		q.Set("query", f.Query)
	} else {
		if f.Project != "" {
			id, err := c.projectID(ctx, f.Project)
			if errors.Is(err, remote.ErrNotFound) {
				return []remote.Task{}, nil
			}
			if err != nil {
				return nil, err
			}
			q.Set("project_id", id)
		}
		if f.Label != "" {
			q.Set("label", f.Label)
		}
	}

	var raw []apiTask
	if err := c.paginate(ctx, path, q, func(page json.RawMessage) error {
		var items []apiTask
		if err := json.Unmarshal(page, &items); err != nil {
			return err
		}
		raw = append(raw, items...)
		return nil
	}); err != nil {
		return nil, err
	}

	names, err := c.projectNames(ctx)
	if err != nil {
		return nil, err
	}
	// project_id already constrained the request unless a query replaced it.
	local := remote.Filter{Name: f.Name, Label: f.Label}
	if f.Query != "" {
		local.Project = f.Project
	}
	result := []remote.Task{}
	for _, t := range raw {
		task := t.toTask(names)
		if task.Completed || !local.Matches(task) {
			continue
		}
		result = append(result, task)
	}
	return result, nil
}

// CreateTask implements remote.Remote.
func (c *Client) CreateTask(ctx context.Context, task remote.Task) (remote.Task, error) {
	req, err := c.request(ctx, task)
	if err != nil {
		return remote.Task{}, err
	}
	var created apiTask
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, req, &created); err != nil {
		return remote.Task{}, err
	}
	names, err := c.projectNames(ctx)
	if err != nil {
		return remote.Task{}, err
	}
	return created.toTask(names), nil
}

// UpdateTask implements remote.Remote. The project is not changed.
func (c *Client) UpdateTask(ctx context.Context, task remote.Task) error {
	if err := remote.RequireID(task); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(task.ID), nil, newTaskRequest(task), nil)
}

// DeleteTask implements remote.Remote.
// A task the server no longer knows counts as deleted.
func (c *Client) DeleteTask(ctx context.Context, task remote.Task) error {
	id, err := remote.LookupID(ctx, c, task)
	if err != nil {
		return err
	}
	if id == "" {
		c.log.Debug("nothing to delete", zap.String("task", task.Name))
		return nil
	}
	err = c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil)
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) request(ctx context.Context, task remote.Task) (taskRequest, error) {
	if strings.TrimSpace(task.Name) == "" {
		return taskRequest{}, fmt.Errorf("%w: task name is empty", remote.ErrInvalidArgument)
	}
	req := newTaskRequest(task)
	if task.Project != "" {
		id, err := c.projectID(ctx, task.Project)
		if err != nil {
			return taskRequest{}, err
		}
		req.ProjectID = id
	}
	return req, nil
}

// projectNames returns project names keyed by ID.
func (c *Client) projectNames(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	cached := c.projects
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return c.loadProjects(ctx)
}

func (c *Client) loadProjects(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	err := c.paginate(ctx, "/projects", url.Values{}, func(page json.RawMessage) error {
		var items []apiProject
		if err := json.Unmarshal(page, &items); err != nil {
			return err
		}
		for _, p := range items {
			names[p.ID] = p.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.projects = names
	c.mu.Unlock()
	return names, nil
}

// projectID resolves a project name, reloading the project list once on a miss.
func (c *Client) projectID(ctx context.Context, name string) (string, error) {
	find := func(names map[string]string) string {
		for id, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(name)) {
				return id
			}
		}
		return ""
	}
	names, err := c.projectNames(ctx)
	if err != nil {
		return "", err
	}
	if id := find(names); id != "" {
		return id, nil
	}
	if names, err = c.loadProjects(ctx); err != nil {
		return "", err
	}
	if id := find(names); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: project %q", remote.ErrNotFound, name)
}

type pageResponse struct {
	Results    json.RawMessage `json:"results"`
	NextCursor *string         `json:"next_cursor"`
}

func (c *Client) paginate(ctx context.Context, path string, q url.Values, fn func(json.RawMessage) error) error {
	q.Set("limit", fmt.Sprint(PageSize))
	for {
		var p pageResponse
		if err := c.do(ctx, http.MethodGet, path, q, nil, &p); err != nil {
			return err
		}
		if len(p.Results) > 0 {
			if err := fn(p.Results); err != nil {
				return fmt.Errorf("decoding %s: %w", path, err)
			}
		}
		if p.NextCursor == nil || *p.NextCursor == "" {
			return nil
		}
		q.Set("cursor", *p.NextCursor)
	}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return remote.Unavailable(err)
	}
	defer resp.Body.Close()
	c.log.Debug("todoist request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(msg)))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: token rejected (%s)", remote.ErrRemoteUnavailable, detail)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", remote.ErrNotFound, detail)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", remote.ErrInvalidArgument, detail)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", remote.ErrRemoteUnavailable, detail)
	default:
		return fmt.Errorf("todoist: %s", detail)
	}
}
