// Package googletasks implements remote.Remote using the Google Tasks API.
//
// Task lists play the role of projects. Google Tasks has no labels or
// priorities, so both are kept on a trailing line of the task notes,
// e.g. "#email #chore !3".
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"mole/internal/config"
	"mole/internal/remote"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// idSep joins list and task IDs into a remote.Task ID.
	idSep = ":"
)

// Client implements remote.Remote using Google Tasks API.
type Client struct {
	svc *tasks.Service
	log *zap.Logger

	mu    sync.Mutex
	lists []list
}

type list struct {
	ID    string
	Title string
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Client, error) {
	httpClient, err := HTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return newClient(svc, log), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and endpoint (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return newClient(svc, nil), nil
}

func newClient(svc *tasks.Service, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{svc: svc, log: log}
}

// GetTasks implements remote.Remote. Query is not supported.
func (c *Client) GetTasks(ctx context.Context, f remote.Filter) ([]remote.Task, error) {
	if f.Query != "" {
		return nil, fmt.Errorf("%w: google tasks does not support filter queries", remote.ErrInvalidArgument)
	}
	lists, err := c.listLists(ctx, false)
	if err != nil {
		return nil, err
	}

	result := []remote.Task{}
	for _, l := range lists {
		if f.Project != "" && !sameTitle(l.Title, f.Project) {
			continue
		}
		got, err := c.listOpenTasks(ctx, l)
		if err != nil {
			return nil, err
		}
		for _, t := range got {
			// Project was matched case-insensitively above.
			if (remote.Filter{Name: f.Name, Label: f.Label}).Matches(t) {
				result = append(result, t)
			}
		}
	}
	return result, nil
}

// CreateTask implements remote.Remote. An empty project means the default list.
func (c *Client) CreateTask(ctx context.Context, task remote.Task) (remote.Task, error) {
	if strings.TrimSpace(task.Name) == "" {
		return remote.Task{}, fmt.Errorf("%w: task name is empty", remote.ErrInvalidArgument)
	}
	l, err := c.resolveList(ctx, task.Project)
	if err != nil {
		return remote.Task{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()
	created, err := c.svc.Tasks.Insert(l.ID, toAPI(task)).Context(ctx).Do()
	if err != nil {
		return remote.Task{}, wrapError(err)
	}
	return fromAPI(l, created), nil
}

// UpdateTask implements remote.Remote.
func (c *Client) UpdateTask(ctx context.Context, task remote.Task) error {
	if err := remote.RequireID(task); err != nil {
		return err
	}
	listID, taskID, err := splitID(task.ID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()
	patch := toAPI(task)
	patch.ForceSendFields = []string{"Notes"}
	if _, err := c.svc.Tasks.Patch(listID, taskID, patch).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// DeleteTask implements remote.Remote.
func (c *Client) DeleteTask(ctx context.Context, task remote.Task) error {
	id, err := remote.LookupID(ctx, c, task)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	listID, taskID, err := splitID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()
	err = wrapError(c.svc.Tasks.Delete(listID, taskID).Context(ctx).Do())
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	return err
}

// listLists returns all task lists in API order, cached after the first call.
func (c *Client) listLists(ctx context.Context, refresh bool) ([]list, error) {
	c.mu.Lock()
	cached := c.lists
	c.mu.Unlock()
	if cached != nil && !refresh {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	result := []list{}
	err := c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, l := range resp.Items {
			result = append(result, list{ID: l.Id, Title: l.Title})
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	c.mu.Lock()
	c.lists = result
	c.mu.Unlock()
	return result, nil
}

// resolveList finds a list by name (case-insensitive, trimmed).
func (c *Client) resolveList(ctx context.Context, name string) (list, error) {
	if strings.TrimSpace(name) == "" {
		return list{ID: DefaultListID}, nil
	}
	for _, refresh := range []bool{false, true} {
		lists, err := c.listLists(ctx, refresh)
		if err != nil {
			return list{}, err
		}
		var matches []list
		for _, l := range lists {
			if sameTitle(l.Title, name) {
				matches = append(matches, l)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return list{}, fmt.Errorf("%w: ambiguous list name: %s", remote.ErrInvalidArgument, name)
		}
	}
	return list{}, fmt.Errorf("%w: list %q", remote.ErrNotFound, name)
}

func (c *Client) listOpenTasks(ctx context.Context, l list) ([]remote.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []remote.Task
	err := c.svc.Tasks.List(l.ID).
		MaxResults(PageSize).
		ShowCompleted(false).
		ShowDeleted(false).
		ShowHidden(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, fromAPI(l, t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func joinID(listID, taskID string) string {
	return listID + idSep + taskID
}

func splitID(id string) (listID, taskID string, err error) {
	listID, taskID, ok := strings.Cut(id, idSep)
	if !ok || listID == "" || taskID == "" {
		return "", "", fmt.Errorf("%w: malformed task id %q", remote.ErrInvalidArgument, id)
	}
	return listID, taskID, nil
}

// wrapError maps API errors onto the remote error kinds.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: token expired or revoked (run: mole login)", remote.ErrRemoteUnavailable)
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", remote.ErrNotFound, err)
		case apiErr.Code == http.StatusBadRequest:
			return fmt.Errorf("%w: %v", remote.ErrInvalidArgument, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500:
			return remote.Unavailable(err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", remote.ErrRemoteUnavailable)
	}
	// Transport failures: DNS, refused connections, token refresh.
	return remote.Unavailable(err)
}
