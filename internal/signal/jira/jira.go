// Package jira lists issues from a Jira server's REST search API.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultJQL selects the current user's unresolved issues.
	DefaultJQL = "assignee = currentUser() AND statusCategory != Done"

	// APITimeout bounds a single search request.
	APITimeout = 15 * time.Second

	pageSize = 100
)

// Issue is the part of a Jira issue the rules care about.
type Issue struct {
	Key     string
	Summary string
}

// Client searches one Jira server.
type Client struct {
	baseURL string
	jql     string
	http    *http.Client
}

// New creates a client authenticating with a personal access token.
func New(ctx context.Context, serverURL, token, jql string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return NewWithHTTPClient(oauth2.NewClient(ctx, ts), serverURL, jql)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
func NewWithHTTPClient(httpClient *http.Client, serverURL, jql string) *Client {
	if jql == "" {
		jql = DefaultJQL
	}
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		jql:     jql,
		http:    httpClient,
	}
}

type searchResponse struct {
	StartAt    int `json:"startAt"`
	MaxResults int `json:"maxResults"`
	Total      int `json:"total"`
	Issues     []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
		} `json:"fields"`
	} `json:"issues"`
}

// Issues returns every issue matching the client's JQL.
func (c *Client) Issues(ctx context.Context) ([]Issue, error) {
	var issues []Issue
	for start := 0; ; {
		page, err := c.search(ctx, start)
		if err != nil {
			return nil, err
		}
		for _, is := range page.Issues {
			issues = append(issues, Issue{Key: is.Key, Summary: is.Fields.Summary})
		}
		start += len(page.Issues)
		if len(page.Issues) == 0 || start >= page.Total {
			return issues, nil
		}
	}
}

func (c *Client) search(ctx context.Context, start int) (*searchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	q := url.Values{}
	q.Set("jql", c.jql)
	q.Set("fields", "summary")
	q.Set("startAt", strconv.Itoa(start))
	q.Set("maxResults", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/api/2/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jira search: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("jira search: decoding response: %w", err)
	}
	return &page, nil
}
