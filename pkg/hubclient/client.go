// Package hubclient is the HTTP client for the memhub API, used by the push,
// pull, and watch commands.
package hubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a memhub API server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the given API target. The token may be empty
// for unauthenticated deployments.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Conflict carries the two revisions that disagreed on a rejected push.
type Conflict struct {
	ExpectedRevision string `json:"expected_revision"`
	ProvidedRevision string `json:"provided_revision"`
}

// PushRequest is the write request wire shape.
type PushRequest struct {
	WorkspaceID      string `json:"workspace_id"`
	Scope            string `json:"scope"`
	TeamKey          string `json:"team_key,omitempty"`
	Content          string `json:"content"`
	ExpectedRevision string `json:"expected_revision,omitempty"`
}

// PushResponse is the write response wire shape. Status is "ok" or
// "conflict"; Conflict is set only for the latter.
type PushResponse struct {
	Status      string    `json:"status"`
	Conflict    *Conflict `json:"conflict,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	Revision    string    `json:"revision,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
	SyncState   string    `json:"sync_state,omitempty"`
	DocURL      string    `json:"doc_url,omitempty"`
}

// PullResponse is the latest-session wire shape.
type PullResponse struct {
	SessionID      string    `json:"session_id"`
	Revision       string    `json:"revision"`
	Content        string    `json:"content"`
	Categories     []string  `json:"categories"`
	LastUpdated    time.Time `json:"last_updated"`
	Source         string    `json:"source"`
	DocName        string    `json:"doc_name,omitempty"`
	DocURL         string    `json:"doc_url,omitempty"`
	DocLastUpdated time.Time `json:"doc_last_updated,omitempty"`
}

// Workspace is the workspace wire shape.
type Workspace struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	DocPersonalID string            `json:"doc_personal_id,omitempty"`
	TeamMap       map[string]string `json:"team_map"`
	Categories    []string          `json:"categories"`
}

// Push submits a session write. A 409 decodes into a conflict response rather
// than an error so callers can branch on Status.
func (c *Client) Push(ctx context.Context, req PushRequest) (*PushResponse, error) {
	var resp PushResponse
	err := c.do(ctx, http.MethodPost, "/sessions", nil, req, &resp, http.StatusConflict)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// Latest fetches the newest session in a partition. A 404 returns
// ErrNotFound.
func (c *Client) Latest(ctx context.Context, workspaceID, scope, teamKey, category string) (*PullResponse, error) {
	params := url.Values{}
	params.Set("workspace_id", workspaceID)
	params.Set("scope", scope)
	if teamKey != "" {
		params.Set("team_key", teamKey)
	}
	if category != "" {
		params.Set("category", category)
	}

	var resp PullResponse
	if err := c.do(ctx, http.MethodGet, "/sessions/latest", params, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Revision fetches the workspace's current ledger revision.
func (c *Client) Revision(ctx context.Context, workspaceID string) (string, error) {
	var resp struct {
		Revision string `json:"revision"`
	}
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/revision"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return "", err
	}

	return resp.Revision, nil
}

// CreateWorkspace creates a workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name, docPersonalID string, teamMap map[string]string) (*Workspace, error) {
	req := map[string]any{
		"name":            name,
		"doc_personal_id": docPersonalID,
		"team_map":        teamMap,
	}

	var resp Workspace
	if err := c.do(ctx, http.MethodPost, "/workspaces", nil, req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ListWorkspaces returns all workspaces.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var resp []Workspace
	if err := c.do(ctx, http.MethodGet, "/workspaces", nil, nil, &resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// AuthURL fetches the mirror provider's consent URL for a workspace.
func (c *Client) AuthURL(ctx context.Context, workspaceID string) (string, error) {
	params := url.Values{}
	params.Set("workspace_id", workspaceID)

	var resp struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/google", params, nil, &resp); err != nil {
		return "", err
	}

	return resp.AuthURL, nil
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

// do runs one request. Statuses listed in acceptStatuses are decoded like
// success; everything else at or above 400 becomes a typed error.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any, acceptStatuses ...int) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	accepted := resp.StatusCode < 400
	for _, status := range acceptStatuses {
		if resp.StatusCode == status {
			accepted = true
		}
	}

	if !accepted {
		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound{Path: path}
		}
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ErrServer{Status: resp.StatusCode, Body: string(payload)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
