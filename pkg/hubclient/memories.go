package hubclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SaveMemoryRequest is the wire shape for storing one memory through the
// storage port.
type SaveMemoryRequest struct {
	Workspace string `json:"workspace"`
	Content   string `json:"content"`
	Scope     string `json:"scope,omitempty"`
	TeamKey   string `json:"team_key,omitempty"`
	Category  string `json:"category,omitempty"`
}

// SaveMemoryResult is the normalized save outcome. Accepted=false means the
// back end rejected the write; branch on the field, not on the error return.
type SaveMemoryResult struct {
	Accepted    bool   `json:"accepted"`
	RecordID    string `json:"record_id,omitempty"`
	NewRevision string `json:"new_revision,omitempty"`
	Error       string `json:"error,omitempty"`
}

// MemoryResult is the point-read outcome. Found=false is a normal outcome,
// including a category-filter miss.
type MemoryResult struct {
	Found    bool           `json:"found"`
	Content  string         `json:"content,omitempty"`
	Metadata MemoryMetadata `json:"metadata,omitempty"`
}

// MemoryMetadata describes a returned memory.
type MemoryMetadata struct {
	RecordID  string    `json:"record_id"`
	Revision  string    `json:"revision"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemorySummary is one entry in a memory list.
type MemorySummary struct {
	RecordID  string    `json:"record_id"`
	Workspace string    `json:"workspace"`
	Scope     string    `json:"scope"`
	TeamKey   string    `json:"team_key,omitempty"`
	Category  string    `json:"category,omitempty"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryList is the list response wire shape.
type MemoryList struct {
	Count    int             `json:"count"`
	Memories []MemorySummary `json:"memories"`
}

// DeleteMemoriesResult reports how many records the back end removed or
// archived.
type DeleteMemoriesResult struct {
	DeletedCount int `json:"deleted_count"`
}

// MemoryInfo describes the configured storage back end.
type MemoryInfo struct {
	Backend      string            `json:"backend"`
	Capabilities []string          `json:"capabilities"`
	Limits       map[string]string `json:"limits,omitempty"`
}

// SaveMemory stores one memory. A 502 decodes into an Accepted=false result
// rather than an error so callers can report the back end's reason.
func (c *Client) SaveMemory(ctx context.Context, req SaveMemoryRequest) (*SaveMemoryResult, error) {
	var resp SaveMemoryResult
	err := c.do(ctx, http.MethodPost, "/memories", nil, req, &resp, http.StatusBadGateway)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// LatestMemory fetches the most recent memory in a workspace partition.
func (c *Client) LatestMemory(ctx context.Context, workspace, scope, teamKey, category string) (*MemoryResult, error) {
	params := url.Values{}
	params.Set("workspace", workspace)
	if scope != "" {
		params.Set("scope", scope)
	}
	if teamKey != "" {
		params.Set("team_key", teamKey)
	}
	if category != "" {
		params.Set("category", category)
	}

	var resp MemoryResult
	if err := c.do(ctx, http.MethodGet, "/memories/latest", params, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// ListMemories lists stored memories for a scope, newest first.
func (c *Client) ListMemories(ctx context.Context, scope, teamKey string, limit int) (*MemoryList, error) {
	params := url.Values{}
	if scope != "" {
		params.Set("scope", scope)
	}
	if teamKey != "" {
		params.Set("team_key", teamKey)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp MemoryList
	if err := c.do(ctx, http.MethodGet, "/memories", params, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// DeleteMemories removes a workspace partition's memories.
func (c *Client) DeleteMemories(ctx context.Context, workspace, scope, teamKey string) (*DeleteMemoriesResult, error) {
	params := url.Values{}
	params.Set("workspace", workspace)
	if scope != "" {
		params.Set("scope", scope)
	}
	if teamKey != "" {
		params.Set("team_key", teamKey)
	}

	var resp DeleteMemoriesResult
	if err := c.do(ctx, http.MethodDelete, "/memories", params, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// MemoryBackendInfo describes the server's configured storage back end.
func (c *Client) MemoryBackendInfo(ctx context.Context) (*MemoryInfo, error) {
	var resp MemoryInfo
	if err := c.do(ctx, http.MethodGet, "/memories/info", nil, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
