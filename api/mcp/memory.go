package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/memhub/pkg/hub"
)

var (
	pushToolName    = "memory_push"
	pushDescription = "Save a session handoff to the memory hub. The write commits locally and is mirrored to the workspace's remote document when one is linked. Pass the expected_revision from a prior pull to detect concurrent writers; a stale revision returns a conflict instead of overwriting."

	pullToolName    = "memory_pull"
	pullDescription = "Retrieve the most recent session handoff from the memory hub for a workspace partition, optionally filtered by category. The result includes the current revision to pass back as expected_revision on the next push."
)

// PushInput represents the input arguments for the MCP memory_push tool.
type PushInput struct {
	WorkspaceID      string `json:"workspace_id" jsonschema:"the workspace to write into"`
	Scope            string `json:"scope,omitempty" jsonschema:"personal or team; defaults to personal"`
	TeamKey          string `json:"team_key,omitempty" jsonschema:"the team partition key, required when scope is team"`
	Content          string `json:"content" jsonschema:"the session handoff content to save"`
	ExpectedRevision string `json:"expected_revision,omitempty" jsonschema:"the revision the caller last observed; empty skips the conflict check"`
}

// PushOutput represents the structured output of a push.
type PushOutput struct {
	Status      string        `json:"status"`
	Conflict    *hub.Conflict `json:"conflict,omitempty"`
	SessionID   string        `json:"session_id,omitempty"`
	Revision    string        `json:"revision,omitempty"`
	Categories  []string      `json:"categories,omitempty"`
	SyncState   string        `json:"sync_state,omitempty"`
	DocURL      string        `json:"doc_url,omitempty"`
	LastUpdated time.Time     `json:"last_updated,omitempty"`
}

// handlePush processes a memory push request via MCP.
func (s *Server) handlePush(ctx context.Context, _ *mcp.CallToolRequest, input PushInput) (*mcp.CallToolResult, PushOutput, error) {
	if input.WorkspaceID == "" {
		return toolError("workspace_id is required"), PushOutput{}, nil
	}
	if input.Content == "" {
		return toolError("content is required"), PushOutput{}, nil
	}
	if input.Scope == "" {
		input.Scope = hub.ScopePersonal
	}

	result, err := s.config.Hub.CreateSession(ctx, hub.WriteRequest{
		WorkspaceID:  input.WorkspaceID,
		Scope:        input.Scope,
		TeamKey:      input.TeamKey,
		Content:      input.Content,
		BaseRevision: input.ExpectedRevision,
	})
	if err != nil {
		return toolError(fmt.Sprintf("Memory push failed: %v", err)), PushOutput{}, nil
	}

	output := PushOutput{
		Status:      string(result.Status),
		Conflict:    result.Conflict,
		SessionID:   result.SessionID,
		Revision:    result.Revision,
		Categories:  result.Categories,
		SyncState:   string(result.SyncState),
		DocURL:      result.DocURL,
		LastUpdated: result.LastUpdated,
	}

	return marshalResult(output), output, nil
}

// PullInput represents the input arguments for the MCP memory_pull tool.
type PullInput struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"the workspace to read from"`
	Scope       string `json:"scope,omitempty" jsonschema:"personal or team; defaults to personal"`
	TeamKey     string `json:"team_key,omitempty" jsonschema:"the team partition key, required when scope is team"`
	Category    string `json:"category,omitempty" jsonschema:"only return the latest session carrying this category"`
}

// PullOutput represents the structured output of a pull.
type PullOutput struct {
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

// handlePull processes a memory pull request via MCP.
func (s *Server) handlePull(ctx context.Context, _ *mcp.CallToolRequest, input PullInput) (*mcp.CallToolResult, PullOutput, error) {
	if input.WorkspaceID == "" {
		return toolError("workspace_id is required"), PullOutput{}, nil
	}
	if input.Scope == "" {
		input.Scope = hub.ScopePersonal
	}

	result, err := s.config.Hub.LatestSession(ctx, hub.ReadRequest{
		WorkspaceID: input.WorkspaceID,
		Scope:       input.Scope,
		TeamKey:     input.TeamKey,
		Category:    input.Category,
	})
	if err != nil {
		return toolError(fmt.Sprintf("Memory pull failed: %v", err)), PullOutput{}, nil
	}

	output := PullOutput{
		SessionID:      result.SessionID,
		Revision:       result.Revision,
		Content:        result.Content,
		Categories:     result.Categories,
		LastUpdated:    result.LastUpdated,
		Source:         string(result.Source),
		DocName:        result.DocName,
		DocURL:         result.DocURL,
		DocLastUpdated: result.DocLastUpdated,
	}

	return marshalResult(output), output, nil
}

// toolError wraps a message in an error tool result.
func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// marshalResult serializes a tool output as the textual content block.
func marshalResult(output any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
