package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/memhub/pkg/hub"
	"github.com/papercomputeco/memhub/pkg/store"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateWorkspaceRequest is the payload for POST /workspaces.
type CreateWorkspaceRequest struct {
	Name          string            `json:"name"`
	DocPersonalID string            `json:"doc_personal_id"`
	TeamMap       map[string]string `json:"team_map"`
}

// CreateSessionRequest is the payload for POST /sessions.
type CreateSessionRequest struct {
	WorkspaceID      string `json:"workspace_id"`
	Scope            string `json:"scope"`
	TeamKey          string `json:"team_key"`
	Content          string `json:"content"`
	ExpectedRevision string `json:"expected_revision"`
}

// SessionResponse is the payload for an accepted or rejected write.
type SessionResponse struct {
	Status      string        `json:"status"`
	Conflict    *hub.Conflict `json:"conflict,omitempty"`
	SessionID   string        `json:"session_id,omitempty"`
	Revision    string        `json:"revision,omitempty"`
	Categories  []string      `json:"categories,omitempty"`
	LastUpdated time.Time     `json:"last_updated,omitempty"`
	SyncState   string        `json:"sync_state,omitempty"`
	DocURL      string        `json:"doc_url,omitempty"`
}

// LatestSessionResponse is the payload for GET /sessions/latest.
type LatestSessionResponse struct {
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

// CreateTokenRequest is the payload for POST /tokens.
type CreateTokenRequest struct {
	WorkspaceID string   `json:"workspace_id"`
	Scopes      []string `json:"scopes"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleCreateWorkspace creates a workspace with a seeded revision ledger.
func (s *Server) handleCreateWorkspace(c *fiber.Ctx) error {
	var req CreateWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "name is required"})
	}

	ws, err := s.hub.CreateWorkspace(c.Context(), req.Name, req.DocPersonalID, req.TeamMap)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create workspace"})
	}

	return c.Status(fiber.StatusCreated).JSON(ws)
}

// handleListWorkspaces returns all workspaces.
func (s *Server) handleListWorkspaces(c *fiber.Ctx) error {
	workspaces, err := s.hub.ListWorkspaces(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list workspaces"})
	}

	return c.JSON(workspaces)
}

// handleGetWorkspace returns a single workspace by id.
func (s *Server) handleGetWorkspace(c *fiber.Ctx) error {
	ws, err := s.hub.GetWorkspace(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "workspace not found"})
	}

	return c.JSON(ws)
}

// handleGetRevision returns the workspace's current ledger revision.
func (s *Server) handleGetRevision(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.hub.GetWorkspace(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "workspace not found"})
	}

	revision, err := s.hub.CurrentRevision(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read revision"})
	}

	return c.JSON(fiber.Map{"revision": revision})
}

// handleCreateSession appends a session. A stale expected revision is a 409
// with the two revisions that disagreed; nothing changes on conflict.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Scope == "" {
		req.Scope = hub.ScopePersonal
	}

	result, err := s.hub.CreateSession(c.Context(), hub.WriteRequest{
		WorkspaceID:  req.WorkspaceID,
		Scope:        req.Scope,
		TeamKey:      req.TeamKey,
		Content:      req.Content,
		BaseRevision: req.ExpectedRevision,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	if result.Status == hub.StatusConflict {
		return c.Status(fiber.StatusConflict).JSON(SessionResponse{
			Status:   string(result.Status),
			Conflict: result.Conflict,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		Status:      string(result.Status),
		SessionID:   result.SessionID,
		Revision:    result.Revision,
		Categories:  result.Categories,
		LastUpdated: result.LastUpdated,
		SyncState:   string(result.SyncState),
		DocURL:      result.DocURL,
	})
}

// handleLatestSession returns the newest session in a partition merged with
// remote document metadata when the mirror is reachable.
func (s *Server) handleLatestSession(c *fiber.Ctx) error {
	scope := c.Query("scope")
	if scope == "" {
		scope = hub.ScopePersonal
	}

	result, err := s.hub.LatestSession(c.Context(), hub.ReadRequest{
		WorkspaceID: c.Query("workspace_id"),
		Scope:       scope,
		TeamKey:     c.Query("team_key"),
		Category:    c.Query("category"),
	})
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(LatestSessionResponse{
		SessionID:      result.SessionID,
		Revision:       result.Revision,
		Content:        result.Content,
		Categories:     result.Categories,
		LastUpdated:    result.LastUpdated,
		Source:         string(result.Source),
		DocName:        result.DocName,
		DocURL:         result.DocURL,
		DocLastUpdated: result.DocLastUpdated,
	})
}

// handleListSessions returns recent sessions for a workspace, newest first.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "workspace_id parameter required"})
	}

	limit := c.QueryInt("limit", 20)

	sessions, err := s.hub.ListSessions(c.Context(), workspaceID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list sessions"})
	}

	return c.JSON(fiber.Map{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// handleCreateToken issues a workspace-scoped API token.
func (s *Server) handleCreateToken(c *fiber.Ctx) error {
	var req CreateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	token, err := s.hub.CreateToken(c.Context(), req.WorkspaceID, req.Scopes)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(token)
}

// handleAuthURL returns the mirror provider's consent URL for a workspace.
func (s *Server) handleAuthURL(c *fiber.Ctx) error {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "workspace_id parameter required"})
	}

	authURL, err := s.hub.AuthURL(c.Context(), workspaceID)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"auth_url": authURL})
}

// handleAuthCallback exchanges the authorization code carried back by the
// provider redirect. The state parameter is the workspace id.
func (s *Server) handleAuthCallback(c *fiber.Ctx) error {
	workspaceID := c.Query("state")
	code := c.Query("code")
	if workspaceID == "" || code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "state and code parameters required"})
	}

	if err := s.hub.CompleteAuth(c.Context(), workspaceID, code); err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(fiber.Map{"status": "authorized", "workspace_id": workspaceID})
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.As(err, &store.ErrWorkspaceNotFound{}):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	case errors.As(err, &store.ErrSessionNotFound{}):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	case errors.As(err, &hub.ErrUnknownTeam{}),
		errors.As(err, &hub.ErrInvalidScope{}),
		errors.As(err, &hub.ErrEmptyContent{}):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case errors.As(err, &hub.ErrAuthUnavailable{}):
		return c.Status(fiber.StatusNotImplemented).JSON(ErrorResponse{Error: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
}
