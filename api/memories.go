package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/memhub/pkg/storage"
)

// SaveMemoryRequest is the payload for POST /memories.
type SaveMemoryRequest struct {
	Workspace string `json:"workspace"`
	Content   string `json:"content"`
	Scope     string `json:"scope"`
	TeamKey   string `json:"team_key"`
	Category  string `json:"category"`
}

// handleSaveMemory stores one memory through the storage port. Backend
// failures come back as accepted=false, not as an HTTP error.
func (s *Server) handleSaveMemory(c *fiber.Ctx) error {
	var req SaveMemoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Workspace == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "workspace and content are required"})
	}

	result, err := s.port.Save(c.Context(), storage.SaveRequest{
		Workspace: req.Workspace,
		Content:   req.Content,
		Scope:     req.Scope,
		TeamKey:   req.TeamKey,
		Category:  req.Category,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to save memory"})
	}

	status := fiber.StatusCreated
	if !result.Accepted {
		status = fiber.StatusBadGateway
	}

	return c.Status(status).JSON(result)
}

// handleGetMemory returns the most recent memory for a workspace partition.
// A category miss is found=false with a 200, not a 404.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	workspace := c.Query("workspace")
	if workspace == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "workspace parameter required"})
	}

	result, err := s.port.Get(c.Context(), workspace, c.Query("scope"), c.Query("team_key"), c.Query("category"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get memory"})
	}

	return c.JSON(result)
}

// handleListMemories lists stored memories for a scope, newest first.
func (s *Server) handleListMemories(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	summaries, err := s.port.List(c.Context(), c.Query("scope"), c.Query("team_key"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list memories"})
	}

	return c.JSON(fiber.Map{
		"count":    len(summaries),
		"memories": summaries,
	})
}

// handleDeleteMemories removes a workspace partition's memories and reports
// the count the back end removed or archived.
func (s *Server) handleDeleteMemories(c *fiber.Ctx) error {
	workspace := c.Query("workspace")
	if workspace == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "workspace parameter required"})
	}

	result, err := s.port.Delete(c.Context(), workspace, c.Query("scope"), c.Query("team_key"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete memories"})
	}

	return c.JSON(result)
}

// handleMemoryInfo describes the configured storage back end.
func (s *Server) handleMemoryInfo(c *fiber.Ctx) error {
	info, err := s.port.Info(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read backend info"})
	}

	return c.JSON(info)
}
