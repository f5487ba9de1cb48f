package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/memhub/api/mcp"
	"github.com/papercomputeco/memhub/pkg/hub"
	"github.com/papercomputeco/memhub/pkg/storage"
)

// Server is the API server for the memhub session hub.
type Server struct {
	config Config
	hub    *hub.Service
	port   storage.Port
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The hub service and storage port are injected to allow sharing with other
// components (e.g., the clipboard watcher when run in-process).
func NewServer(config Config, svc *hub.Service, port storage.Port, mcpServer *mcp.Server, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		hub:    svc,
		port:   port,
		logger: logger,
		app:    app,
	}

	app.Get("/health", s.handleHealth)

	app.Post("/workspaces", s.handleCreateWorkspace)
	app.Get("/workspaces", s.handleListWorkspaces)
	app.Get("/workspaces/:id", s.handleGetWorkspace)
	app.Get("/workspaces/:id/revision", s.handleGetRevision)

	app.Post("/sessions", s.handleCreateSession)
	app.Get("/sessions/latest", s.handleLatestSession)
	app.Get("/sessions", s.handleListSessions)

	app.Post("/tokens", s.handleCreateToken)

	app.Get("/auth/google", s.handleAuthURL)
	app.Get("/auth/google/callback", s.handleAuthCallback)

	app.Post("/memories", s.handleSaveMemory)
	app.Get("/memories/latest", s.handleGetMemory)
	app.Get("/memories", s.handleListMemories)
	app.Delete("/memories", s.handleDeleteMemories)
	app.Get("/memories/info", s.handleMemoryInfo)

	if mcpServer != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
