// Package api provides the HTTP API server for graphapi.
// It uses Echo framework to serve hosts, containers and stacks as JSON:API
// documents and a WebSocket stream of graph changes.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"evalgo.org/graphapi/internal/auth"
	"evalgo.org/graphapi/internal/config"
	"evalgo.org/graphapi/internal/graph"
	"evalgo.org/graphapi/internal/storage"
	"evalgo.org/graphapi/internal/validation"
	"evalgo.org/graphapi/internal/version"
	"evalgo.org/graphapi/pkg/jsonapi"
)

// Server represents the graphapi API server.
type Server struct {
	echo       *echo.Echo
	store      storage.Store
	config     *config.Config
	logger     *slog.Logger
	wsHub      *Hub // WebSocket hub for real-time updates
	authMiddle *auth.Middleware
	validator  *validation.Validator
	links      *jsonapi.LinkRegistry

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new API server instance and starts its WebSocket hub.
func New(cfg *config.Config, store storage.Store, logger *slog.Logger) *Server {
	e := echo.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.Server.Debug

	// Set custom error handler
	e.HTTPErrorHandler = HTTPErrorHandler

	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		echo:       e,
		store:      store,
		config:     cfg,
		logger:     logger,
		wsHub:      NewHub(logger),
		authMiddle: auth.NewMiddleware(cfg),
		validator:  validation.New(),
		links:      graph.Links(cfg.JSONAPI.BaseURL),
		ctx:        ctx,
		cancel:     cancel,
	}

	go server.wsHub.Run(ctx)

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Request ID first so the request logger can tag every line with it
	s.echo.Use(middleware.RequestID())

	s.echo.Use(s.RequestLogger())

	s.echo.Use(middleware.Recover())

	s.echo.Use(SecurityHeaders)

	if len(s.config.Security.AllowedOrigins) > 0 {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.Security.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, auth.HeaderAPIKey},
		}))
	}

	if s.config.Security.RateLimit > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.Security.RateLimit),
		)))
	}

	s.echo.Use(ValidateContentType)
	s.echo.Use(ValidateAcceptHeader)
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	v1 := s.echo.Group("/api/v1")

	// WebSocket routes are registered before /:type so they win the match
	v1.GET("/ws", s.HandleWebSocket, s.authMiddle.RequireRead)
	v1.GET("/ws/stats", s.GetWebSocketStats, s.authMiddle.RequireRead)

	v1.GET("/stats", s.getStatistics, s.authMiddle.RequireRead)
	v1.POST("/validate/:type", s.validateResource, s.knownType, s.authMiddle.RequireRead)

	resources := v1.Group("/:type", s.knownType)
	resources.GET("", s.listResources, s.authMiddle.RequireRead, ValidateQueryParams)
	resources.POST("", s.createResource, s.authMiddle.RequireWrite, ValidateQueryParams)
	resources.GET("/:id", s.getResource, s.authMiddle.RequireRead, ValidateIDFormat, ValidateQueryParams)
	resources.DELETE("/:id", s.deleteResource, s.authMiddle.RequireWrite, ValidateIDFormat)
	resources.GET("/:id/relationships/:name", s.getRelationship, s.authMiddle.RequireRead, ValidateIDFormat, ValidateQueryParams)
	resources.GET("/:id/:name", s.getRelated, s.authMiddle.RequireRead, ValidateIDFormat, ValidateQueryParams)
}

// knownType rejects resource types the graph does not serve.
func (s *Server) knownType(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if typ := c.Param("type"); !graph.Known(typ) {
			return NewAPIError(http.StatusNotFound, "Unknown resource type", fmt.Sprintf("%q is not served", typ))
		}
		return next(c)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.logger.Info("starting graphapi server",
		"address", addr,
		"storage", s.config.Storage.Driver,
		"auth", s.config.Security.AuthEnabled,
		"debug", s.config.Server.Debug,
		"version", version.Version,
	)

	// Configure server timeouts
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout

	if s.config.Server.TLSEnabled {
		return s.echo.StartTLS(addr, s.config.Server.TLSCert, s.config.Server.TLSKey)
	}

	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down graphapi server")
	s.cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("error closing storage: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// healthCheck handles health check requests.
func (s *Server) healthCheck(c echo.Context) error {
	if err := s.store.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   "storage unreachable",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "graphapi",
		"version": version.Version,
		"storage": s.config.Storage.Driver,
		"clients": s.wsHub.ClientCount(),
	})
}

// BroadcastGraphEvent broadcasts a graph event to all WebSocket clients
func (s *Server) BroadcastGraphEvent(ctx context.Context, event GraphEvent) {
	if err := s.wsHub.BroadcastEvent(event); err != nil {
		s.logger.ErrorContext(ctx, "failed to broadcast event",
			"type", event.Type, "resource_type", event.ResourceType, "id", event.ID, "error", err)
	}
}

// ServeHTTP allows Server to implement http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
