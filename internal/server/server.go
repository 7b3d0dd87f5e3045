// Package server provides the HTTP API for Pustaka.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/pustaka/internal/config"
	"github.com/hyperjump/pustaka/internal/models"
	"github.com/hyperjump/pustaka/internal/service"
)

// Backend answers the API's requests. *service.Service implements it.
type Backend interface {
	Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Health(ctx context.Context) service.HealthStatus
}

// Server is the HTTP server for the Pustaka API.
type Server struct {
	backend Backend
	config  *config.ServerConfig
	logger  *zap.Logger
	limiter *clientLimiter
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(backend Backend, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		backend: backend,
		config:  cfg,
		logger:  logger,
		limiter: newClientLimiter(cfg.RateLimitPerMinute),
	}
}

// Handler builds the router with its middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/api/search", s.handleSearch)
		r.Get("/api/stats", s.handleStats)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
