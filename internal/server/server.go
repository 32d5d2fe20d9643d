// ABOUTME: HTTP API server for rowan-gateway
// ABOUTME: Wires auth, conversation, chat, and model management endpoints onto a ServeMux

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rowanlabs/rowan/internal/auth"
	"github.com/rowanlabs/rowan/internal/chat"
	"github.com/rowanlabs/rowan/internal/modelroute"
	"github.com/rowanlabs/rowan/internal/ollama"
	"github.com/rowanlabs/rowan/internal/store"
)

// ModelManager defines what the server needs from the inference backend for
// model management endpoints.
type ModelManager interface {
	Tags(ctx context.Context) ([]ollama.TagModel, error)
	Pull(ctx context.Context, name string) error
}

// Server is the HTTP API surface. It owns no business logic; every handler
// delegates to the chat service, the store, or the backend client.
type Server struct {
	store    store.Store
	chat     *chat.Service
	routes   *modelroute.Table
	verifier *auth.JWTVerifier
	models   ModelManager
	tokenTTL time.Duration
	logger   *slog.Logger
}

// Config collects the collaborators the server needs.
type Config struct {
	Store    store.Store
	Chat     *chat.Service
	Routes   *modelroute.Table
	Verifier *auth.JWTVerifier
	Models   ModelManager
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// New creates a Server from its collaborators.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Server{
		store:    cfg.Store,
		chat:     cfg.Chat,
		routes:   cfg.Routes,
		verifier: cfg.Verifier,
		models:   cfg.Models,
		tokenTTL: tokenTTL,
		logger:   logger.With("component", "server"),
	}
}

// Handler builds the full route table and returns the root handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	// Authenticated API
	requireAuth := auth.RequireAuth(s.verifier)
	api := http.NewServeMux()
	api.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	api.HandleFunc("GET /api/conversations", s.handleListConversations)
	api.HandleFunc("GET /api/conversations/{id}/messages", s.handleListMessages)
	api.HandleFunc("POST /api/chat", s.handleChat)
	api.HandleFunc("GET /api/models/available", s.handleModelsAvailable)
	api.HandleFunc("GET /api/models/installed", s.handleModelsInstalled)
	api.HandleFunc("POST /api/models/download", s.handleModelDownload)
	mux.Handle("/api/", requireAuth(api))

	return mux
}

// Run serves the API on addr until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
