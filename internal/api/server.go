package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/internal/types"
	"github.com/Project-Sylos/Tabula/sdk"
)

// Server represents the HTTP API server
type Server struct {
	router *chi.Mux
	ws     *sdk.Tabula
	config *types.APIConfig
	http   *http.Server
}

// NewServer creates a new API server
func NewServer(ws *sdk.Tabula, config *types.APIConfig) *Server {
	router := NewRouter(ws).SetupRoutes()
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	// Event streams never go idle, so their contexts end when shutdown begins
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancel)

	return &Server{
		router: router,
		ws:     ws,
		config: config,
		http:   srv,
	}
}

// Start serves until Stop is called. It returns nil after a graceful stop.
func (s *Server) Start() error {
	logger := logging.Named("api")
	logger.Info("starting Tabula API server",
		zap.String("addr", s.http.Addr),
		zap.String("api", fmt.Sprintf("http://%s/api/v1/", s.http.Addr)),
		zap.String("health", fmt.Sprintf("http://%s/health", s.http.Addr)))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// GetRouter returns the configured router
func (s *Server) GetRouter() *chi.Mux {
	return s.router
}

// Stop shuts the HTTP server down. The workspace stays open; its owner
// closes it once every other user has finished.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
