package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/swingscan/pkg/config"
	"github.com/wonny/swingscan/pkg/logger"
)

// Server represents the HTTP API server
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	config     *config.Config

	// cancelRequests aborts every request context (running scans included)
	cancelRequests context.CancelFunc
}

// New creates a new API server.
// POST /api/scan answers only when the scan finishes, hence the long write timeout.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  60 * time.Second,
			BaseContext:  func(net.Listener) context.Context { return baseCtx },
		},
		logger:         log,
		config:         cfg,
		cancelRequests: cancel,
	}
}

// Start listens on the configured port and serves until Shutdown
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(l)
}

// Serve serves on an existing listener until Shutdown
func (s *Server) Serve(l net.Listener) error {
	s.logger.WithFields(map[string]interface{}{
		"addr": l.Addr().String(),
		"env":  s.config.Env,
	}).Info("Starting API server")

	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// Shutdown stops accepting requests and cancels running scans.
// A cancelled scan answers 500 and keeps no partial result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	s.cancelRequests()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
