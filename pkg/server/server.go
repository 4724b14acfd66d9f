package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultShutdownTimeout bounds a graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// Config configures the telemetry server.
type Config struct {
	// ListenAddress is the TCP address to listen on, e.g. "127.0.0.1:9464".
	ListenAddress string

	// ShutdownTimeout bounds a graceful shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration
}

// Server is the HTTP server for metrics and health endpoints.
type Server struct {
	config     Config
	handler    http.Handler
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.RWMutex
	isRunning  bool
	ready      chan struct{}
}

// NewServer creates a server for handler. Routes are registered by the
// caller on the mux it passes in.
func NewServer(cfg Config, handler http.Handler, logger *slog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:  cfg,
		handler: handler,
		logger:  logger.With("component", "server"),
		ready:   make(chan struct{}),
	}
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           RecoveryMiddleware(s.logger, LoggingMiddleware(s.logger, s.handler)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.isRunning = true
	s.mu.Unlock()
	close(s.ready)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting telemetry server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.setRunning(false)
		return err
	}
}

// Addr returns the address the server listens on once Start has bound it.
// It blocks until then.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.listener.Addr()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	running := s.isRunning
	s.mu.RUnlock()
	if !running {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}

	s.setRunning(false)
	s.logger.Info("telemetry server stopped")
	return shutdownErr
}

func (s *Server) setRunning(running bool) {
	s.mu.Lock()
	s.isRunning = running
	s.mu.Unlock()
}
