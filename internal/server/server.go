// Package server exposes a Linker over a JSON HTTP API.
//
// Every request under the API prefix acts as the tenant and actor named by
// the X-Tenant-ID and X-Actor-ID headers. Tenant isolation is enforced by the
// Linker itself, the headers only select whose view is served.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/recordlink"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	linker    recordlink.Linker
	gatherer  prometheus.Gatherer
	logger    *zerolog.Logger
	config    Config
	version   string
	startTime time.Time
}

// New creates a server over linker. gatherer backs /metrics and may be nil
// to disable it.
func New(linker recordlink.Linker, gatherer prometheus.Gatherer, logger *zerolog.Logger, cfg Config, version string) (*Server, error) {
	if linker == nil {
		return nil, errors.New("linker is required")
	}
	if cfg.AuthEnabled && cfg.APIKey == "" {
		return nil, errors.New("authentication enabled without an API key")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		linker:    linker,
		gatherer:  gatherer,
		logger:    logger,
		config:    cfg,
		version:   version,
		startTime: time.Now(),
	}, nil
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
}

// ListenAndServe serves until ctx is cancelled, then drains connections
// for at most ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Server starting")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("Server stopped gracefully")
	return nil
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
