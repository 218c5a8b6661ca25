package webhook

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/scinfra-pro/tg-webhook/internal/stop"
)

// State is the lifecycle state of a Server.
type State int32

const (
	StateUnbound State = iota
	StateServing
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateServing:
		return "serving"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server logger.
func WithServerLogger(logger *zap.SugaredLogger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// Server runs an HTTP handler on a tcp address or a unix socket.
type Server struct {
	location        Location
	handler         http.Handler
	shutdownTimeout time.Duration
	logger          *zap.SugaredLogger

	state atomic.Int32
}

// NewServer creates a server for handler at loc.
func NewServer(loc Location, handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		location:        loc,
		handler:         handler,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Bind opens the listener. For unix sockets a stale socket file is removed
// and missing parent directories are created first.
func (s *Server) Bind() (net.Listener, error) {
	if !s.location.IsUnix() {
		ln, err := net.Listen("tcp", s.location.Address)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", s.location, err)
		}
		return ln, nil
	}

	path := s.location.Address
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.location, err)
	}
	return unixListener{UnixListener: ln}, nil
}

// Serve serves on ln until shutdown is closed, then drains in-flight
// requests. A fatal listener error stops token so the rest of the pipeline
// does not wait forever, and is returned.
func (s *Server) Serve(ln net.Listener, shutdown <-chan struct{}, token stop.Token) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ConnContext:       connContext,
	}

	s.state.Store(int32(StateServing))
	s.logger.Infow("webhook server starting", "location", s.location.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.state.Store(int32(StateStopped))
		token.Stop()
		s.logger.Errorw("webhook server error", "location", s.location.String(), "error", err)
		return fmt.Errorf("webhook server error: %w", err)
	case <-shutdown:
	}

	s.state.Store(int32(StateDraining))
	s.logger.Infow("webhook server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	<-errCh
	s.state.Store(int32(StateStopped))
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("webhook server shutdown failed: %w", err)
	}

	s.logger.Infow("webhook server stopped")
	return nil
}
