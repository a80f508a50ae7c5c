// Package server binds the loopback listener and runs the Echo server on it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"webview-proxy-go/internal/config"
	"webview-proxy-go/internal/endpoint"
	"webview-proxy-go/internal/portalloc"
)

// State is the lifecycle stage of the listener.
type State int32

const (
	StateUnbound State = iota
	StateBound
	StateServing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// ErrAlreadyStarted is returned when Start is called on a server that has
// already left the unbound state.
var ErrAlreadyStarted = errors.New("server already started")

// Server owns the local listener. Start moves it Unbound -> Bound -> Serving
// and records the bound port in the endpoint registry.
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	registry *endpoint.Registry
	logger   *slog.Logger

	state atomic.Int32
	addr  atomic.Pointer[string]
}

// New creates a Server in the unbound state.
func New(e *echo.Echo, cfg *config.Config, registry *endpoint.Registry, logger *slog.Logger) *Server {
	return &Server{
		echo:     e,
		cfg:      cfg,
		registry: registry,
		logger:   logger.With("component", "server"),
	}
}

// State reports the current lifecycle stage.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Addr returns the bound host:port, or "" before Start succeeds.
func (s *Server) Addr() string {
	if p := s.addr.Load(); p != nil {
		return *p
	}
	return ""
}

// Start finds a free port from server.base_port upward, binds it on loopback
// and begins serving in the background. A port taken between the probe and
// the bind fails startup.
func (s *Server) Start(ctx context.Context) error {
	if s.State() != StateUnbound {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, s.State())
	}

	port, err := portalloc.Find(endpoint.Host, s.cfg.Server.BasePort, s.cfg.Server.PortSpan)
	if err != nil {
		return fmt.Errorf("allocate port: %w", err)
	}

	addr := net.JoinHostPort(endpoint.Host, strconv.Itoa(port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	if err := s.registry.Set(port); err != nil {
		_ = ln.Close()
		return err
	}
	s.addr.Store(&addr)
	s.state.Store(int32(StateBound))

	s.logger.Info("proxy listening", "addr", addr, "port", port)

	s.state.Store(int32(StateServing))
	go func() {
		if err := s.echo.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "err", err)
		}
	}()
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.State() != StateServing {
		return nil
	}
	s.state.Store(int32(StateStopped))
	s.logger.Info("shutting down server")
	return s.echo.Shutdown(ctx)
}

// Register ties the server to the fx application lifecycle.
func Register(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Shutdown,
	})
}
