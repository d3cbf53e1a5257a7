package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/wlan"
)

// Controller is the part of the station manager the server exposes.
type Controller interface {
	Snapshot() wlan.Snapshot
	Watch(fn func(wlan.Snapshot)) (cancel func())
	Force(op wlan.Operation, timeout time.Duration) error
	Try(op wlan.Operation, timeout time.Duration) error
	SetConnecting(c wlan.Credential)
}

var _ Controller = (*wlan.Manager)(nil)

// Config holds the server configuration
type Config struct {
	// Listen is the TCP address, e.g. ":8080" or "127.0.0.1:0".
	Listen string
}

// Server serves the diagnostics API: GET /api/state, GET /api/version
// and the /ws stream.
type Server struct {
	config   Config
	ctl      Controller
	hub      *hub
	http     *http.Server
	listener net.Listener

	mu        sync.Mutex
	unwatch   func()
	serveDone chan struct{}
}

// New creates a new Server instance
func New(config Config, ctl Controller) (*Server, error) {
	if ctl == nil {
		return nil, errors.New("server: controller is required")
	}
	if config.Listen == "" {
		return nil, errors.New("server: listen address is required")
	}
	s := &Server{
		config: config,
		ctl:    ctl,
		hub:    newHub(ctl),
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler, usable without Start for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /ws", s.hub.serveWS)
	return withRequestLogging(mux)
}

// Start listens and serves in the background. Snapshots are pushed to
// websocket clients from then on.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.unwatch = s.ctl.Watch(s.hub.broadcast)
	s.serveDone = make(chan struct{})
	done := s.serveDone
	s.mu.Unlock()

	logging.Info("Diagnostics server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		defer close(done)
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Diagnostics server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the bound TCP port once started.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down diagnostics server...")

	s.mu.Lock()
	unwatch, done := s.unwatch, s.serveDone
	s.unwatch = nil
	s.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}

	err := s.http.Shutdown(ctx)
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			logging.Warn("Shutdown timeout, forcing close")
		}
	}
	// Hijacked websocket connections are not tracked by http.Server.
	s.hub.closeAll()
	s.hub.wait()
	return err
}

// ActiveClients returns the number of connected websocket clients
func (s *Server) ActiveClients() int {
	return s.hub.count()
}
