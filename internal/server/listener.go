package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/shared"
)

// CallbackServer is a single-use loopback HTTP listener that captures the
// OAuth redirect for one login attempt.
//
// Start binds synchronously so a port collision surfaces immediately; the
// serve loop then runs on its own goroutine. The server holds exactly one
// [CallbackHandler] and therefore at most one captured [CallbackResult] per
// lifetime.
type CallbackServer struct {
	host    string
	port    int
	handler *CallbackHandler
	srv     *http.Server
	ln      net.Listener
	logger  *log.Logger

	mu      sync.Mutex
	running bool
}

// NewCallbackServer creates a server for the given loopback address and
// anti-replay state token. A nil logger falls back to the default.
func NewCallbackServer(host string, port int, state string, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &CallbackServer{
		host:    host,
		port:    port,
		handler: NewCallbackHandler(state),
		logger:  logger,
	}
}

// Start binds the listener and begins serving in the background.
//
// A port that is already in use fails with [shared.ErrPortInUse]; the
// caller must treat that as fatal for the login attempt.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrPortInUse, addr, err)
	}

	// Port 0 asks the OS for a free port; report the one we got.
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	router := NewBasicRouter()
	router.Use(Logging(s.logger))
	router.Handler(s.handler)

	srv := &http.Server{Handler: router}
	s.ln = ln
	s.srv = srv
	s.running = true

	// The goroutine uses its own references; Stop may run before it does.
	go func() {
		s.logger.Info("callback server listening", "addr", addr)
		if serveErr := srv.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("callback server error", "error", serveErr)
		}
	}()

	return nil
}

// Port returns the configured listen port.
func (s *CallbackServer) Port() int {
	return s.port
}

// Running reports whether the listener is currently bound.
func (s *CallbackServer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// AwaitResult blocks up to timeout for the first captured result.
//
// Returns nil on timeout; the server keeps running so a later redirect can
// still be captured.
func (s *CallbackServer) AwaitResult(timeout time.Duration) *CallbackResult {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result, ok := <-s.handler.Result():
		if !ok {
			return s.handler.TryResult()
		}
		return &result
	case <-timer.C:
		return nil
	}
}

// TryResult returns the captured result without blocking, or nil when the
// redirect has not arrived yet.
func (s *CallbackServer) TryResult() *CallbackResult {
	return s.handler.TryResult()
}

// Stop shuts the listener down. Safe to call repeatedly and when the
// server never started.
func (s *CallbackServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("error shutting down callback server", "error", err)
	}

	// Shutdown only closes listeners Serve has registered; close ours too in
	// case the serve goroutine never got scheduled.
	s.ln.Close()
}
