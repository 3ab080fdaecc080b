package auth

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/server"
	"github.com/desertthunder/spotitui/internal/shared"
)

// LoginOutcome is the result of starting a login attempt.
type LoginOutcome struct {
	// AlreadyAuthenticated is set when a cached token was valid or could be
	// refreshed; no callback server was started.
	AlreadyAuthenticated bool
	// AuthorizeURL is non-empty when user action is awaited.
	AuthorizeURL string
}

// Coordinator drives an interactive login end to end: decide cached vs.
// interactive path, run the callback listener, surface the authorize URL,
// and poll for completion.
//
// It owns the [server.CallbackServer] lifecycle for the duration of one
// login attempt.
type Coordinator struct {
	session *Session
	host    string
	port    int
	logger  *log.Logger

	mu   sync.Mutex
	srv  *server.CallbackServer
	done bool
}

// NewCoordinator creates a Coordinator binding login attempts to the given
// loopback address. The port must match the redirect URI registered with
// the provider (default 8888).
func NewCoordinator(session *Session, host string, port int, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Coordinator{session: session, host: host, port: port, logger: logger}
}

// Begin decides between the cached and interactive paths.
//
// With a valid-or-refreshable cached token it returns AlreadyAuthenticated
// (refreshing if needed) without ever starting the callback server.
// Otherwise it starts the listener, builds the authorize URL, and returns
// an AwaitingUserAction outcome. A bind failure is fatal for the attempt
// and is returned as [shared.ErrPortInUse]; the caller should tell the
// user to close other instances and retry.
func (c *Coordinator) Begin(ctx context.Context) (LoginOutcome, error) {
	if c.session.CanRecover() {
		if _, err := c.session.EnsureFresh(ctx); err == nil {
			c.markDone()
			return LoginOutcome{AlreadyAuthenticated: true}, nil
		}
		// Refresh failed; fall through to the interactive flow.
		c.logger.Info("cached token could not be refreshed, starting interactive login")
	}

	authURL, state, err := c.session.AuthorizeURL()
	if err != nil {
		return LoginOutcome{}, err
	}

	srv := server.NewCallbackServer(c.host, c.port, state, c.logger)
	if err := srv.Start(); err != nil {
		return LoginOutcome{}, err
	}

	c.mu.Lock()
	c.srv = srv
	c.done = false
	c.mu.Unlock()

	return LoginOutcome{AuthorizeURL: authURL}, nil
}

// PollCompletion performs one non-blocking completion check. The
// presentation layer calls it on a fixed interval (2s by default).
//
// It returns true exactly once, at the moment authentication first becomes
// valid, stopping the callback server as a side effect. An error-bearing
// callback or a failed exchange ends the attempt (the code is single-use,
// so Begin must be called again for a fresh one). After completion further
// calls are harmless no-ops returning false.
func (c *Coordinator) PollCompletion(ctx context.Context) bool {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return false
	}
	srv := c.srv
	c.mu.Unlock()

	// Cheap path first: a token may have become valid out of band.
	if c.session.IsAuthenticated() {
		c.finish(srv)
		return true
	}

	if srv == nil {
		return false
	}

	result := srv.TryResult()
	if result == nil {
		return false
	}

	if result.Failed() {
		c.logger.Error("authorization rejected", "error", result.Err)
		c.finish(srv)
		return false
	}

	if _, err := c.session.Exchange(ctx, result.Code); err != nil {
		// The code is single-use; a failed exchange cannot be retried with
		// the same code. Surface and end the attempt.
		c.logger.Error("code exchange failed", "error", err)
		c.finish(srv)
		return false
	}

	c.finish(srv)
	return true
}

// AwaitLogin runs the blocking variant of the flow for CLI use: it waits up
// to the context deadline for the callback, then exchanges the code.
func (c *Coordinator) AwaitLogin(ctx context.Context) (*Token, error) {
	c.mu.Lock()
	srv := c.srv
	c.mu.Unlock()

	if srv == nil {
		return nil, shared.ErrServerStopped
	}
	defer c.finish(srv)

	deadline, ok := ctx.Deadline()
	if !ok {
		return nil, shared.ErrInvalidArgument
	}

	result := srv.AwaitResult(time.Until(deadline))
	if result == nil {
		return nil, shared.ErrTimeout
	}
	if result.Failed() {
		return nil, shared.ErrAuthFailed
	}

	return c.session.Exchange(ctx, result.Code)
}

// Close tears down any running callback server. Idempotent.
func (c *Coordinator) Close() {
	c.mu.Lock()
	srv := c.srv
	c.srv = nil
	c.mu.Unlock()

	if srv != nil {
		srv.Stop()
	}
}

// Done reports whether the attempt has completed (successfully or not).
func (c *Coordinator) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Coordinator) finish(srv *server.CallbackServer) {
	c.mu.Lock()
	c.done = true
	if c.srv == srv {
		c.srv = nil
	}
	c.mu.Unlock()

	if srv != nil {
		srv.Stop()
	}
}

func (c *Coordinator) markDone() {
	c.mu.Lock()
	c.done = true
	c.mu.Unlock()
}
