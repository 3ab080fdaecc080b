package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested during authorization.
var Scopes = []string{
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
	"playlist-read-private",
}

// Session owns the OAuth2 authorization-code flow: it builds authorize
// URLs, exchanges codes for tokens, refreshes expired tokens, and answers
// "is currently authenticated".
//
// The in-memory token and the persisted token file are exclusively owned
// here. Concurrent refresh attempts are collapsed into a single round trip
// so a refresh token is never consumed twice.
type Session struct {
	config *oauth2.Config
	store  *TokenStore
	logger *log.Logger

	mu      sync.RWMutex
	token   *Token
	refresh singleflight.Group
}

// NewSession builds a Session from Spotify credentials. Client id and
// secret may be empty at construction; they are required at first use.
func NewSession(credentials map[string]string, store *TokenStore, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     credentials["client_id"],
		ClientSecret: credentials["client_secret"],
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Session{
		config: config,
		store:  store,
		logger: logger,
		token:  store.Load(),
	}
}

// RedirectURI returns the configured redirect URI.
func (s *Session) RedirectURI() string {
	return s.config.RedirectURL
}

// AuthorizeURL constructs the authorization URL with a fresh anti-replay
// state token. No persisted state is mutated.
func (s *Session) AuthorizeURL() (url, state string, err error) {
	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return "", "", fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}

	state, err = shared.GenerateState()
	if err != nil {
		return "", "", err
	}

	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline), state, nil
}

// Exchange trades a single-use authorization code for a token, persisting
// the result. On failure no state changes: the code is spent, so the
// caller must restart the flow from AuthorizeURL to retry.
func (s *Session) Exchange(ctx context.Context, code string) (*Token, error) {
	tok, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
	}

	token := FromOAuth2(tok, nil)
	s.setToken(token)

	return token, nil
}

// EnsureFresh returns a token that is valid right now, refreshing (and
// persisting) it when expired. A failed refresh drops the session back to
// unauthenticated and surfaces [shared.ErrRefreshFailed].
func (s *Session) EnsureFresh(ctx context.Context) (*Token, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if token.Valid() {
		return token, nil
	}
	if !token.Refreshable() {
		return nil, fmt.Errorf("%w: %w", shared.ErrTokenExpired, shared.ErrNoRefreshToken)
	}

	// Collapse concurrent refreshes into one round trip; every caller
	// receives the same result.
	v, err, _ := s.refresh.Do("refresh", func() (any, error) {
		return s.doRefresh(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Token), nil
}

// ForceRefresh refreshes even when the cached token still looks valid
// locally, for when the provider has rejected it (a 401 after server-side
// revocation). Concurrent callers share one round trip with EnsureFresh.
func (s *Session) ForceRefresh(ctx context.Context) (*Token, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !token.Refreshable() {
		return nil, fmt.Errorf("%w: %w", shared.ErrTokenExpired, shared.ErrNoRefreshToken)
	}

	v, err, _ := s.refresh.Do("refresh", func() (any, error) {
		return s.doRefresh(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Token), nil
}

func (s *Session) doRefresh(ctx context.Context, stale *Token) (*Token, error) {
	// Re-check under the latch: another caller may have swapped in a new
	// token first. The stale access token itself never counts as fresh.
	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()
	if current != nil && current.Valid() && current.AccessToken != stale.AccessToken {
		return current, nil
	}

	// Expire the wire form so the token source always hits the refresh
	// endpoint, even when the local expiry has not passed yet.
	wire := stale.OAuth2()
	wire.Expiry = time.Now().Add(-time.Minute)

	src := s.config.TokenSource(ctx, wire)
	tok, err := src.Token()
	if err != nil {
		s.logger.Warn("token refresh failed", "error", err)
		s.clearToken()
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	token := FromOAuth2(tok, stale)
	s.setToken(token)
	s.logger.Debug("token refreshed", "expires_at", token.ExpiresAt)

	return token, nil
}

// IsAuthenticated reports whether a cached token passes the local expiry
// check. It never performs a network call; callers needing guaranteed-valid
// credentials must use EnsureFresh.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token.Valid()
}

// Token returns the current in-memory token, which may be expired or nil.
func (s *Session) Token() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CanRecover reports whether a cached token exists that is either valid or
// refreshable, i.e. an interactive login can be skipped.
func (s *Session) CanRecover() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token.Valid() || s.token.Refreshable()
}

func (s *Session) setToken(token *Token) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.store.Save(token); err != nil {
		// Auth still succeeded; the next run just logs in again.
		s.logger.Warn("failed to persist token", "error", err)
	}
}

func (s *Session) clearToken() {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
}

// Logout drops the in-memory token and removes the persisted copy.
func (s *Session) Logout() error {
	s.clearToken()
	return s.store.Clear()
}
