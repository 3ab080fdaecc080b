package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotitui/internal/shared"
)

var testCredentials = map[string]string{
	"client_id":     "id",
	"client_secret": "secret",
	"redirect_uri":  "http://localhost:8888/callback",
}

// tokenEndpoint stands in for the provider's token URL, counting requests.
func tokenEndpoint(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	return ts, &calls
}

func sessionWith(t *testing.T, token *Token, tokenURL string) *Session {
	t.Helper()

	store := tempStore(t)
	if token != nil {
		if err := store.Save(token); err != nil {
			t.Fatalf("seeding token store: %v", err)
		}
	}

	s := NewSession(testCredentials, store, nil)
	if tokenURL != "" {
		s.config.Endpoint.TokenURL = tokenURL
	}
	return s
}

func TestSession(t *testing.T) {
	t.Run("loads the cached token at construction", func(t *testing.T) {
		s := sessionWith(t, &Token{
			AccessToken: "at",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, "")

		if !s.IsAuthenticated() {
			t.Error("expected authenticated session from cached token")
		}
	})

	t.Run("AuthorizeURL requires credentials", func(t *testing.T) {
		s := NewSession(map[string]string{}, tempStore(t), nil)
		if _, _, err := s.AuthorizeURL(); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("error = %v, want ErrMissingCredentials", err)
		}
	})

	t.Run("AuthorizeURL embeds a fresh state per call", func(t *testing.T) {
		s := sessionWith(t, nil, "")

		_, state1, err := s.AuthorizeURL()
		if err != nil {
			t.Fatalf("AuthorizeURL: %v", err)
		}
		url, state2, err := s.AuthorizeURL()
		if err != nil {
			t.Fatalf("AuthorizeURL: %v", err)
		}

		if state1 == state2 {
			t.Error("expected a distinct state per attempt")
		}
		if url == "" {
			t.Error("expected a non-empty authorize URL")
		}
	})

	t.Run("EnsureFresh returns a valid token without network", func(t *testing.T) {
		ts, calls := tokenEndpoint(t, http.StatusOK, `{}`)
		s := sessionWith(t, &Token{
			AccessToken: "at",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, ts.URL)

		token, err := s.EnsureFresh(context.Background())
		if err != nil {
			t.Fatalf("EnsureFresh: %v", err)
		}
		if token.AccessToken != "at" {
			t.Errorf("access token = %q, want the cached one", token.AccessToken)
		}
		if calls.Load() != 0 {
			t.Errorf("token endpoint hit %d times, want 0", calls.Load())
		}
	})

	t.Run("EnsureFresh without any token fails", func(t *testing.T) {
		s := sessionWith(t, nil, "")
		if _, err := s.EnsureFresh(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("error = %v, want ErrNotAuthenticated", err)
		}
	})

	t.Run("expired token without refresh token fails", func(t *testing.T) {
		s := sessionWith(t, &Token{
			AccessToken: "at",
			ExpiresAt:   time.Now().Add(-time.Hour),
		}, "")

		_, err := s.EnsureFresh(context.Background())
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("error = %v, want ErrTokenExpired", err)
		}
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("error = %v, want ErrNoRefreshToken in the chain", err)
		}
	})

	t.Run("expired token refreshes and persists", func(t *testing.T) {
		ts, calls := tokenEndpoint(t, http.StatusOK,
			`{"access_token":"fresh-at","token_type":"Bearer","expires_in":3600}`)
		s := sessionWith(t, &Token{
			AccessToken:  "stale-at",
			RefreshToken: "rt",
			ExpiresAt:    time.Now().Add(-time.Hour),
		}, ts.URL)

		token, err := s.EnsureFresh(context.Background())
		if err != nil {
			t.Fatalf("EnsureFresh: %v", err)
		}
		if token.AccessToken != "fresh-at" {
			t.Errorf("access token = %q, want fresh-at", token.AccessToken)
		}
		if token.RefreshToken != "rt" {
			t.Errorf("refresh token = %q, want the carried-over rt", token.RefreshToken)
		}
		if calls.Load() != 1 {
			t.Errorf("token endpoint hit %d times, want 1", calls.Load())
		}

		persisted := s.store.Load()
		if persisted == nil || persisted.AccessToken != "fresh-at" {
			t.Errorf("persisted token = %+v, want the refreshed one", persisted)
		}
	})

	t.Run("concurrent refreshes collapse to one round trip", func(t *testing.T) {
		ts, calls := tokenEndpoint(t, http.StatusOK,
			`{"access_token":"fresh-at","token_type":"Bearer","expires_in":3600}`)
		s := sessionWith(t, &Token{
			AccessToken:  "stale-at",
			RefreshToken: "rt",
			ExpiresAt:    time.Now().Add(-time.Hour),
		}, ts.URL)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.EnsureFresh(context.Background()); err != nil {
					t.Errorf("EnsureFresh: %v", err)
				}
			}()
		}
		wg.Wait()

		if calls.Load() != 1 {
			t.Errorf("token endpoint hit %d times, want 1", calls.Load())
		}
	})

	t.Run("ForceRefresh replaces a locally valid token", func(t *testing.T) {
		ts, calls := tokenEndpoint(t, http.StatusOK,
			`{"access_token":"fresh-at","token_type":"Bearer","expires_in":3600}`)
		s := sessionWith(t, &Token{
			AccessToken:  "revoked-at",
			RefreshToken: "rt",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, ts.URL)

		token, err := s.ForceRefresh(context.Background())
		if err != nil {
			t.Fatalf("ForceRefresh: %v", err)
		}
		if token.AccessToken != "fresh-at" {
			t.Errorf("access token = %q, want fresh-at", token.AccessToken)
		}
		if calls.Load() != 1 {
			t.Errorf("token endpoint hit %d times, want 1", calls.Load())
		}
	})

	t.Run("ForceRefresh without a refresh token fails", func(t *testing.T) {
		s := sessionWith(t, &Token{
			AccessToken: "at",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, "")

		if _, err := s.ForceRefresh(context.Background()); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("error = %v, want ErrNoRefreshToken", err)
		}
	})

	t.Run("failed refresh drops to unauthenticated", func(t *testing.T) {
		ts, _ := tokenEndpoint(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		s := sessionWith(t, &Token{
			AccessToken:  "stale-at",
			RefreshToken: "rt",
			ExpiresAt:    time.Now().Add(-time.Hour),
		}, ts.URL)

		if _, err := s.EnsureFresh(context.Background()); !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("error = %v, want ErrRefreshFailed", err)
		}
		if s.IsAuthenticated() {
			t.Error("expected unauthenticated session after failed refresh")
		}
		if s.CanRecover() {
			t.Error("expected no recovery path after failed refresh")
		}
	})

	t.Run("Logout clears memory and disk", func(t *testing.T) {
		s := sessionWith(t, &Token{
			AccessToken: "at",
			ExpiresAt:   time.Now().Add(time.Hour),
		}, "")

		if err := s.Logout(); err != nil {
			t.Fatalf("Logout: %v", err)
		}
		if s.IsAuthenticated() {
			t.Error("expected unauthenticated session after logout")
		}
		if s.store.Load() != nil {
			t.Error("expected token file removed after logout")
		}
	})
}
