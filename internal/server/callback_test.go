package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotitui/internal/shared"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("captures the authorization code", func(t *testing.T) {
		h := NewCallbackHandler("expected-state")

		req := httptest.NewRequest("GET", "/callback?code=abc123&state=expected-state", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Authentication Successful") {
			t.Error("expected the success page")
		}

		select {
		case result := <-h.Result():
			if result.Code != "abc123" {
				t.Errorf("code = %q, want abc123", result.Code)
			}
			if result.Failed() {
				t.Errorf("unexpected error %q", result.Err)
			}
		case <-time.After(time.Second):
			t.Fatal("no result delivered")
		}
	})

	t.Run("captures a provider error", func(t *testing.T) {
		h := NewCallbackHandler("expected-state")

		req := httptest.NewRequest("GET", "/callback?error=access_denied&state=expected-state", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}

		result := <-h.Result()
		if !result.Failed() || result.Err != "access_denied" {
			t.Errorf("result = %+v, want access_denied", result)
		}
	})

	t.Run("request without code or error is rejected", func(t *testing.T) {
		h := NewCallbackHandler("expected-state")

		req := httptest.NewRequest("GET", "/callback", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
		if h.TryResult() != nil {
			t.Error("a bare request must not latch a result")
		}
	})

	t.Run("first code wins, later requests get 400", func(t *testing.T) {
		h := NewCallbackHandler("expected-state")

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest("GET", "/callback?code=first&state=expected-state", nil))

		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest("GET", "/callback?code=second&state=expected-state", nil))

		if first.Code != http.StatusOK {
			t.Errorf("first status = %d, want 200", first.Code)
		}
		if second.Code != http.StatusBadRequest {
			t.Errorf("second status = %d, want 400", second.Code)
		}

		result := h.TryResult()
		if result == nil || result.Code != "first" {
			t.Errorf("latched result = %+v, want the first code", result)
		}
	})

	t.Run("state mismatch latches an error", func(t *testing.T) {
		h := NewCallbackHandler("expected-state")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("GET", "/callback?code=abc&state=wrong", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}

		result := h.TryResult()
		if result == nil || result.Err != "state_mismatch" {
			t.Errorf("result = %+v, want state_mismatch", result)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("Start binds and serves the callback route", func(t *testing.T) {
		srv := NewCallbackServer("127.0.0.1", 0, "st", nil)
		if err := srv.Start(); err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
		defer srv.Stop()

		if !srv.Running() {
			t.Error("expected server to be running")
		}

		url := fmt.Sprintf("http://127.0.0.1:%d/callback?code=xyz&state=st", srv.Port())
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("GET callback: %v", err)
		}
		resp.Body.Close()

		result := srv.AwaitResult(time.Second)
		if result == nil || result.Code != "xyz" {
			t.Errorf("result = %+v, want code xyz", result)
		}
	})

	t.Run("bind conflict surfaces ErrPortInUse", func(t *testing.T) {
		first := NewCallbackServer("127.0.0.1", 0, "st", nil)
		if err := first.Start(); err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
		defer first.Stop()

		second := NewCallbackServer("127.0.0.1", first.Port(), "st", nil)
		err := second.Start()
		if err == nil {
			second.Stop()
			t.Fatal("expected bind conflict")
		}
		if !errors.Is(err, shared.ErrPortInUse) {
			t.Errorf("error = %v, want ErrPortInUse", err)
		}
	})

	t.Run("AwaitResult times out without a redirect", func(t *testing.T) {
		srv := NewCallbackServer("127.0.0.1", 0, "st", nil)
		if err := srv.Start(); err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
		defer srv.Stop()

		if result := srv.AwaitResult(20 * time.Millisecond); result != nil {
			t.Errorf("result = %+v, want nil on timeout", result)
		}
		if !srv.Running() {
			t.Error("server must keep running after a timeout")
		}
	})

	t.Run("Stop is idempotent", func(t *testing.T) {
		srv := NewCallbackServer("127.0.0.1", 0, "st", nil)
		srv.Stop()

		if err := srv.Start(); err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
		srv.Stop()
		srv.Stop()

		if srv.Running() {
			t.Error("expected server to be stopped")
		}
	})

	t.Run("Stop racing the serve loop startup is safe", func(t *testing.T) {
		// Stop may run before the serve goroutine ever gets scheduled; that
		// ordering must shut down cleanly, not crash.
		for i := 0; i < 50; i++ {
			srv := NewCallbackServer("127.0.0.1", 0, "st", nil)
			if err := srv.Start(); err != nil {
				t.Fatalf("Start returned error: %v", err)
			}
			srv.Stop()
		}
	})
}
