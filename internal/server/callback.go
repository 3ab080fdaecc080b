package server

import (
	"fmt"
	"net/http"
	"sync"
)

// CallbackResult holds whatever the OAuth redirect delivered: an
// authorization code on success, or the provider's error string.
type CallbackResult struct {
	Code string
	Err  string
}

// Failed reports whether the redirect carried an error instead of a code.
func (r CallbackResult) Failed() bool {
	return r.Err != ""
}

// CallbackHandler captures the OAuth redirect for one login attempt.
// Implements the [Handler] interface for registration with a [Router].
//
// The capture is a one-shot latch owned by this instance: the first GET
// carrying a code or error query parameter wins; every later request is
// rejected with 400. Handlers never exchange the code themselves; that
// belongs to the auth coordinator.
type CallbackHandler struct {
	state      string
	resultChan chan CallbackResult
	once       sync.Once
	mu         sync.Mutex
	caught     bool
	result     *CallbackResult
}

// NewCallbackHandler creates a handler expecting the given anti-replay state token.
// The state token should be cryptographically random for CSRF protection.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth redirect request.
//
// Validates the state parameter and latches the first code- or
// error-bearing request.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	errParam := query.Get("error")

	if code == "" && errParam == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.caught {
		h.mu.Unlock()
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.caught = true
	h.mu.Unlock()

	if h.state != "" && query.Get("state") != h.state {
		h.send(CallbackResult{Err: "state_mismatch"})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	if errParam != "" {
		h.send(CallbackResult{Err: errParam})
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, errorPage, errParam)
		return
	}

	h.send(CallbackResult{Code: code})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// send latches the result (only once) and makes it available to pollers.
func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.mu.Lock()
		h.result = &result
		h.mu.Unlock()
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel carrying the single captured result.
//
// The channel receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

// TryResult returns the captured result without blocking, or nil when
// nothing has been latched yet.
func (h *CallbackHandler) TryResult() *CallbackResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result == nil {
		return nil
	}
	r := *h.result
	return &r
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authentication Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Authentication Successful</h1>
        <p>You can close this window and return to the app.</p>
    </div>
</body>
</html>
`

const errorPage = `
<!DOCTYPE html>
<html>
<head><title>Authentication Failed</title></head>
<body style="font-family: -apple-system, sans-serif; text-align: center; padding: 50px;">
    <h1>&#10007; Authentication Failed</h1>
    <p>Error: %s</p>
    <p>Please return to the app and try again.</p>
</body>
</html>
`
