// Package server provides the ephemeral loopback HTTP listener that catches
// OAuth redirects, plus the small routing layer it is built on.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # Callback Capture
//
// [CallbackHandler] latches the first request carrying a `code` or `error`
// query parameter. The latch is owned by the handler instance, never
// package-level state, so sequential login attempts each get a fresh,
// isolated capture. Later requests, and requests without either parameter,
// receive 400 "invalid request".
//
// The handler does not exchange the authorization code; it only captures
// it. The exchange round trip belongs to the auth coordinator so the
// handler stays a pure latch with no network dependencies.
//
// # Lifecycle
//
// [CallbackServer] binds synchronously (so "port already in use" is an
// immediate, fatal error for the login attempt) and serves on a background
// goroutine. It is stopped as soon as authentication completes or the
// application tears down, whichever happens first. Stop is idempotent.
package server
