// Package services wraps the remote Web API behind the [Client] interface.
//
// The playback core (poller, controller) and the UI never build HTTP
// requests themselves; they depend on [Client] so tests can substitute a
// double. [SpotifyClient] is the production implementation: bearer-token
// requests with client-side rate limiting, a single refresh-and-retry on
// 401, and status classification into the shared error taxonomy (429/5xx
// transient, other 4xx permanent).
package services
