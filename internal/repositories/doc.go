// Package repositories provides the persistence layer for locally recorded
// data. The only persistent entity is the listening history: each distinct
// track the playback poller observes is appended as a row, so the `history`
// command can answer "what was I listening to" without touching the remote
// service.
package repositories
