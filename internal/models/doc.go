// Package models defines the domain entities shared across the playback client.
//
// Two categories of types live here:
//
//  1. Read-only projections of remote data: [Playlist], [Device], [Track].
//     These are recreated on every fetch and never cached beyond the call
//     that produced them (the one exception is a selected device id, which
//     the UI retains as selection state).
//  2. [Snapshot]: an immutable point-in-time read of remote playback state.
//     A new Snapshot replaces the previous one wholesale; snapshots are
//     never merged or mutated in place.
//
// [HistoryEntry] is the persisted form of an observed track, owned by the
// repositories package.
package models
