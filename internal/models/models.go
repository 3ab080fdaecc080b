package models

import (
	"strings"
	"time"
)

// Image represents a remote image resource in one of several sizes.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Playlist is a read-only projection of a remote playlist.
type Playlist struct {
	ID         string  `json:"id"`
	URI        string  `json:"uri"`
	Name       string  `json:"name"`
	Images     []Image `json:"images"`
	TrackCount int     `json:"track_count"`
}

// Device represents a playback device known to the remote service.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Active        bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// Track holds the display metadata for the currently playing item.
type Track struct {
	Name        string   `json:"name"`
	URI         string   `json:"uri"`
	Artists     []string `json:"artists"`
	AlbumName   string   `json:"album_name"`
	AlbumImages []Image  `json:"album_images"`
	DurationMS  int      `json:"duration_ms"`
}

// ArtistLine joins the track's artists for single-line display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Snapshot is an immutable point-in-time read of remote playback state.
//
// ProgressMS may momentarily exceed DurationMS when the remote source lags;
// consumers must tolerate that. DurationMS == 0 means the duration is
// unknown, not that the track is zero-length.
type Snapshot struct {
	Playing    bool
	ProgressMS int
	DurationMS int
	Track      Track
	DeviceID   string
	Volume     int
	FetchedAt  time.Time
}

// HasTrack reports whether the snapshot carries a playable item.
func (s Snapshot) HasTrack() bool {
	return s.Track.Name != ""
}

// HistoryEntry records a track observed during playback polling.
type HistoryEntry struct {
	ID         string
	TrackName  string
	Artists    string
	AlbumName  string
	TrackURI   string
	DeviceID   string
	ObservedAt time.Time
}
