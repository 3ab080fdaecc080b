// package formatter renders playback and playlist data for display (clock
// strings, plain text, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotitui/internal/models"
)

// FormatClock renders whole seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ProgressClock returns the elapsed and remaining clock strings for a
// playback position.
//
// A zero duration means "no duration known": remaining is pinned to 00:00
// regardless of position.
func ProgressClock(progressMS, durationMS int) (elapsed, remaining string) {
	progressSec := progressMS / 1000
	elapsed = FormatClock(progressSec)

	if durationMS <= 0 {
		return elapsed, "00:00"
	}

	remainingSec := durationMS/1000 - progressSec
	return elapsed, FormatClock(remainingSec)
}

// PlaylistsToText renders playlists as a numbered plain-text listing.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Found %d playlists:\n\n", len(playlists)))
	for i, p := range playlists {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, p.Name))
		buf.WriteString(fmt.Sprintf("   Tracks: %d\n", p.TrackCount))
		buf.WriteString(fmt.Sprintf("   URI: %s\n\n", p.URI))
	}

	return buf.Bytes()
}

// PlaylistsToCSV renders playlists with columns: ID, Name, Tracks, URI.
func PlaylistsToCSV(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Tracks", "URI"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range playlists {
		record := []string{p.ID, p.Name, strconv.Itoa(p.TrackCount), p.URI}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DevicesToText renders the device list, flagging the active device.
func DevicesToText(devices []models.Device) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Found %d devices:\n\n", len(devices)))
	for i, d := range devices {
		marker := " "
		if d.Active {
			marker = "*"
		}
		buf.WriteString(fmt.Sprintf("%s %d. %s (%s)\n", marker, i+1, d.Name, d.Type))
		buf.WriteString(fmt.Sprintf("     ID: %s  Volume: %d%%\n", d.ID, d.VolumePercent))
	}

	return buf.Bytes()
}

// HistoryToText renders history entries newest-first.
func HistoryToText(entries []models.HistoryEntry) []byte {
	var buf bytes.Buffer

	if len(entries) == 0 {
		buf.WriteString("No listening history recorded yet.\n")
		return buf.Bytes()
	}

	for i, e := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, e.Artists, e.TrackName))
		if e.AlbumName != "" {
			buf.WriteString(fmt.Sprintf("   Album: %s\n", e.AlbumName))
		}
		buf.WriteString(fmt.Sprintf("   Heard: %s\n", e.ObservedAt.Local().Format("2006-01-02 15:04")))
	}

	return buf.Bytes()
}

// NowPlayingLine renders a one-line summary of a snapshot for CLI output.
func NowPlayingLine(snap *models.Snapshot) string {
	if snap == nil || !snap.HasTrack() {
		return "Nothing playing"
	}

	state := "Paused"
	if snap.Playing {
		state = "Playing"
	}

	elapsed, remaining := ProgressClock(snap.ProgressMS, snap.DurationMS)
	return fmt.Sprintf("%s: %s - %s [%s / -%s]", state, snap.Track.ArtistLine(), snap.Track.Name, elapsed, remaining)
}
