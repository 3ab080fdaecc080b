package repositories

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/spotitui/internal/models"
	"github.com/desertthunder/spotitui/internal/shared"
)

// HistoryRepository stores observed tracks in the play_history table.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a repository over an open database.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record inserts one history entry, assigning an id and timestamp when absent.
func (r *HistoryRepository) Record(entry models.HistoryEntry) error {
	if entry.TrackName == "" {
		return fmt.Errorf("%w: history entry needs a track name", shared.ErrInvalidArgument)
	}
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}
	if entry.ObservedAt.IsZero() {
		entry.ObservedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO play_history (id, track_name, artists, album_name, track_uri, device_id, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TrackName, entry.Artists, entry.AlbumName, entry.TrackURI, entry.DeviceID, entry.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}

	return nil
}

// Recent returns the latest n entries, newest first.
func (r *HistoryRepository) Recent(n int) ([]models.HistoryEntry, error) {
	if n <= 0 {
		n = 20
	}

	rows, err := r.db.Query(
		`SELECT id, track_name, artists, album_name, track_uri, device_id, observed_at
		 FROM play_history ORDER BY observed_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.TrackName, &e.Artists, &e.AlbumName, &e.TrackURI, &e.DeviceID, &e.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count returns the total number of recorded entries.
func (r *HistoryRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM play_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// HistoryRecorder consumes the poller's snapshot stream and appends a row
// whenever the observed track changes. Consecutive snapshots of the same
// track collapse into one entry.
type HistoryRecorder struct {
	repo *HistoryRepository

	mu      sync.Mutex
	lastURI string
}

// NewHistoryRecorder creates a recorder writing through repo.
func NewHistoryRecorder(repo *HistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// Observe handles one snapshot; only track transitions hit the database.
func (h *HistoryRecorder) Observe(snap models.Snapshot) error {
	if !snap.HasTrack() || !snap.Playing {
		return nil
	}

	h.mu.Lock()
	if snap.Track.URI == h.lastURI {
		h.mu.Unlock()
		return nil
	}
	h.lastURI = snap.Track.URI
	h.mu.Unlock()

	return h.repo.Record(models.HistoryEntry{
		TrackName: snap.Track.Name,
		Artists:   snap.Track.ArtistLine(),
		AlbumName: snap.Track.AlbumName,
		TrackURI:  snap.Track.URI,
		DeviceID:  snap.DeviceID,
	})
}

// Run drains a subscription channel until it closes. Record failures are
// reported through onError so the loop never stops early.
func (h *HistoryRecorder) Run(snapshots <-chan models.Snapshot, onError func(error)) {
	for snap := range snapshots {
		if err := h.Observe(snap); err != nil && onError != nil {
			onError(err)
		}
	}
}
