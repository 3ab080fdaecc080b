// package services defines the remote playback API boundary
package services

import (
	"context"

	"github.com/desertthunder/spotitui/internal/models"
)

// Client is the remote collaborator boundary: everything the playback core
// needs from the wrapped Web API. Each call attaches a valid bearer token;
// a 401 triggers exactly one refresh-and-retry.
type Client interface {
	Name() string

	// CurrentUser verifies credentials by fetching the user's profile.
	CurrentUser(ctx context.Context) (*User, error)

	// Playlists fetches one page of the current user's playlists.
	Playlists(ctx context.Context, limit, offset int) ([]models.Playlist, error)

	// CurrentPlayback fetches the playback state. A nil snapshot with nil
	// error means nothing is playing on any device.
	CurrentPlayback(ctx context.Context) (*models.Snapshot, error)

	// Devices fetches the devices currently visible to the user.
	Devices(ctx context.Context) ([]models.Device, error)

	// Playback commands. An empty deviceID targets the service's currently
	// active device.
	Play(ctx context.Context, deviceID, contextURI string) error
	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
	SetVolume(ctx context.Context, percent int, deviceID string) error
	Transfer(ctx context.Context, deviceID string, play bool) error
}

// User represents the authenticated user's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Product     string `json:"product"` // premium, free, etc.
}
