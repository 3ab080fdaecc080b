package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotitui/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = deviceItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks", i.playlist.TrackCount)
}

// deviceItem wraps [models.Device] to implement [list.Item].
type deviceItem struct {
	device models.Device
}

func (i deviceItem) FilterValue() string { return i.device.Name }
func (i deviceItem) Title() string {
	if i.device.Active {
		return i.device.Name + " ●"
	}
	return i.device.Name
}
func (i deviceItem) Description() string {
	return fmt.Sprintf("%s • volume %d%%", i.device.Type, i.device.VolumePercent)
}
