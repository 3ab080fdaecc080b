package main

import (
	"context"

	"github.com/desertthunder/spotitui/internal/formatter"
	"github.com/desertthunder/spotitui/internal/repositories"
	"github.com/desertthunder/spotitui/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the current user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	playlists, err := r.client.Playlists(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}
	if cmd.Bool("csv") {
		data, err := formatter.PlaylistsToCSV(playlists)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	_, err = r.output.Write(formatter.PlaylistsToText(playlists))
	return err
}

// Devices lists the user's available playback devices.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	devices, err := r.client.Devices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}

	if len(devices) == 0 {
		return r.writePlain("No devices available. Open Spotify on a device first.\n")
	}

	_, err = r.output.Write(formatter.DevicesToText(devices))
	return err
}

// History prints locally recorded play history from the sqlite database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewHistoryRepository(db)
	entries, err := repo.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No play history recorded yet. Run the TUI to start recording.\n")
	}

	_, err = r.output.Write(formatter.HistoryToText(entries))
	return err
}
