package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotitui/internal/formatter"
	"github.com/desertthunder/spotitui/internal/player"
	"github.com/desertthunder/spotitui/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayerStatus prints the current playback snapshot.
func (r *Runner) PlayerStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	snap, err := r.client.CurrentPlayback(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}

	if snap == nil || !snap.HasTrack() {
		return r.writePlain("Nothing playing.\n")
	}

	r.writePlain("%s\n", formatter.NowPlayingLine(snap))
	elapsed, remaining := formatter.ProgressClock(snap.ProgressMS, snap.DurationMS)
	r.writePlain("%s / -%s  volume %d%%\n", elapsed, remaining, snap.Volume)
	return nil
}

// PlayerPlay resumes playback, optionally starting a playlist by URI on a
// specific device.
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	deviceID, err := r.resolveDevice(ctx, cmd.String("device"))
	if err != nil {
		return err
	}

	contextURI := cmd.StringArg("uri")
	if err := r.client.Play(ctx, deviceID, contextURI); err != nil {
		return err
	}

	if contextURI != "" {
		return r.writePlain("▶ Playing %s\n", contextURI)
	}
	return r.writePlain("▶ Resumed\n")
}

// PlayerPause pauses playback.
func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	if err := r.client.Pause(ctx, ""); err != nil {
		return err
	}
	return r.writePlain("⏸ Paused\n")
}

// PlayerNext skips to the next track.
func (r *Runner) PlayerNext(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	if err := r.client.Next(ctx, ""); err != nil {
		return err
	}
	return r.writePlain("⏭ Skipped\n")
}

// PlayerPrevious skips to the previous track.
func (r *Runner) PlayerPrevious(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	if err := r.client.Previous(ctx, ""); err != nil {
		return err
	}
	return r.writePlain("⏮ Skipped back\n")
}

// PlayerVolume sets the playback volume, clamped to 0-100.
func (r *Runner) PlayerVolume(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	percent := int(cmd.IntArg("percent"))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	if err := r.client.SetVolume(ctx, percent, ""); err != nil {
		return err
	}
	return r.writePlain("Volume set to %d%%\n", percent)
}

// PlayerTransfer moves playback to another device, matched by ID or name.
func (r *Runner) PlayerTransfer(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	target := cmd.StringArg("device")
	if target == "" {
		return fmt.Errorf("%w: device ID or name required", shared.ErrMissingArgument)
	}

	devices, err := r.client.Devices(ctx)
	if err != nil {
		return err
	}

	deviceID := ""
	for _, d := range devices {
		if d.ID == target {
			deviceID = d.ID
			break
		}
	}
	if deviceID == "" {
		deviceID = player.SelectDefault(devices, target)
	}
	if deviceID == "" {
		return fmt.Errorf("%w: no device matching %q", shared.ErrNoActiveDevice, target)
	}

	if err := r.client.Transfer(ctx, deviceID, cmd.Bool("play")); err != nil {
		return err
	}
	return r.writePlain("✓ Playback transferred\n")
}

// resolveDevice maps an optional --device flag to a concrete device ID,
// falling back to the active device or the configured default name.
func (r *Runner) resolveDevice(ctx context.Context, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if r.config.Playback.DefaultDeviceName == "" {
		return "", nil
	}

	devices, err := r.client.Devices(ctx)
	if err != nil {
		// Let the playback call decide; the API falls back to the
		// active device when no ID is given.
		r.logger.Warn("failed to list devices", "error", err)
		return "", nil
	}
	if active := player.ActiveDevice(devices); active != nil {
		return "", nil
	}
	return player.SelectDefault(devices, r.config.Playback.DefaultDeviceName), nil
}
