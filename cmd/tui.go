package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/player"
	"github.com/desertthunder/spotitui/internal/repositories"
	"github.com/desertthunder/spotitui/internal/shared"
	"github.com/desertthunder/spotitui/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive player.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/spotitui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	coordinator := r.newCoordinator()
	defer coordinator.Close()

	outcome, err := coordinator.Begin(ctx)
	if err != nil {
		return err
	}

	if !outcome.AlreadyAuthenticated {
		if err := shared.OpenBrowser(outcome.AuthorizeURL); err != nil {
			fileLogger.Warn("failed to open browser", "error", err)
		}
	}

	pollInterval := time.Duration(r.config.Playback.PollInterval) * time.Second
	poller := player.NewPoller(r.client, pollInterval, fileLogger)
	defer poller.Stop()

	controller := player.NewController(r.client, fileLogger)

	if cleanup, err := r.startHistoryRecorder(poller, fileLogger); err != nil {
		fileLogger.Warn("play history disabled", "error", err)
	} else {
		defer cleanup()
	}

	model := ui.NewModel(ctx, ui.Opts{
		Client:            r.client,
		Coordinator:       coordinator,
		Poller:            poller,
		Controller:        controller,
		Login:             outcome,
		DefaultDeviceName: r.config.Playback.DefaultDeviceName,
		PlaylistPageSize:  r.config.Playback.PlaylistPageSize,
		AuthPollInterval:  time.Duration(r.config.Playback.AuthPollInterval) * time.Second,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// startHistoryRecorder wires a recorder onto its own poller subscription so
// tracks observed while the TUI runs land in the local database.
func (r *Runner) startHistoryRecorder(poller *player.Poller, logger *log.Logger) (func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	recorder := repositories.NewHistoryRecorder(repositories.NewHistoryRepository(db))
	go recorder.Run(poller.Subscribe(), func(err error) {
		logger.Warn("failed to record play history", "error", err)
	})

	return func() { db.Close() }, nil
}
