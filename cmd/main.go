package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/spotitui/internal/auth"
	"github.com/desertthunder/spotitui/internal/services"
	"github.com/desertthunder/spotitui/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	var session *auth.Session
	var client services.Client
	var store *auth.TokenStore

	store, err := auth.DefaultTokenStore(logger)
	if err != nil {
		logger.Warn("token cache unavailable, logins will not persist", "error", err)
		store = auth.NewTokenStore("token.json", logger)
	}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		session = auth.NewSession(config.Credentials.Spotify.Map(), store, logger)
		client = services.NewSpotifyClient(session, logger)
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Session: session,
		Store:   store,
		Client:  client,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "spotitui",
		Usage:    "Control Spotify playback from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
		Action:   runner.TUI,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
