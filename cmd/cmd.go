// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles the OAuth login lifecycle
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorize URL instead of opening a browser",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: authLoginTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show current authentication state",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the cached token",
				Action: r.AuthLogout,
			},
		},
	}
}

// playerCommand handles playback operations
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "Playback controls",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show the current playback state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayerStatus,
			},
			{
				Name:  "play",
				Usage: "Resume playback, or start a playlist by URI",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "uri",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "device",
						Aliases: []string{"d"},
						Usage:   "Target device ID",
					},
				},
				Action: r.PlayerPlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Action: r.PlayerPause,
			},
			{
				Name:   "next",
				Usage:  "Skip to the next track",
				Action: r.PlayerNext,
			},
			{
				Name:    "prev",
				Aliases: []string{"previous"},
				Usage:   "Skip to the previous track",
				Action:  r.PlayerPrevious,
			},
			{
				Name:  "volume",
				Usage: "Set the playback volume (0-100)",
				Arguments: []cli.Argument{
					&cli.IntArg{
						Name: "percent",
					},
				},
				Action: r.PlayerVolume,
			},
			{
				Name:  "transfer",
				Usage: "Transfer playback to another device",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "device",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "play",
						Usage: "Start playing on the target device",
						Value: true,
					},
				},
				Action: r.PlayerTransfer,
			},
		},
	}
}

// playlistsCommand lists the user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List your Spotify playlists",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to return",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Pagination offset",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
		},
		Action: r.Playlists,
	}
}

// devicesCommand lists available playback devices
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List available playback devices",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Devices,
	}
}

// historyCommand shows locally recorded play history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recently played tracks recorded by the TUI",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of entries to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// tuiCommand launches the interactive player
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive player",
		Action: r.TUI,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the history database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
