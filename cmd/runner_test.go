package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotitui/internal/auth"
	"github.com/desertthunder/spotitui/internal/models"
	"github.com/desertthunder/spotitui/internal/shared"
	tu "github.com/desertthunder/spotitui/internal/testing"
	"github.com/urfave/cli/v3"
)

func testSession(t *testing.T) (*auth.Session, *auth.TokenStore) {
	t.Helper()

	store := auth.NewTokenStore(filepath.Join(t.TempDir(), "token.json"), nil)
	if err := store.Save(&auth.Token{
		AccessToken: "at",
		ExpiresAt:   time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("seeding token store: %v", err)
	}

	session := auth.NewSession(map[string]string{
		"client_id":     "id",
		"client_secret": "secret",
	}, store, nil)

	return session, store
}

// runCommand executes one CLI invocation against a runner wired to mocks.
func runCommand(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "spotitui",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"spotitui"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := tu.NewMockClient()

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Client: client,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("commands without a session fail with guidance", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Client: tu.NewMockClient()})

		if err := runCommand(t, runner, "playlists"); err == nil {
			t.Error("expected missing-credentials error")
		}
	})

	t.Run("playlists renders text output", func(t *testing.T) {
		session, store := testSession(t)
		client := tu.NewMockClient()
		client.PlaylistsFunc = func(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
			return []models.Playlist{
				{ID: "1", Name: "Road Trip", TrackCount: 42, URI: "spotify:playlist:1"},
			}, nil
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Client:  client,
			Output:  output,
		})

		if err := runCommand(t, runner, "playlists"); err != nil {
			t.Fatalf("playlists: %v", err)
		}
		if !strings.Contains(output.String(), "Road Trip") {
			t.Errorf("expected playlist name in output, got %q", output.String())
		}
	})

	t.Run("devices reports when none are available", func(t *testing.T) {
		session, store := testSession(t)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Client:  tu.NewMockClient(),
			Output:  output,
		})

		if err := runCommand(t, runner, "devices"); err != nil {
			t.Fatalf("devices: %v", err)
		}
		if !strings.Contains(output.String(), "No devices available") {
			t.Errorf("expected empty-device hint, got %q", output.String())
		}
	})

	t.Run("player status renders the snapshot", func(t *testing.T) {
		session, store := testSession(t)
		client := tu.NewMockClient()
		client.CurrentPlaybackFunc = func(ctx context.Context) (*models.Snapshot, error) {
			return &models.Snapshot{
				Playing:    true,
				ProgressMS: 65000,
				DurationMS: 200000,
				Volume:     80,
				Track:      models.Track{Name: "Song", Artists: []string{"A"}},
			}, nil
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Client:  client,
			Output:  output,
		})

		if err := runCommand(t, runner, "player", "status"); err != nil {
			t.Fatalf("player status: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "Song") {
			t.Errorf("expected track name, got %q", got)
		}
		if !strings.Contains(got, "01:05") {
			t.Errorf("expected elapsed clock, got %q", got)
		}
	})

	t.Run("player status with nothing playing", func(t *testing.T) {
		session, store := testSession(t)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Client:  tu.NewMockClient(),
			Output:  output,
		})

		if err := runCommand(t, runner, "player", "status"); err != nil {
			t.Fatalf("player status: %v", err)
		}
		if !strings.Contains(output.String(), "Nothing playing") {
			t.Errorf("expected idle message, got %q", output.String())
		}
	})

	t.Run("player volume clamps its argument", func(t *testing.T) {
		session, store := testSession(t)
		client := tu.NewMockClient()
		var got int
		client.SetVolumeFunc = func(ctx context.Context, percent int, deviceID string) error {
			got = percent
			return nil
		}

		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Client:  client,
			Output:  &bytes.Buffer{},
		})

		if err := runCommand(t, runner, "player", "volume", "150"); err != nil {
			t.Fatalf("player volume: %v", err)
		}
		if got != 100 {
			t.Errorf("volume sent = %d, want clamped 100", got)
		}
	})

	t.Run("player transfer matches a device by name", func(t *testing.T) {
		session, store := testSession(t)
		client := tu.NewMockClient()
		client.DevicesFunc = func(ctx context.Context) ([]models.Device, error) {
			return []models.Device{
				{ID: "d1", Name: "Kitchen"},
				{ID: "d2", Name: "Office"},
			}, nil
		}
		var gotID string
		client.TransferFunc = func(ctx context.Context, deviceID string, play bool) error {
			gotID = deviceID
			return nil
		}

		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Client:  client,
			Output:  &bytes.Buffer{},
		})

		if err := runCommand(t, runner, "player", "transfer", "office"); err != nil {
			t.Fatalf("player transfer: %v", err)
		}
		if gotID != "d2" {
			t.Errorf("transferred to %q, want d2", gotID)
		}
	})

	t.Run("auth status without a token", func(t *testing.T) {
		store := auth.NewTokenStore(filepath.Join(t.TempDir(), "token.json"), nil)
		session := auth.NewSession(map[string]string{
			"client_id":     "id",
			"client_secret": "secret",
		}, store, nil)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Output:  output,
		})

		if err := runCommand(t, runner, "auth", "status"); err != nil {
			t.Fatalf("auth status: %v", err)
		}
		if !strings.Contains(output.String(), "Not authenticated") {
			t.Errorf("expected unauthenticated status, got %q", output.String())
		}
	})

	t.Run("auth logout clears the cache", func(t *testing.T) {
		session, store := testSession(t)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Session: session,
			Store:   store,
			Output:  output,
		})

		if err := runCommand(t, runner, "auth", "logout"); err != nil {
			t.Fatalf("auth logout: %v", err)
		}
		if store.Load() != nil {
			t.Error("expected the token file to be removed")
		}
		if session.IsAuthenticated() {
			t.Error("expected the session to be unauthenticated")
		}
	})
}
