package ui

import (
	"context"
	"testing"
	"time"
)

func TestNewModel(t *testing.T) {
	t.Run("auth poll interval comes from the options", func(t *testing.T) {
		m := NewModel(context.Background(), Opts{AuthPollInterval: 5 * time.Second})
		if m.authPoll != 5*time.Second {
			t.Errorf("authPoll = %v, want 5s", m.authPoll)
		}
	})

	t.Run("auth poll interval falls back to the default", func(t *testing.T) {
		m := NewModel(context.Background(), Opts{})
		if m.authPoll != defaultAuthPollInterval {
			t.Errorf("authPoll = %v, want %v", m.authPoll, defaultAuthPollInterval)
		}
	})

	t.Run("playlist page size falls back to the default", func(t *testing.T) {
		m := NewModel(context.Background(), Opts{PlaylistPageSize: -3})
		if m.pageSize != 20 {
			t.Errorf("pageSize = %d, want 20", m.pageSize)
		}
	})
}
