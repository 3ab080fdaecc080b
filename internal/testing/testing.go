// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/desertthunder/spotitui/internal/models"
	"github.com/desertthunder/spotitui/internal/services"
)

// MockClient is a scriptable test double for [services.Client].
//
// Unset function fields fall back to zero-value successes. Call counts are
// tracked per operation so tests can assert dispatch behavior.
type MockClient struct {
	mu    sync.Mutex
	Calls map[string]int

	CurrentUserFunc     func(ctx context.Context) (*services.User, error)
	PlaylistsFunc       func(ctx context.Context, limit, offset int) ([]models.Playlist, error)
	CurrentPlaybackFunc func(ctx context.Context) (*models.Snapshot, error)
	DevicesFunc         func(ctx context.Context) ([]models.Device, error)
	PlayFunc            func(ctx context.Context, deviceID, contextURI string) error
	PauseFunc           func(ctx context.Context, deviceID string) error
	NextFunc            func(ctx context.Context, deviceID string) error
	PreviousFunc        func(ctx context.Context, deviceID string) error
	SetVolumeFunc       func(ctx context.Context, percent int, deviceID string) error
	TransferFunc        func(ctx context.Context, deviceID string, play bool) error
}

var _ services.Client = (*MockClient)(nil)

func NewMockClient() *MockClient {
	return &MockClient{Calls: map[string]int{}}
}

func (m *MockClient) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[name]++
}

// CallCount returns how many times the named operation ran.
func (m *MockClient) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) CurrentUser(ctx context.Context) (*services.User, error) {
	m.record("current_user")
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &services.User{ID: "user"}, nil
}

func (m *MockClient) Playlists(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
	m.record("playlists")
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockClient) CurrentPlayback(ctx context.Context) (*models.Snapshot, error) {
	m.record("current_playback")
	if m.CurrentPlaybackFunc != nil {
		return m.CurrentPlaybackFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) Devices(ctx context.Context) ([]models.Device, error) {
	m.record("devices")
	if m.DevicesFunc != nil {
		return m.DevicesFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) Play(ctx context.Context, deviceID, contextURI string) error {
	m.record("play")
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, deviceID, contextURI)
	}
	return nil
}

func (m *MockClient) Pause(ctx context.Context, deviceID string) error {
	m.record("pause")
	if m.PauseFunc != nil {
		return m.PauseFunc(ctx, deviceID)
	}
	return nil
}

func (m *MockClient) Next(ctx context.Context, deviceID string) error {
	m.record("next")
	if m.NextFunc != nil {
		return m.NextFunc(ctx, deviceID)
	}
	return nil
}

func (m *MockClient) Previous(ctx context.Context, deviceID string) error {
	m.record("previous")
	if m.PreviousFunc != nil {
		return m.PreviousFunc(ctx, deviceID)
	}
	return nil
}

func (m *MockClient) SetVolume(ctx context.Context, percent int, deviceID string) error {
	m.record("set_volume")
	if m.SetVolumeFunc != nil {
		return m.SetVolumeFunc(ctx, percent, deviceID)
	}
	return nil
}

func (m *MockClient) Transfer(ctx context.Context, deviceID string, play bool) error {
	m.record("transfer")
	if m.TransferFunc != nil {
		return m.TransferFunc(ctx, deviceID, play)
	}
	return nil
}

// MockRoundTripper allows custom HTTP responses for testing.
type MockRoundTripper struct {
	Handler func(*http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.Handler == nil {
		return nil, errors.New("no handler configured")
	}
	return m.Handler(req)
}

// FWriter always returns an error on Write.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
