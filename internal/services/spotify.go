// Spotify Web API implementation of [Client]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitui/internal/auth"
	"github.com/desertthunder/spotitui/internal/models"
	"github.com/desertthunder/spotitui/internal/shared"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// defaultRateLimit keeps the client comfortably inside Spotify's rolling
// request window even with the poller and commands running together.
const defaultRateLimit = 8.0

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	URI        string          `json:"uri"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
}

type spotifyDevice struct {
	ID            string `json:"id"`
	IsActive      bool   `json:"is_active"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	VolumePercent int    `json:"volume_percent"`
}

type spotifyDeviceList struct {
	Devices []spotifyDevice `json:"devices"`
}

type spotifyPlaybackState struct {
	Device     *spotifyDevice `json:"device"`
	ProgressMS int            `json:"progress_ms"`
	IsPlaying  bool           `json:"is_playing"`
	Item       *spotifyTrack  `json:"item"`
}

type spotifySimplePlaylist struct {
	ID     string         `json:"id"`
	URI    string         `json:"uri"`
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyPaginatedPlaylists struct {
	Items  []spotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type spotifyAPIError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// SpotifyClient implements [Client] against the Spotify Web API.
//
// Credentials come from an [auth.Session]; every request calls EnsureFresh
// so an expired token is refreshed before use, never sent as-is.
type SpotifyClient struct {
	session    *auth.Session
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyClient creates an API client bound to the given session.
func NewSpotifyClient(session *auth.Session, logger *log.Logger) *SpotifyClient {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyClient{
		session:    session,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		logger:     logger,
	}
}

func (c *SpotifyClient) Name() string {
	return "Spotify"
}

// WithHTTPClient swaps the underlying HTTP client, primarily for tests.
func (c *SpotifyClient) WithHTTPClient(hc *http.Client) *SpotifyClient {
	c.httpClient = hc
	return c
}

// doRequest performs one authenticated request, refreshing the token and
// retrying exactly once on a 401. The result pointer may be nil for
// fire-and-forget command endpoints.
func (c *SpotifyClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		// One refresh-and-retry, never a loop. The provider rejected the
		// token, so the refresh is forced even if it looks valid locally.
		if _, err := c.session.ForceRefresh(ctx); err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, endpoint, body); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *SpotifyClient) send(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	token, err := c.session.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, spotifyBaseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	return resp, nil
}

// classifyStatus maps a non-2xx response onto the error taxonomy:
// 429/5xx are transient, 403 premium rejections are permanent-and-specific,
// other 4xx are permanent.
func classifyStatus(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr spotifyAPIError
	message := ""
	if json.Unmarshal(data, &apiErr) == nil {
		message = apiErr.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: retry after %s", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToUpper(apiErr.Error.Reason), "PREMIUM"):
		return shared.ErrPremiumRequired
	case resp.StatusCode == http.StatusNotFound && strings.Contains(strings.ToLower(message), "device"):
		return shared.ErrNoActiveDevice
	default:
		return fmt.Errorf("%w: status %d %s", shared.ErrAPIRequest, resp.StatusCode, message)
	}
}

// CurrentUser retrieves the authenticated user's profile.
func (c *SpotifyClient) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlists retrieves one page of the current user's playlists.
func (c *SpotifyClient) Playlists(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response spotifyPaginatedPlaylists
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(response.Items))
	for _, sp := range response.Items {
		playlists = append(playlists, models.Playlist{
			ID:         sp.ID,
			URI:        sp.URI,
			Name:       sp.Name,
			Images:     convertImages(sp.Images),
			TrackCount: sp.Tracks.Total,
		})
	}

	return playlists, nil
}

// CurrentPlayback retrieves the playback state and normalizes it into a
// [models.Snapshot]. Spotify answers 204 when nothing is playing; that maps
// to (nil, nil).
func (c *SpotifyClient) CurrentPlayback(ctx context.Context) (*models.Snapshot, error) {
	var state spotifyPlaybackState
	if err := c.doRequest(ctx, http.MethodGet, "/me/player", nil, &state); err != nil {
		return nil, err
	}

	if state.Item == nil && state.Device == nil {
		return nil, nil
	}

	return normalizeSnapshot(state), nil
}

// Devices retrieves the available playback devices.
func (c *SpotifyClient) Devices(ctx context.Context) ([]models.Device, error) {
	var list spotifyDeviceList
	if err := c.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &list); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(list.Devices))
	for _, d := range list.Devices {
		devices = append(devices, models.Device{
			ID:            d.ID,
			Name:          d.Name,
			Type:          d.Type,
			Active:        d.IsActive,
			VolumePercent: d.VolumePercent,
		})
	}

	return devices, nil
}

// Play starts or resumes playback, optionally of a specific context URI.
func (c *SpotifyClient) Play(ctx context.Context, deviceID, contextURI string) error {
	var body any
	if contextURI != "" {
		body = map[string]string{"context_uri": contextURI}
	}
	return c.doRequest(ctx, http.MethodPut, withDevice("/me/player/play", deviceID), body, nil)
}

// Pause pauses playback.
func (c *SpotifyClient) Pause(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPut, withDevice("/me/player/pause", deviceID), nil, nil)
}

// Next skips to the next track.
func (c *SpotifyClient) Next(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPost, withDevice("/me/player/next", deviceID), nil, nil)
}

// Previous skips to the previous track.
func (c *SpotifyClient) Previous(ctx context.Context, deviceID string) error {
	return c.doRequest(ctx, http.MethodPost, withDevice("/me/player/previous", deviceID), nil, nil)
}

// SetVolume sets the playback volume. Callers are expected to pass a value
// already clamped to [0,100].
func (c *SpotifyClient) SetVolume(ctx context.Context, percent int, deviceID string) error {
	endpoint := fmt.Sprintf("/me/player/volume?volume_percent=%d", percent)
	if deviceID != "" {
		endpoint += "&device_id=" + url.QueryEscape(deviceID)
	}
	return c.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
}

// Transfer moves playback to another device, optionally starting playback
// there immediately.
func (c *SpotifyClient) Transfer(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}
	return c.doRequest(ctx, http.MethodPut, "/me/player", body, nil)
}

// withDevice appends an optional device_id query parameter.
func withDevice(endpoint, deviceID string) string {
	if deviceID == "" {
		return endpoint
	}
	return endpoint + "?device_id=" + url.QueryEscape(deviceID)
}

// normalizeSnapshot flattens the wire state into the immutable snapshot
// shape consumed by the UI.
func normalizeSnapshot(state spotifyPlaybackState) *models.Snapshot {
	snap := &models.Snapshot{
		Playing:    state.IsPlaying,
		ProgressMS: state.ProgressMS,
	}

	if state.Device != nil {
		snap.DeviceID = state.Device.ID
		snap.Volume = state.Device.VolumePercent
	}

	if state.Item != nil {
		artists := make([]string, 0, len(state.Item.Artists))
		for _, a := range state.Item.Artists {
			artists = append(artists, a.Name)
		}

		snap.DurationMS = state.Item.DurationMS
		snap.Track = models.Track{
			Name:        state.Item.Name,
			URI:         state.Item.URI,
			Artists:     artists,
			AlbumName:   state.Item.Album.Name,
			AlbumImages: convertImages(state.Item.Album.Images),
			DurationMS:  state.Item.DurationMS,
		}
	}

	return snap
}

func convertImages(images []spotifyImage) []models.Image {
	converted := make([]models.Image, 0, len(images))
	for _, img := range images {
		converted = append(converted, models.Image{URL: img.URL, Height: img.Height, Width: img.Width})
	}
	return converted
}
