package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotitui/internal/auth"
	"github.com/desertthunder/spotitui/internal/models"
	"github.com/desertthunder/spotitui/internal/player"
	"github.com/desertthunder/spotitui/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	HomeView
	NowPlayingView
	DeviceView
)

// defaultAuthPollInterval is the coordinator completion-check cadence used
// when the config does not set one.
const defaultAuthPollInterval = 2 * time.Second

// staleThreshold is how many consecutive failed polls it takes before the
// now-playing view flags the connection instead of silently showing the
// last good snapshot.
const staleThreshold = 3

// Opts collects the dependencies the Model needs.
type Opts struct {
	Client            services.Client
	Coordinator       *auth.Coordinator
	Poller            *player.Poller
	Controller        *player.Controller
	Login             auth.LoginOutcome
	DefaultDeviceName string
	PlaylistPageSize  int
	AuthPollInterval  time.Duration
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	client      services.Client
	coordinator *auth.Coordinator
	poller      *player.Poller
	controller  *player.Controller

	login             auth.LoginOutcome
	defaultDeviceName string
	pageSize          int
	authPoll          time.Duration

	width  int
	height int

	playlistList list.Model
	deviceList   list.Model
	listsReady   bool
	devicesReady bool

	snapshots <-chan models.Snapshot
	snapshot  *models.Snapshot

	bar    progress.Model
	spin   spinner.Model
	help   help.Model
	keys   keyMap
	status string
	err    error
	fatal  bool
}

type authTickMsg struct{}

type authDoneMsg struct{}

type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

type devicesFetchedMsg struct {
	devices []models.Device
	err     error
}

type snapshotMsg models.Snapshot

type commandResultMsg player.CommandResult

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	pageSize := opts.PlaylistPageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	authPoll := opts.AuthPollInterval
	if authPoll <= 0 {
		authPoll = defaultAuthPollInterval
	}

	view := LoginView
	if opts.Login.AlreadyAuthenticated {
		view = HomeView
	}

	return &Model{
		ctx:               ctx,
		view:              view,
		client:            opts.Client,
		coordinator:       opts.Coordinator,
		poller:            opts.Poller,
		controller:        opts.Controller,
		login:             opts.Login,
		defaultDeviceName: opts.DefaultDeviceName,
		pageSize:          pageSize,
		authPoll:          authPoll,
		bar:               progress.New(progress.WithDefaultGradient()),
		spin:              sp,
		help:              help.New(),
		keys:              newKeyMap(),
	}
}

// Init either starts polling immediately (cached token) or begins ticking
// the login coordinator.
func (m *Model) Init() tea.Cmd {
	if m.login.AlreadyAuthenticated {
		return m.onAuthenticated()
	}
	return tea.Batch(m.spin.Tick, m.scheduleAuthTick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listsReady {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.devicesReady {
			m.deviceList.SetSize(msg.Width-4, msg.Height-8)
		}
		m.bar.Width = min(msg.Width-20, 60)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case authTickMsg:
		if m.coordinator.PollCompletion(m.ctx) {
			return m, func() tea.Msg { return authDoneMsg{} }
		}
		if m.coordinator.Done() {
			m.err = fmt.Errorf("authorization was rejected; restart to try again")
			m.fatal = true
			return m, nil
		}
		return m, m.scheduleAuthTick()

	case authDoneMsg:
		m.view = HomeView
		m.status = "Authenticated"
		return m, m.onAuthenticated()

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Your Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.listsReady = true
		return m, nil

	case devicesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		return m, m.applyDevices(msg.devices)

	case snapshotMsg:
		snap := models.Snapshot(msg)
		m.snapshot = &snap
		return m, m.waitForSnapshot()

	case commandResultMsg:
		if msg.Err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("%s failed", msg.Name))
		} else {
			m.status = ""
		}
		return m, m.waitForCommandResult()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.fatal {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoginView:
		return m.renderLogin()
	case HomeView:
		return m.renderHome()
	case NowPlayingView:
		return m.renderNowPlaying()
	case DeviceView:
		return m.renderDevices()
	default:
		return ""
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.poller.Stop()
		m.coordinator.Close()
		return m, tea.Quit
	}

	switch m.view {
	case HomeView:
		return m.handleHomeKeys(msg)
	case NowPlayingView:
		return m.handleNowPlayingKeys(msg)
	case DeviceView:
		return m.handleDeviceKeys(msg)
	}
	return m, nil
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		if !m.listsReady {
			return m, nil
		}
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.controller.Play(pl.playlist.URI)
			m.view = NowPlayingView
		}
		return m, nil
	case key.Matches(msg, m.keys.devices):
		m.view = DeviceView
		return m, m.fetchDevices()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchPlaylists()
	}

	return m.updateLists(msg)
}

func (m *Model) handleNowPlayingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = HomeView
	case key.Matches(msg, m.keys.toggle):
		if m.snapshot != nil && m.snapshot.Playing {
			m.controller.Pause()
		} else {
			m.controller.Play("")
		}
	case key.Matches(msg, m.keys.next):
		m.controller.Next()
	case key.Matches(msg, m.keys.previous):
		m.controller.Previous()
	case key.Matches(msg, m.keys.volUp):
		m.controller.SetVolume(m.currentVolume() + 5)
	case key.Matches(msg, m.keys.volDown):
		m.controller.SetVolume(m.currentVolume() - 5)
	case key.Matches(msg, m.keys.mute):
		m.controller.ToggleMute()
	case key.Matches(msg, m.keys.devices):
		m.view = DeviceView
		return m, m.fetchDevices()
	}
	return m, nil
}

func (m *Model) handleDeviceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = NowPlayingView
		if m.snapshot == nil {
			m.view = HomeView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if d, ok := m.deviceList.SelectedItem().(deviceItem); ok {
			m.controller.Transfer(d.device.ID, true)
			m.view = NowPlayingView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchDevices()
	}

	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case HomeView:
		if m.listsReady {
			m.playlistList, cmd = m.playlistList.Update(msg)
		}
	case DeviceView:
		if m.devicesReady {
			m.deviceList, cmd = m.deviceList.Update(msg)
		}
	}
	return m, cmd
}

// onAuthenticated starts the poller and kicks off the post-login fetches.
func (m *Model) onAuthenticated() tea.Cmd {
	m.poller.Start(m.ctx)
	m.snapshots = m.poller.Subscribe()

	return tea.Batch(
		m.fetchPlaylists(),
		m.fetchDevices(),
		m.waitForSnapshot(),
		m.waitForCommandResult(),
	)
}

func (m *Model) scheduleAuthTick() tea.Cmd {
	return tea.Tick(m.authPoll, func(time.Time) tea.Msg {
		return authTickMsg{}
	})
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.client.Playlists(m.ctx, m.pageSize, 0)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.client.Devices(m.ctx)
		return devicesFetchedMsg{devices: devices, err: err}
	}
}

// applyDevices refreshes the device list view and, when no target is
// pinned yet, resolves the default command target.
func (m *Model) applyDevices(devices []models.Device) tea.Cmd {
	items := make([]list.Item, len(devices))
	for i, d := range devices {
		items[i] = deviceItem{device: d}
	}
	m.deviceList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.deviceList.Title = "Devices"
	m.deviceList.SetSize(m.width-4, m.height-8)
	m.devicesReady = true

	if m.controller.Device() == "" {
		if active := player.ActiveDevice(devices); active != nil {
			m.controller.SetDevice(active.ID)
		} else if id := player.SelectDefault(devices, m.defaultDeviceName); id != "" {
			m.controller.SetDevice(id)
		}
	}

	return nil
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.snapshots
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) waitForCommandResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-m.controller.Results()
		if !ok {
			return nil
		}
		return commandResultMsg(result)
	}
}

func (m *Model) currentVolume() int {
	if m.snapshot != nil {
		return m.snapshot.Volume
	}
	return 50
}
