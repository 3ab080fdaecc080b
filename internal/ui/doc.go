// Package ui implements the interactive player using bubbletea's Elm architecture.
//
// The TUI provides a multi-view playback workflow:
//  1. [LoginView] : browser sign-in; polls the auth coordinator on the configured interval (2s default)
//  2. [HomeView] : Browse playlists and start playback
//  3. [NowPlayingView] : Track metadata, progress bar, and playback controls
//  4. [DeviceView] : Pick a device and transfer playback to it
//
// The [Model] implements bubbletea's standard Init/Update/View pattern.
// Playback snapshots flow in through a poller subscription consumed by a
// self-rescheduling tea.Cmd, so background polling never touches model
// state directly; command results arrive the same way on a second channel.
//
// Keyboard bindings are playback-oriented (space, n/p, +/-, m, d) with
// contextual help rendered via charmbracelet/bubbles/help.
package ui
