package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/desertthunder/spotitui/internal/formatter"
)

func (m *Model) renderLogin() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("spotitui"))
	b.WriteString("\n\n")
	b.WriteString("Open this URL in your browser to sign in with Spotify:\n\n")
	b.WriteString(styles.ok.Render(m.login.AuthorizeURL))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s Waiting for authorization...", m.spin.View()))

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(styles.err.Render(m.err.Error()))
	}

	return m.withHelp(b.String(), m.keys.quit)
}

func (m *Model) renderHome() string {
	var b strings.Builder

	if !m.listsReady {
		b.WriteString(styles.title.Render("spotitui"))
		b.WriteString("\n\nLoading playlists...")
	} else {
		b.WriteString(m.playlistList.View())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(m.err.Error()))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}

	return m.withHelp(b.String(), m.keys.enter, m.keys.devices, m.keys.refresh, m.keys.quit)
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Now Playing"))
	b.WriteString("\n\n")

	snap := m.snapshot
	if snap == nil || !snap.HasTrack() {
		b.WriteString(styles.faint.Render("Nothing playing."))
		return m.withHelp(b.String(), m.keys.toggle, m.keys.devices, m.keys.back, m.keys.quit)
	}

	state := "▶"
	if !snap.Playing {
		state = "⏸"
	}

	b.WriteString(fmt.Sprintf("%s %s\n", state, styles.ok.Render(snap.Track.Name)))
	b.WriteString(styles.faint.Render(snap.Track.ArtistLine()))
	if snap.Track.AlbumName != "" {
		b.WriteString(styles.faint.Render(" · " + snap.Track.AlbumName))
	}
	b.WriteString("\n\n")

	elapsed, remaining := formatter.ProgressClock(snap.ProgressMS, snap.DurationMS)
	ratio := 0.0
	if snap.DurationMS > 0 {
		ratio = float64(snap.ProgressMS) / float64(snap.DurationMS)
	}
	b.WriteString(fmt.Sprintf("%s %s -%s\n\n", elapsed, m.bar.ViewAs(ratio), remaining))

	vol := fmt.Sprintf("Volume: %d%%", snap.Volume)
	if m.controller.Muted() {
		vol += " (muted)"
	}
	b.WriteString(styles.faint.Render(vol))

	if m.poller.ConsecutiveFailures() >= staleThreshold {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Reconnecting..."))
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}

	return m.withHelp(b.String(),
		m.keys.toggle, m.keys.next, m.keys.previous,
		m.keys.volUp, m.keys.volDown, m.keys.mute,
		m.keys.devices, m.keys.back, m.keys.quit)
}

func (m *Model) renderDevices() string {
	var b strings.Builder

	if !m.devicesReady {
		b.WriteString(styles.title.Render("Devices"))
		b.WriteString("\n\nLoading devices...")
	} else {
		b.WriteString(m.deviceList.View())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(m.err.Error()))
	}

	return m.withHelp(b.String(), m.keys.enter, m.keys.refresh, m.keys.back, m.keys.quit)
}

func (m *Model) withHelp(body string, bindings ...key.Binding) string {
	return fmt.Sprintf("%s\n\n%s", body, m.help.ShortHelpView(bindings))
}
