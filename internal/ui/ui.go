// Package ui renders the player view and routes key presses to the
// session controller.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nvidal/aether/internal/nowplaying"
	"github.com/nvidal/aether/internal/session"
	"github.com/nvidal/aether/internal/store"
)

// SnapshotMsg carries a pushed state update.
type SnapshotMsg store.Snapshot

// TrackMsg carries a now-playing change. Sent from the composition root
// via Program.Send.
type TrackMsg nowplaying.Track

// ErrorMsg carries a user-facing error line for the footer.
type ErrorMsg string

// storeClosedMsg fires when the state store shuts down.
type storeClosedMsg struct{}

// Controller is the slice of the session controller the UI drives.
type Controller interface {
	TogglePlay()
	SetVolume(level float64)
	Volume() float64
}

// Model is the bubbletea model for the player.
type Model struct {
	ctrl    Controller
	sub     *store.Subscription
	keys    KeyMap
	station string

	snap   store.Snapshot
	track  nowplaying.Track
	errMsg string
	width  int
}

// New creates the player model. sub is an open store subscription owned
// by the model for its lifetime.
func New(ctrl Controller, sub *store.Subscription, snap store.Snapshot, station string) Model {
	return Model{
		ctrl:    ctrl,
		sub:     sub,
		keys:    DefaultKeyMap(),
		station: station,
		snap:    snap,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.sub)
}

// waitForUpdate blocks on the store subscription and converts the next
// push into a message.
func waitForUpdate(sub *store.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-sub.Updates:
			return SnapshotMsg(snap)
		case <-sub.Done:
			return storeClosedMsg{}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case SnapshotMsg:
		m.snap = store.Snapshot(msg)
		return m, waitForUpdate(m.sub)

	case TrackMsg:
		m.track = nowplaying.Track(msg)
		return m, nil

	case ErrorMsg:
		m.errMsg = string(msg)
		return m, nil

	case storeClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.TogglePlay()
				return nil
			}
		case key.Matches(msg, m.keys.VolumeUp):
			m.ctrl.SetVolume(m.ctrl.Volume() + 0.05)
			return m, nil
		case key.Matches(msg, m.keys.VolumeDown):
			m.ctrl.SetVolume(m.ctrl.Volume() - 0.05)
			return m, nil
		}
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(stationStyle.Render(m.station))
	b.WriteString("\n")

	b.WriteString(statusIcon(m.snap))
	b.WriteString(" ")
	if m.track.IsZero() {
		b.WriteString(trackStyle.Render("—"))
	} else {
		b.WriteString(trackStyle.Render(fmt.Sprintf("%s — %s", m.track.Artist, m.track.Title)))
	}
	b.WriteString("\n")

	line := fmt.Sprintf("%s  ·  %s  ·  vol %d%%",
		m.snap.Status,
		formatElapsed(m.snap.ElapsedSeconds),
		int(m.snap.Volume*100+0.5),
	)
	b.WriteString(statusStyle.Render(line))

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play/pause · +/- volume · q quit"))

	bar := barStyle.Render(b.String())
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, bar)
	}
	return bar
}

// statusIcon maps the published status to a one-glyph indicator.
func statusIcon(snap store.Snapshot) string {
	switch snap.Status {
	case session.StatusPlaying.String():
		return "▶"
	case session.StatusPaused.String(), session.StatusReadyToPlay.String():
		return "⏸"
	case session.StatusError.String():
		return "✖"
	default:
		return "…"
	}
}

// formatElapsed renders whole seconds as m:ss or h:mm:ss.
func formatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	mm := (seconds % 3600) / 60
	ss := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mm, ss)
	}
	return fmt.Sprintf("%d:%02d", mm, ss)
}
