//go:build linux

// Package mpris exposes the playback session over D-Bus so desktop
// media keys and applets can control the radio.
package mpris

import (
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/nvidal/aether/internal/nowplaying"
	"github.com/nvidal/aether/internal/session"
)

// Adapter connects the session controller to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
}

// New creates and starts a new MPRIS adapter. bridge supplies the
// current track metadata and may be nil.
func New(ctrl *session.Controller, bridge *nowplaying.Bridge) (*Adapter, error) {
	a := &Adapter{}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{ctrl: ctrl, bridge: bridge}

	a.server = server.NewServer("aether", rootAdapter, playerAdapter)

	// Start the server in background
	go func() {
		_ = a.server.Listen()
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Aether", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "application/vnd.apple.mpegurl"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
// A radio has no queue and no seeking; everything funnels through the
// controller's toggle.
type playerAdapter struct {
	ctrl   *session.Controller
	bridge *nowplaying.Bridge
}

func (p *playerAdapter) Next() error {
	return nil // Live stream: no queue
}

func (p *playerAdapter) Previous() error {
	return nil // Live stream: no queue
}

func (p *playerAdapter) Pause() error {
	if p.ctrl.IsPlaying() {
		p.ctrl.TogglePlay()
	}
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.ctrl.TogglePlay()
	return nil
}

func (p *playerAdapter) Stop() error {
	if p.ctrl.IsPlaying() {
		p.ctrl.TogglePlay()
	}
	return nil
}

func (p *playerAdapter) Play() error {
	if !p.ctrl.IsPlaying() {
		p.ctrl.TogglePlay()
	}
	return nil
}

func (p *playerAdapter) Seek(_ types.Microseconds) error {
	return nil // Live stream: not seekable
}

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error {
	return nil // Live stream: not seekable
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.ctrl.Status() {
	case session.StatusPlaying, session.StatusBuffering:
		if p.ctrl.IsPlaying() {
			return types.PlaybackStatusPlaying, nil
		}
		return types.PlaybackStatusPaused, nil
	case session.StatusPaused, session.StatusReadyToPlay:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	if p.bridge == nil {
		return types.Metadata{}, nil
	}
	track := p.bridge.Current()
	if track.IsZero() {
		return types.Metadata{}, nil
	}

	return types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(track.Identity())),
		Title:   track.Title,
		Artist:  []string{track.Artist},
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.ctrl.Volume(), nil
}

func (p *playerAdapter) SetVolume(level float64) error {
	p.ctrl.SetVolume(level)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return 0, nil // Live stream: position is not meaningful
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.ctrl.Status().IsActive(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(identity string) string {
	h := fnv.New64a()
	h.Write([]byte(identity))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
