//go:build !linux

package mpris

import (
	"github.com/nvidal/aether/internal/nowplaying"
	"github.com/nvidal/aether/internal/session"
)

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ *session.Controller, _ *nowplaying.Bridge) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
