package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nvidal/aether/internal/clock"
	"github.com/nvidal/aether/internal/config"
	"github.com/nvidal/aether/internal/errmsg"
	"github.com/nvidal/aether/internal/mpris"
	"github.com/nvidal/aether/internal/notify"
	"github.com/nvidal/aether/internal/nowplaying"
	"github.com/nvidal/aether/internal/session"
	"github.com/nvidal/aether/internal/sink"
	"github.com/nvidal/aether/internal/store"
	"github.com/nvidal/aether/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpConfigLoad, err))
		os.Exit(1)
	}
	if cfg.Station.ManifestURL == "" && cfg.Station.StreamURL == "" {
		fmt.Fprintln(os.Stderr, "No station configured. Set station.stream_url in ~/.config/aether/config.toml")
		os.Exit(1)
	}

	logger := newLogger()

	// Saved volume comes back from the state store; everything else
	// starts fresh per session.
	st, err := store.Open()
	if err != nil {
		logger.Warn(errmsg.Format(errmsg.OpStateOpen, err))
		st = store.New()
	}

	spk := sink.NewSpeaker()
	spk.SetVolume(st.Snapshot().Volume)

	clk := clock.New(st.SetElapsed)

	ctrl := session.New(spk, clk, st, session.NewRecoveryPolicy(), logger, session.Config{
		ManifestURL: cfg.Station.ManifestURL,
		StreamURL:   cfg.Station.StreamURL,
		// No adaptive loader is compiled into this build; playback uses
		// the native stream path.
		Loader: nil,
	})

	m := ui.New(ctrl, st.Subscribe(), st.Snapshot(), cfg.DisplayName())
	p := tea.NewProgram(m)

	if err := ctrl.Initialize(); err != nil {
		// Status is already published as Error; the UI renders it.
		logger.Error(errmsg.Format(errmsg.OpStreamLoad, err))
	}

	notifier, _ := notify.New()
	var lastNotifyID uint32

	var poller *nowplaying.Poller
	bridge := nowplaying.NewBridge(ctrl, func(t nowplaying.Track) {
		p.Send(ui.TrackMsg(t))
		if id, err := notifier.Notify(notify.NowPlaying(t.Artist, t.Title, lastNotifyID)); err == nil && id != 0 {
			lastNotifyID = id
		}
	})

	bridgeDone := make(chan struct{})
	if cfg.HasNowPlaying() {
		poller = nowplaying.NewPoller(cfg.Station.NowPlaying, cfg.PollInterval(), logger)
		poller.Start()
		go bridge.Run(poller.Changes(), bridgeDone)
	}

	remote, err := mpris.New(ctrl, bridge)
	if err != nil {
		logger.Warn("mpris unavailable", "err", err)
	}

	_, runErr := p.Run()

	// Teardown order: stop inputs first, then the session, then the store.
	if poller != nil {
		poller.Stop()
	}
	close(bridgeDone)
	if remote != nil {
		remote.Close()
	}
	ctrl.Destroy()
	if err := st.Close(); err != nil {
		logger.Warn(errmsg.Format(errmsg.OpStateSave, err))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", runErr)
		os.Exit(1)
	}
}

// newLogger writes structured logs to the state directory; the terminal
// belongs to the TUI.
func newLogger() *log.Logger {
	var w io.Writer = io.Discard
	if path, err := xdg.StateFile(filepath.Join("aether", "aether.log")); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			w = f
		}
	}
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true})
}
