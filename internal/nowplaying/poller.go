package nowplaying

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const changeBufferSize = 4

// Poller periodically fetches the station's now-playing endpoint and
// reports each distinct track exactly once on Changes.
type Poller struct {
	client   *http.Client
	url      string
	interval time.Duration
	logger   *log.Logger

	changes chan Track
	cancel  context.CancelFunc
	last    string
}

// NewPoller creates a poller for the given endpoint. logger may be nil.
func NewPoller(url string, interval time.Duration, logger *log.Logger) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		client:   &http.Client{Timeout: 10 * time.Second},
		url:      url,
		interval: interval,
		logger:   logger,
		changes:  make(chan Track, changeBufferSize),
	}
}

// Changes delivers each distinct now-playing track once.
func (p *Poller) Changes() <-chan Track {
	return p.changes
}

// Start begins polling in the background. A fetch runs immediately,
// then every interval.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx)
}

// Stop ends polling. The Changes channel stays open but quiet.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	track, err := p.fetch(ctx)
	if err != nil {
		// Metadata is best-effort; playback carries on without it.
		p.logger.Debug("now-playing fetch failed", "err", err)
		return
	}
	if track.IsZero() {
		return
	}

	id := track.Identity()
	if id == p.last {
		return
	}

	select {
	case p.changes <- track:
		p.last = id
	default:
		// Consumer is behind; leave last unchanged so the next poll
		// retries this track.
	}
}

func (p *Poller) fetch(ctx context.Context) (Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return Track{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Track{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Track{}, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var track Track
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return Track{}, fmt.Errorf("decode response: %w", err)
	}
	return track, nil
}
