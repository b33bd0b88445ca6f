package session

import (
	"time"

	"github.com/nvidal/aether/internal/stream"
)

// ActionKind is the recovery decision for a classified stream error.
type ActionKind int

const (
	// ActionResume instructs the engine to resume loading; shown as
	// Buffering, no user-facing error.
	ActionResume ActionKind = iota
	// ActionRecoverMedia runs the engine's built-in media recovery.
	ActionRecoverMedia
	// ActionReinit tears down and rebuilds the engine after Delay.
	ActionReinit
	// ActionGiveUp surfaces Error with no further automatic retry.
	ActionGiveUp
)

// String returns the action name.
func (k ActionKind) String() string {
	switch k {
	case ActionResume:
		return "resume"
	case ActionRecoverMedia:
		return "recover-media"
	case ActionReinit:
		return "reinit"
	case ActionGiveUp:
		return "give-up"
	default:
		return "unknown"
	}
}

// Action is a recovery decision. Delay applies only to ActionReinit.
type Action struct {
	Kind  ActionKind
	Delay time.Duration
}

const (
	defaultMaxAttempts = 3
	mediaErrorWindow   = 10 * time.Second
	mediaErrorLimit    = 3
)

// defaultBackoff is the reinit schedule: immediate, then 2s, then 5s.
var defaultBackoff = []time.Duration{0, 2 * time.Second, 5 * time.Second}

// RecoveryPolicy decides how to react to classified stream errors.
//
// Non-fatal network errors resume silently. Fatal network errors get a
// bounded reinit with backoff. Media errors use the engine's built-in
// recovery until too many land inside a short rolling window, which
// escalates to the fatal-network path. Unsupported and Unknown never
// retry.
type RecoveryPolicy struct {
	backoff     []time.Duration
	maxAttempts int
	window      time.Duration
	mediaLimit  int
	now         func() time.Time

	attempts  int
	mediaErrs []time.Time
}

// NewRecoveryPolicy creates a policy with the default schedule and caps.
func NewRecoveryPolicy() *RecoveryPolicy {
	return &RecoveryPolicy{
		backoff:     defaultBackoff,
		maxAttempts: defaultMaxAttempts,
		window:      mediaErrorWindow,
		mediaLimit:  mediaErrorLimit,
		now:         time.Now,
	}
}

// Decide returns the action for one classified error.
func (p *RecoveryPolicy) Decide(serr *stream.Error) Action {
	switch serr.Category {
	case stream.CategoryNetwork:
		if !serr.Fatal {
			return Action{Kind: ActionResume}
		}
		return p.reinitAction()

	case stream.CategoryMedia:
		if p.recordMediaError() {
			// Too many media errors in the window: full reinit.
			p.mediaErrs = nil
			return p.reinitAction()
		}
		return Action{Kind: ActionRecoverMedia}

	case stream.CategoryUnsupported, stream.CategoryUnknown:
		return Action{Kind: ActionGiveUp}

	default:
		return Action{Kind: ActionGiveUp}
	}
}

// RecordSuccess resets the attempt counter after the stream comes back.
func (p *RecoveryPolicy) RecordSuccess() {
	p.attempts = 0
	p.mediaErrs = nil
}

// Attempts returns how many reinit attempts have been spent.
func (p *RecoveryPolicy) Attempts() int { return p.attempts }

func (p *RecoveryPolicy) reinitAction() Action {
	if p.attempts >= p.maxAttempts {
		return Action{Kind: ActionGiveUp}
	}
	delay := p.backoff[len(p.backoff)-1]
	if p.attempts < len(p.backoff) {
		delay = p.backoff[p.attempts]
	}
	p.attempts++
	return Action{Kind: ActionReinit, Delay: delay}
}

// recordMediaError notes a media error and reports whether the rolling
// window now holds enough of them to escalate.
func (p *RecoveryPolicy) recordMediaError() bool {
	now := p.now()
	cutoff := now.Add(-p.window)

	kept := p.mediaErrs[:0]
	for _, t := range p.mediaErrs {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	p.mediaErrs = append(kept, now)

	return len(p.mediaErrs) >= p.mediaLimit
}
