package stream

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Category classifies a streaming failure for the recovery policy.
type Category int

const (
	// CategoryNetwork covers fetch and connection failures.
	CategoryNetwork Category = iota
	// CategoryMedia covers decode and container failures.
	CategoryMedia
	// CategoryUnsupported means no playback path exists on this platform.
	CategoryUnsupported
	// CategoryUnknown covers everything the classifier cannot place.
	CategoryUnknown
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryNetwork:
		return "Network"
	case CategoryMedia:
		return "Media"
	case CategoryUnsupported:
		return "Unsupported"
	case CategoryUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Error is a classified streaming failure. Fatal means the engine cannot
// self-heal without a full teardown and rebuild.
type Error struct {
	Category Category
	Fatal    bool
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("stream: %s error", e.Category)
	}
	return fmt.Sprintf("stream: %s error: %v", e.Category, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Classify wraps a raw sink or transport error into a classified Error.
// Already-classified errors pass through unchanged. A nil input still
// yields a usable Error: event handlers must never panic on a report
// with no cause attached.
func Classify(err error) *Error {
	if err == nil {
		return &Error{Category: CategoryUnknown, Fatal: true}
	}
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}

	if isNetworkError(err) {
		// A dropped connection needs a reconnect, not a resume.
		return &Error{Category: CategoryNetwork, Fatal: true, Cause: err}
	}
	if isMediaError(err) {
		return &Error{Category: CategoryMedia, Fatal: false, Cause: err}
	}
	return &Error{Category: CategoryUnknown, Fatal: true, Cause: err}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func isMediaError(err error) bool {
	// go-mp3 reports frame-level failures with a "mp3:" prefix; treat
	// any decode-stage error as a media failure.
	msg := err.Error()
	return strings.Contains(msg, "mp3:") || strings.Contains(msg, "decode")
}
