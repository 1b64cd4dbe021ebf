package window

import (
	"time"

	"github.com/mediaveil/mediaveil/pkg/media"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// ForegroundSignal is a best guess of which application is in front.
// It is only meaningful within Validity of ObservedAt.
type ForegroundSignal struct {
	AppID      string
	ObservedAt time.Time
	Validity   time.Duration
	Source     string // "x11", "push", "cache", "replay"
}

// ValidAt reports whether the signal can still be trusted at now. An expired
// signal means "unknown", not "nothing in foreground".
func (f ForegroundSignal) ValidAt(now time.Time) bool {
	if f.ObservedAt.IsZero() || f.Validity <= 0 {
		return false
	}
	return !now.After(f.ObservedAt.Add(f.Validity))
}

// ForegroundResolver is polled for the foreground application
type ForegroundResolver interface {
	// ResolveForeground returns the current best guess. An error means the
	// signal is absent this round.
	ResolveForeground() (ForegroundSignal, error)

	// IsAvailable checks if this resolver can run on the current system
	IsAvailable() bool

	// Close cleans up any resources used by the resolver
	Close() error
}

// WindowLister lists the on-screen windows
type WindowLister interface {
	ListWindows() ([]snapshot.Window, error)
}

// PlaybackSource answers the current media session state of an application.
// The boolean is false when the application has no session.
type PlaybackSource interface {
	CurrentPlayback(appID string) (media.PlaybackSignal, bool)
}
