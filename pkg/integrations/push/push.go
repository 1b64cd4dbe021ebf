// Package push holds signal sources that are fed from outside the process,
// typically by the HTTP ingest API or a scenario replay.
package push

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/pkg/media"
	"github.com/mediaveil/mediaveil/pkg/window"
)

// ErrNoObservation is returned before any foreground report arrived
var ErrNoObservation = errors.New("no foreground observation")

// PlaybackStore keeps the latest media session per application
type PlaybackStore struct {
	mu       sync.RWMutex
	sessions map[string]media.PlaybackSignal
}

func NewPlaybackStore() *PlaybackStore {
	return &PlaybackStore{sessions: make(map[string]media.PlaybackSignal)}
}

// Update replaces the session of sig.AppID
func (p *PlaybackStore) Update(sig media.PlaybackSignal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sig.AppID] = sig
}

// Remove forgets appID's session, as when the application releases it
func (p *PlaybackStore) Remove(appID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, appID)
}

func (p *PlaybackStore) CurrentPlayback(appID string) (media.PlaybackSignal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sig, ok := p.sessions[appID]
	return sig, ok
}

// Sessions returns every known session ordered by application id
func (p *PlaybackStore) Sessions() []media.PlaybackSignal {
	p.mu.RLock()
	out := make([]media.PlaybackSignal, 0, len(p.sessions))
	for _, sig := range p.sessions {
		out = append(out, sig)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out
}

// ForegroundFeed is a ForegroundResolver that answers the last reported
// foreground application
type ForegroundFeed struct {
	mu       sync.RWMutex
	last     window.ForegroundSignal
	validity time.Duration
	now      func() time.Time
}

// NewForegroundFeed returns a feed whose reports stay valid for validity
// unless a report names its own
func NewForegroundFeed(validity time.Duration) *ForegroundFeed {
	return &ForegroundFeed{validity: validity, now: time.Now}
}

// SetClock replaces the time source used to stamp reports
func (f *ForegroundFeed) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Report records appID as the foreground application. A non-positive
// validity uses the feed default.
func (f *ForegroundFeed) Report(appID string, validity time.Duration) window.ForegroundSignal {
	f.mu.Lock()
	defer f.mu.Unlock()
	if validity <= 0 {
		validity = f.validity
	}
	f.last = window.ForegroundSignal{
		AppID:      appID,
		ObservedAt: f.now(),
		Validity:   validity,
		Source:     "push",
	}
	return f.last
}

func (f *ForegroundFeed) ResolveForeground() (window.ForegroundSignal, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last.ObservedAt.IsZero() {
		return window.ForegroundSignal{}, ErrNoObservation
	}
	return f.last, nil
}

func (f *ForegroundFeed) IsAvailable() bool {
	return true
}

func (f *ForegroundFeed) Close() error {
	return nil
}
