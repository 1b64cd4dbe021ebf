// Package tracker merges playback, foreground and UI signals into proposals
// for the overlay store.
package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/internal/resolver"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
	"github.com/mediaveil/mediaveil/pkg/window"
)

// ErrAlreadyRunning is returned by Start while the poll loop runs
var ErrAlreadyRunning = errors.New("tracker is already running")

var errNoForeground = errors.New("no foreground resolver")

// Sources are the collaborators the service reads signals from. Windows is
// optional; when set the poll loop refreshes the window list of the last
// UI snapshot so picture-in-picture is noticed without a UI event.
type Sources struct {
	Playback   window.PlaybackSource
	Foreground window.ForegroundResolver
	Windows    window.WindowLister
}

// proposal is a state stamped with the order it was computed in
type proposal struct {
	seq   uint64
	state overlay.State
}

type uiSignal struct {
	snap    *snapshot.Snapshot
	windows []snapshot.Window
}

type Service struct {
	config   *config.Config
	store    *overlay.Store
	registry *resolver.Registry
	src      Sources
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	foreground window.ForegroundSignal
	classified map[string]resolver.Candidate
	lastUI     map[string]uiSignal
	seq        uint64

	publishMu    sync.Mutex
	lastProposed uint64

	uiDebounce         *overlay.Debouncer[proposal]
	playbackDebounce   *overlay.Debouncer[proposal]
	foregroundDebounce *overlay.Debouncer[proposal]

	stopChan chan struct{}
	running  bool
	runMu    sync.Mutex
}

func NewService(cfg *config.Config, store *overlay.Store, registry *resolver.Registry, src Sources, logger *slog.Logger) *Service {
	s := &Service{
		config:     cfg,
		store:      store,
		registry:   registry,
		src:        src,
		logger:     logging.OrDiscard(logger),
		now:        time.Now,
		classified: make(map[string]resolver.Candidate),
		lastUI:     make(map[string]uiSignal),
		stopChan:   make(chan struct{}),
	}
	debounce := cfg.Tracker.DebounceWindow
	s.uiDebounce = overlay.NewDebouncer(debounce, s.publish)
	s.playbackDebounce = overlay.NewDebouncer(debounce, s.publish)
	s.foregroundDebounce = overlay.NewDebouncer(debounce, s.publish)
	return s
}

// SetClock replaces the time source; meant for tests and replays
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CurrentState returns the published state
func (s *Service) CurrentState() overlay.State {
	return s.store.Get()
}

// Subscribe registers a change hook on the published state
func (s *Service) Subscribe(fn overlay.Listener) uuid.UUID {
	return s.store.Subscribe(fn)
}

func (s *Service) Unsubscribe(id uuid.UUID) {
	s.store.Unsubscribe(id)
}

// OnUiChanged classifies a new snapshot of appID's UI. Snapshots of
// unsupported applications are ignored.
func (s *Service) OnUiChanged(appID string, snap *snapshot.Snapshot, windows []snapshot.Window) {
	res, ok := s.registry.ForApp(appID)
	if !ok {
		s.logger.Debug("ignoring ui change", "app_id", appID)
		return
	}

	current := s.store.Get()
	candidate := res.Resolve(resolver.Input{
		Snapshot:   snap,
		Windows:    windows,
		AppID:      appID,
		MaskActive: current.App == res.Kind() && current.MaskEnabled,
	})
	s.logger.Debug("classified", "app_id", appID, "candidate", candidate.String())

	s.mu.Lock()
	s.classified[appID] = candidate
	s.lastUI[appID] = uiSignal{snap: snap, windows: windows}
	p := s.reconcileLocked()
	s.mu.Unlock()

	s.uiDebounce.Submit(p)
}

// OnPlaybackChanged re-evaluates after appID's media session changed. The
// session itself is read from the playback source.
func (s *Service) OnPlaybackChanged(appID string) {
	s.logger.Debug("playback changed", "app_id", appID)

	s.mu.Lock()
	p := s.reconcileLocked()
	s.mu.Unlock()

	s.playbackDebounce.Submit(p)
}

// OnForegroundPoll asks the foreground resolver for the front application.
// A failed lookup is an absent signal: the previous observation stays until
// its validity runs out.
func (s *Service) OnForegroundPoll() {
	var sig window.ForegroundSignal
	var err error
	if s.src.Foreground != nil {
		sig, err = s.src.Foreground.ResolveForeground()
	} else {
		err = errNoForeground
	}

	s.mu.Lock()
	if err != nil {
		s.logger.Debug("foreground unavailable", "error", err)
	} else if sig.ValidAt(s.now()) {
		s.foreground = sig
		// a known foreground invalidates what other applications showed
		for appID := range s.classified {
			if appID != sig.AppID {
				delete(s.classified, appID)
				delete(s.lastUI, appID)
			}
		}
	}
	p := s.reconcileLocked()
	s.mu.Unlock()

	s.foregroundDebounce.Submit(p)
}

// reconcileLocked computes the state the signals currently imply.
//
// At most one application can be active. With a known foreground it is the
// foreground application; with an unknown one only the already published
// application can stay active, a new one is never activated.
func (s *Service) reconcileLocked() proposal {
	s.seq++
	now := s.now()

	var target string
	if s.foreground.ValidAt(now) {
		target = s.foreground.AppID
	} else if published := s.store.Get(); published.IsActive() {
		target, _ = s.registry.AppIDOf(published.App)
	}

	return proposal{seq: s.seq, state: s.stateForLocked(target, now)}
}

func (s *Service) stateForLocked(appID string, now time.Time) overlay.State {
	if appID == "" || !s.registry.Supported(appID) || s.src.Playback == nil {
		return overlay.Zero()
	}
	pb, ok := s.src.Playback.CurrentPlayback(appID)
	if !ok || !pb.IsPlayingLike() {
		return overlay.Zero()
	}

	state := overlay.State{
		App:     s.registry.KindOf(appID),
		Playing: pb.IsActivelyPlaying(now),
		Mode:    overlay.ModeNone,
	}
	if c, ok := s.classified[appID]; ok {
		state.Mode = c.Mode
		state.MaskEnabled = c.Mask
		state.Hole = c.Hole
	}
	return state.Normalize()
}

// publish is the sink of every debouncer. A proposal computed before the
// last published one is stale and dropped.
func (s *Service) publish(p proposal) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if p.seq <= s.lastProposed {
		s.logger.Debug("dropping stale proposal", "seq", p.seq, "last", s.lastProposed)
		return
	}
	s.lastProposed = p.seq
	if s.store.Propose(p.state) {
		s.logger.Info("state changed", "state", p.state.String())
	}
}

// Flush publishes every pending proposal without waiting for the debounce
// window
func (s *Service) Flush() {
	s.uiDebounce.Flush()
	s.playbackDebounce.Flush()
	s.foregroundDebounce.Flush()
}

// Start runs the foreground poll loop until ctx is done or Stop is called
func (s *Service) Start(ctx context.Context) error {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.runMu.Unlock()

	defer func() {
		s.runMu.Lock()
		s.running = false
		s.runMu.Unlock()
	}()

	s.logger.Info("starting tracker", "poll_interval", s.config.Tracker.PollInterval)

	ticker := time.NewTicker(s.config.Tracker.PollInterval)
	defer ticker.Stop()

	s.pollOnce()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracker stopped by context")
			s.stopDebouncers()
			return ctx.Err()

		case <-stop:
			s.logger.Info("tracker stopped")
			s.stopDebouncers()
			return nil

		case <-ticker.C:
			s.pollOnce()
		}
	}
}

func (s *Service) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		close(s.stopChan)
		s.running = false
	}
}

func (s *Service) IsRunning() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

func (s *Service) pollOnce() {
	s.OnForegroundPoll()
	s.refreshWindows()
}

// refreshWindows re-resolves the front application's last snapshot against
// the current window list
func (s *Service) refreshWindows() {
	if s.src.Windows == nil {
		return
	}
	s.mu.Lock()
	appID := s.foreground.AppID
	if !s.foreground.ValidAt(s.now()) {
		appID = ""
	}
	last, ok := s.lastUI[appID]
	s.mu.Unlock()
	if !ok {
		return
	}

	windows, err := s.src.Windows.ListWindows()
	if err != nil {
		s.logger.Warn("failed to list windows", "error", err)
		return
	}
	s.OnUiChanged(appID, last.snap, windows)
}

func (s *Service) stopDebouncers() {
	s.uiDebounce.Stop()
	s.playbackDebounce.Stop()
	s.foregroundDebounce.Stop()
}
