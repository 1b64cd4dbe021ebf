package replay

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/internal/resolver"
	"github.com/mediaveil/mediaveil/internal/tracker"
	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/integrations/push"
	"github.com/mediaveil/mediaveil/pkg/media"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// Transition is a published state change and the step that caused it
type Transition struct {
	Step  int           `json:"step"`
	At    time.Time     `json:"at"`
	State overlay.State `json:"state"`
}

func (t Transition) String() string {
	return fmt.Sprintf("step %d @ %s: %s", t.Step, t.At.Format(time.RFC3339Nano), t.State)
}

// Failure is an expectation that did not hold
type Failure struct {
	Step int           `json:"step"`
	Want overlay.State `json:"want"`
	Got  overlay.State `json:"got"`
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d: want %s, got %s", f.Step, f.Want, f.Got)
}

type Result struct {
	Name        string        `json:"name"`
	Transitions []Transition  `json:"transitions"`
	Failures    []Failure     `json:"failures"`
	Final       overlay.State `json:"final"`
}

func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Run replays sc through a fresh tracker. Every step is published
// immediately; the debounce window does not apply on the simulated clock.
func Run(cfg *config.Config, registry *resolver.Registry, sc *Scenario, logger *slog.Logger) *Result {
	logger = logging.OrDiscard(logger)

	local := *cfg
	local.Tracker.DebounceWindow = time.Hour

	clk := &clock{now: sc.Start}
	playback := push.NewPlaybackStore()
	feed := push.NewForegroundFeed(cfg.Tracker.ForegroundValidity)
	feed.SetClock(clk.Now)

	svc := tracker.NewService(&local, overlay.NewStore(), registry,
		tracker.Sources{Playback: playback, Foreground: feed}, logger)
	svc.SetClock(clk.Now)

	res := &Result{Name: sc.Name}
	step := 0
	svc.Subscribe(func(s overlay.State) {
		res.Transitions = append(res.Transitions, Transition{Step: step, At: clk.Now(), State: s})
	})

	for i, st := range sc.Steps {
		step = i + 1
		clk.advance(st.Advance)

		switch {
		case st.Foreground != nil:
			feed.Report(st.Foreground.AppID, st.Foreground.Validity)
			svc.OnForegroundPoll()

		case st.Playback != nil:
			applyPlayback(playback, st.Playback, clk.Now())
			svc.OnPlaybackChanged(st.Playback.AppID)

		case st.UI != nil:
			screen := sc.Screen
			if st.UI.Screen != nil {
				screen = *st.UI.Screen
			}
			svc.OnUiChanged(st.UI.AppID, snapshot.FromTree(screen, st.UI.Tree), st.UI.Windows)

		case st.Poll:
			svc.OnForegroundPoll()
		}
		svc.Flush()

		if st.Expect != nil {
			want := st.Expect.State()
			if got := svc.CurrentState(); got != want {
				res.Failures = append(res.Failures, Failure{Step: step, Want: want, Got: got})
				logger.Debug("expectation failed", "step", step, "want", want.String(), "got", got.String())
			}
		}
	}

	res.Final = svc.CurrentState()
	return res
}

func applyPlayback(store *push.PlaybackStore, p *PlaybackStep, now time.Time) {
	state := media.ParseTransportState(p.State)
	if state == media.StateNone {
		store.Remove(p.AppID)
		return
	}
	sig := media.PlaybackSignal{
		AppID:              p.AppID,
		State:              state,
		Speed:              1,
		LastPositionUpdate: now.Add(-p.PositionAge),
	}
	if p.Speed != nil {
		sig.Speed = *p.Speed
	}
	store.Update(sig)
}

// State is the normalized state the expectation describes
func (e *Expectation) State() overlay.State {
	s := overlay.State{
		App:         overlay.AppKind(e.App),
		Playing:     e.Playing,
		Mode:        overlay.PlayMode(e.Mode),
		MaskEnabled: e.MaskEnabled,
	}
	if e.Hole != nil {
		s.Hole = geometry.Some(*e.Hole)
	}
	return s.Normalize()
}
