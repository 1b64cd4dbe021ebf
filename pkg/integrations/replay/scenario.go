// Package replay runs scripted signal sequences through the tracker on a
// simulated clock. Scenarios are YAML (or JSON) documents.
package replay

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

// DefaultStart is the simulated clock's origin when a scenario names none
var DefaultStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type Scenario struct {
	Name   string          `yaml:"name"`
	Screen snapshot.Screen `yaml:"screen"`
	Start  time.Time       `yaml:"start"`
	Steps  []Step          `yaml:"steps"`
}

// Step performs at most one action and may check the published state
// afterwards. Advance moves the clock before the action.
type Step struct {
	Advance    time.Duration   `yaml:"advance"`
	Foreground *ForegroundStep `yaml:"foreground"`
	Playback   *PlaybackStep   `yaml:"playback"`
	UI         *UIStep         `yaml:"ui"`
	Poll       bool            `yaml:"poll"`
	Expect     *Expectation    `yaml:"expect"`
}

type ForegroundStep struct {
	AppID    string        `yaml:"app_id"`
	Validity time.Duration `yaml:"validity"`
}

// PlaybackStep sets an application's media session. State "none" releases
// it. PositionAge is how long ago the position last moved.
type PlaybackStep struct {
	AppID       string        `yaml:"app_id"`
	State       string        `yaml:"state"`
	Speed       *float64      `yaml:"speed"`
	PositionAge time.Duration `yaml:"position_age"`
}

type UIStep struct {
	AppID   string            `yaml:"app_id"`
	Screen  *snapshot.Screen  `yaml:"screen"`
	Tree    *snapshot.Tree    `yaml:"tree"`
	Windows []snapshot.Window `yaml:"windows"`
}

// Expectation is compared against the whole published state. A missing
// hole expects no hole.
type Expectation struct {
	App         string         `yaml:"app"`
	Playing     bool           `yaml:"playing"`
	Mode        string         `yaml:"mode"`
	MaskEnabled bool           `yaml:"mask_enabled"`
	Hole        *geometry.Rect `yaml:"hole"`
}

func (s Step) actions() int {
	n := 0
	if s.Foreground != nil {
		n++
	}
	if s.Playback != nil {
		n++
	}
	if s.UI != nil {
		n++
	}
	if s.Poll {
		n++
	}
	return n
}

// Validate checks the scenario's structure
func (sc *Scenario) Validate() error {
	if sc.Screen.Width <= 0 || sc.Screen.Height <= 0 {
		return errors.New("scenario screen width and height must be positive")
	}
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	for i, st := range sc.Steps {
		n := st.actions()
		if n > 1 {
			return errors.Errorf("step %d has %d actions, want at most one", i+1, n)
		}
		if n == 0 && st.Expect == nil && st.Advance == 0 {
			return errors.Errorf("step %d is empty", i+1)
		}
		if st.Advance < 0 {
			return errors.Errorf("step %d advances the clock backwards", i+1)
		}
		switch {
		case st.Foreground != nil && st.Foreground.AppID == "":
			return errors.Errorf("step %d: foreground needs app_id", i+1)
		case st.Playback != nil && st.Playback.AppID == "":
			return errors.Errorf("step %d: playback needs app_id", i+1)
		case st.UI != nil && st.UI.AppID == "":
			return errors.Errorf("step %d: ui needs app_id", i+1)
		}
	}
	return nil
}

// Parse decodes and validates a scenario
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "failed to decode scenario")
	}
	if sc.Screen.Density == 0 {
		sc.Screen.Density = 1
	}
	if sc.Start.IsZero() {
		sc.Start = DefaultStart
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scenario %s", path)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return sc, nil
}
