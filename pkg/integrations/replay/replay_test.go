package replay

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/internal/resolver"
	"github.com/mediaveil/mediaveil/pkg/geometry"
)

func TestRunScenarioFile(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "youtube_small_video.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, sc.Screen.Density)
	assert.Equal(t, 2*time.Minute, sc.Steps[3].Advance)

	res := Run(config.Default(), resolver.DefaultRegistry(), sc, nil)
	require.True(t, res.Passed(), "failures: %v", res.Failures)

	require.Len(t, res.Transitions, 3)
	assert.Equal(t, []int{2, 3, 5}, []int{res.Transitions[0].Step, res.Transitions[1].Step, res.Transitions[2].Step})
	assert.Equal(t, overlay.State{
		App:         overlay.AppYouTube,
		Playing:     true,
		Mode:        overlay.ModeVideo,
		MaskEnabled: true,
		Hole:        geometry.Some(geometry.NewRect(0, 0, 1080, 288)),
	}, res.Transitions[1].State)
	assert.Equal(t, sc.Start.Add(2*time.Minute), res.Transitions[2].At)
	assert.Equal(t, overlay.Zero(), res.Final)
}

func TestRunReportsFailedExpectation(t *testing.T) {
	sc, err := Parse([]byte(`
screen: {width: 1080, height: 1920}
steps:
  - foreground: {app_id: com.spotify.music}
  - playback: {app_id: com.spotify.music, state: paused}
    expect: {app: spotify, playing: true, mode: audio}
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultStart, sc.Start)

	res := Run(config.Default(), resolver.DefaultRegistry(), sc, nil)
	assert.False(t, res.Passed())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 2, res.Failures[0].Step)
	assert.Equal(t, overlay.Zero(), res.Failures[0].Got)
	assert.Contains(t, res.Failures[0].String(), "step 2")
	assert.Empty(t, res.Transitions)
}

func TestStalledPlaybackIsNotPlaying(t *testing.T) {
	sc, err := Parse([]byte(`{
  "screen": {"width": 1080, "height": 1920},
  "steps": [
    {"foreground": {"app_id": "org.schabi.newpipe"}},
    {"playback": {"app_id": "org.schabi.newpipe", "state": "playing", "speed": 0, "position_age": "10s"},
     "expect": {"app": "newpipe", "playing": false, "mode": "none"}},
    {"playback": {"app_id": "org.schabi.newpipe", "state": "none"},
     "expect": {"app": "none", "mode": "none"}}
  ]
}`))
	require.NoError(t, err)

	res := Run(config.Default(), resolver.DefaultRegistry(), sc, nil)
	assert.True(t, res.Passed(), "failures: %v", res.Failures)
	assert.Len(t, res.Transitions, 2)
}

func TestExpectationNormalizes(t *testing.T) {
	hole := geometry.NewRect(0, 0, 10, 10)
	e := Expectation{App: "youtube", Mode: "audio", Hole: &hole}
	assert.Equal(t, overlay.State{App: overlay.AppYouTube, Mode: overlay.ModeAudio}, e.State())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no screen", "steps:\n  - poll: true\n", "screen"},
		{"no steps", "screen: {width: 10, height: 10}\n", "no steps"},
		{"two actions", "screen: {width: 10, height: 10}\nsteps:\n  - poll: true\n    foreground: {app_id: a}\n", "2 actions"},
		{"empty step", "screen: {width: 10, height: 10}\nsteps:\n  - {}\n", "empty"},
		{"missing app", "screen: {width: 10, height: 10}\nsteps:\n  - ui: {}\n", "ui needs app_id"},
		{"backwards", "screen: {width: 10, height: 10}\nsteps:\n  - advance: -1s\n", "backwards"},
		{"bad yaml", "screen: [", "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
