package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaveil/mediaveil/pkg/integrations/push"
)

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{"Wayland session", "wayland", "wayland-0", "", "wayland"},
		{"X11 session", "x11", "", ":0", "x11"},
		{"X11 session type only", "x11", "", "", "x11"},
		{"Unknown session", "", "", "", "unknown"},
		{"Wayland display set", "", "wayland-1", "", "wayland"},
		{"XWayland", "wayland", "wayland-0", ":1", "x11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			assert.Equal(t, tt.expected, DetectDisplayServer())
		})
	}
}

func TestNewPush(t *testing.T) {
	b, err := New(Options{Kind: KindPush, Validity: time.Minute})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, KindPush, b.Name)
	assert.Nil(t, b.Windows)
	require.NotNil(t, b.Feed)
	assert.Same(t, b.Feed, b.Foreground.(*push.ForegroundFeed))

	b.Feed.Report("com.spotify.music", 0)
	sig, err := b.Foreground.ResolveForeground()
	require.NoError(t, err)
	assert.Equal(t, "com.spotify.music", sig.AppID)
	assert.Equal(t, time.Minute, sig.Validity)
}

func TestNewAutoWithoutDisplay(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	b, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, KindPush, b.Name)
	assert.NotNil(t, b.Feed)
}

func TestNewX11WithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")

	_, err := New(Options{Kind: KindX11})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewWaylandWithoutCompositor(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	t.Setenv("SWAYSOCK", "")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	t.Setenv("XDG_CURRENT_DESKTOP", "weston")

	_, err := New(Options{Kind: KindWayland})
	assert.ErrorIs(t, err, ErrUnavailable)

	b, err := New(Options{Kind: KindAuto})
	require.NoError(t, err)
	assert.Equal(t, KindPush, b.Name)
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Options{Kind: "mir"})
	assert.Error(t, err)
}
