package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaveil/mediaveil/internal/config"
	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/pkg/geometry"
	"github.com/mediaveil/mediaveil/pkg/snapshot"
)

var phone = snapshot.Screen{Width: 1080, Height: 1920, Density: 1}

type tree struct {
	b    *snapshot.Builder
	root snapshot.NodeID
}

func newTree() *tree {
	b := snapshot.NewBuilder(phone)
	root := b.Add(snapshot.NoParent, snapshot.Element{Type: "FrameLayout", Bounds: phone.Bounds(), Visible: true})
	return &tree{b: b, root: root}
}

// add attaches a visible element
func (t *tree) add(parent snapshot.NodeID, e snapshot.Element) snapshot.NodeID {
	e.Visible = true
	return t.b.Add(parent, e)
}

// surface adds a visible video surface covering fraction of the screen height
func (t *tree) surface(fraction float64) *tree {
	t.add(t.root, snapshot.Element{Type: "SurfaceView", Bounds: geometry.NewRect(0, 0, phone.Width, phone.Height*fraction)})
	return t
}

func resolve(t *testing.T, appID string, in Input) Candidate {
	t.Helper()
	r, ok := DefaultRegistry().ForApp(appID)
	require.True(t, ok)
	in.AppID = appID
	return r.Resolve(in)
}

func assertRectNear(t *testing.T, want geometry.Rect, got geometry.OptionalRect) {
	t.Helper()
	r, ok := got.Get()
	require.True(t, ok, "hole expected")
	assert.InDelta(t, want.Left, r.Left, 1e-6)
	assert.InDelta(t, want.Top, r.Top, 1e-6)
	assert.InDelta(t, want.Right, r.Right, 1e-6)
	assert.InDelta(t, want.Bottom, r.Bottom, 1e-6)
}

func TestYouTubeNearFullscreenVideo(t *testing.T) {
	s := newTree().surface(0.6).b.Build()

	c := resolve(t, PackageYouTube, Input{Snapshot: s})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
	assert.True(t, c.Mask)
	assert.False(t, c.Hole.IsPresent())
	assert.Equal(t, ReasonSurface, c.Reason)
	assert.InDelta(t, 0.6, c.SurfaceFraction, 1e-9)
}

func TestYouTubeSmallVideoGetsTopBand(t *testing.T) {
	s := newTree().surface(0.35).b.Build()

	c := resolve(t, PackageYouTube, Input{Snapshot: s})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
	assert.True(t, c.Mask)
	assertRectNear(t, geometry.Rect{Right: 1080, Bottom: 288}, c.Hole)
}

func TestYouTubeBelowThresholdIsAudio(t *testing.T) {
	s := newTree().surface(0.1).b.Build()

	c := resolve(t, PackageYouTube, Input{Snapshot: s})
	assert.Equal(t, overlay.ModeAudio, c.Mode)
	assert.False(t, c.Mask)
	assert.False(t, c.Hole.IsPresent())
}

func TestYouTubeShortForm(t *testing.T) {
	tr := newTree().surface(1)
	tr.add(tr.root, snapshot.Element{ID: "com.google.android.youtube:id/reel_recycler"})

	c := resolve(t, PackageYouTube, Input{Snapshot: tr.b.Build()})
	assert.Equal(t, overlay.ModeShortForm, c.Mode)
	assert.True(t, c.Mask)
	assert.False(t, c.Hole.IsPresent())
}

func TestPictureInPictureBeatsShortForm(t *testing.T) {
	tr := newTree()
	tr.add(tr.root, snapshot.Element{ID: "com.google.android.youtube:id/reel_recycler"})
	windows := []snapshot.Window{
		{Owner: PackageYouTube, Bounds: phone.Bounds()},
		{Owner: PackageYouTube, Bounds: geometry.NewRect(600, 1500, 400, 225)},
	}

	c := resolve(t, PackageYouTube, Input{Snapshot: tr.b.Build(), Windows: windows})
	assert.Equal(t, overlay.ModePictureInPicture, c.Mode)
	assert.True(t, c.Mask)
	assert.False(t, c.Hole.IsPresent())
}

func TestPictureInPictureIgnoresOtherApps(t *testing.T) {
	s := newTree().surface(0.6).b.Build()
	windows := []snapshot.Window{{Owner: PackageSpotify, Bounds: geometry.NewRect(0, 0, 100, 100)}}

	c := resolve(t, PackageYouTube, Input{Snapshot: s, Windows: windows})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
}

func TestMaskActiveCountsHiddenSurface(t *testing.T) {
	tr := newTree()
	tr.b.Add(tr.root, snapshot.Element{Type: "SurfaceView", Bounds: geometry.NewRect(0, 0, 1080, 1152)})
	s := tr.b.Build()

	assert.Equal(t, overlay.ModeAudio, resolve(t, PackageYouTube, Input{Snapshot: s}).Mode)
	assert.Equal(t, overlay.ModeVideo, resolve(t, PackageYouTube, Input{Snapshot: s, MaskActive: true}).Mode)
}

func musicTabs(tr *tree) {
	bar := tr.add(tr.root, snapshot.Element{Type: "TabLayout", Bounds: geometry.NewRect(300, 1200, 480, 80)})
	tr.add(bar, snapshot.Element{Description: "Song, tap to play", Bounds: geometry.NewRect(300, 1200, 240, 80)})
	tr.add(bar, snapshot.Element{Description: "Video, currently playing", Bounds: geometry.NewRect(540, 1200, 240, 80)})
}

func TestYTMusicSelectedVideoTabGetsTopBand(t *testing.T) {
	tr := newTree().surface(0.3)
	musicTabs(tr)

	c := resolve(t, PackageYTMusic, Input{Snapshot: tr.b.Build()})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
	assert.True(t, c.Mask)
	assert.Equal(t, ReasonSelector, c.Reason)
	assertRectNear(t, geometry.Rect{Right: 1080, Bottom: 288}, c.Hole)
}

func TestYTMusicHolePrefersToggle(t *testing.T) {
	tr := newTree().surface(0.3)
	musicTabs(tr)
	button := tr.add(tr.root, snapshot.Element{Type: "Button", Bounds: geometry.NewRect(40, 200, 200, 60)})
	tr.add(button, snapshot.Element{Description: "Switch to audio", Bounds: geometry.NewRect(100, 210, 20, 20)})

	c := resolve(t, PackageYTMusic, Input{Snapshot: tr.b.Build()})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
	assertRectNear(t, geometry.NewRect(40, 200, 200, 60), c.Hole)
}

func TestYTMusicSelectedSongTab(t *testing.T) {
	tr := newTree().surface(0.9)
	bar := tr.add(tr.root, snapshot.Element{Type: "TabLayout"})
	tr.add(bar, snapshot.Element{Text: "Song", Selected: true})
	tr.add(bar, snapshot.Element{Text: "Video"})

	c := resolve(t, PackageYTMusic, Input{Snapshot: tr.b.Build()})
	assert.Equal(t, overlay.ModeAudio, c.Mode)
	assert.False(t, c.Mask)
	assert.False(t, c.Hole.IsPresent())
}

func TestYTMusicCollapsedPlayerIsNeverMasked(t *testing.T) {
	tr := newTree().surface(0.5)
	tr.add(tr.root, snapshot.Element{ID: "com.google.android.apps.youtube.music:id/mini_player", Bounds: geometry.NewRect(0, 1720, 1080, 140)})

	c := resolve(t, PackageYTMusic, Input{Snapshot: tr.b.Build()})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
	assert.False(t, c.Mask)
	assert.False(t, c.Hole.IsPresent())
	assert.Equal(t, ReasonCollapsed, c.Reason)
}

func TestSpotifyToggleState(t *testing.T) {
	tr := newTree()
	tr.add(tr.root, snapshot.Element{Description: "Hide video", Bounds: geometry.NewRect(900, 150, 120, 60)})

	c := resolve(t, PackageSpotify, Input{Snapshot: tr.b.Build()})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
	assert.True(t, c.Mask)
	assert.Equal(t, ReasonSelector, c.Reason)
	assertRectNear(t, geometry.NewRect(888, 138, 144, 84), c.Hole)
}

func TestSpotifyShowVideoMeansAudio(t *testing.T) {
	tr := newTree().surface(0.6)
	tr.add(tr.root, snapshot.Element{Text: "Show video", Bounds: geometry.NewRect(900, 150, 120, 60)})

	c := resolve(t, PackageSpotify, Input{Snapshot: tr.b.Build()})
	assert.Equal(t, overlay.ModeAudio, c.Mode)
	assert.False(t, c.Mask)
}

func TestNewPipeSurfaceThreshold(t *testing.T) {
	c := resolve(t, PackageNewPipe, Input{Snapshot: newTree().surface(0.2).b.Build()})
	assert.Equal(t, overlay.ModeAudio, c.Mode)

	c = resolve(t, PackageNewPipe, Input{Snapshot: newTree().surface(0.3).b.Build()})
	assert.Equal(t, overlay.ModeVideo, c.Mode)
	assert.True(t, c.Hole.IsPresent())
}

func TestEmptySnapshotResolvesToNone(t *testing.T) {
	for _, appID := range []string{PackageYouTube, PackageYTMusic, PackageSpotify, PackageNewPipe} {
		t.Run(appID, func(t *testing.T) {
			for _, s := range []*snapshot.Snapshot{nil, snapshot.Empty(phone), snapshot.FromTree(snapshot.Screen{}, &snapshot.Tree{})} {
				c := resolve(t, appID, Input{Snapshot: s})
				assert.Equal(t, NoneCandidate(), c)
			}
		})
	}
}

func TestTopBandFollowsContentArea(t *testing.T) {
	b := snapshot.NewBuilder(phone)
	b.Add(snapshot.NoParent, snapshot.Element{Bounds: geometry.Rect{Left: 0, Top: 120, Right: 1080, Bottom: 2200}})
	band := TopBand(b.Build(), 0.25)

	assert.Equal(t, 0.0, band.Left)
	assert.Equal(t, 120.0, band.Top)
	assert.Equal(t, 1080.0, band.Right)
	assert.InDelta(t, 120+1800*0.25, band.Bottom, 1e-9)

	band = TopBand(snapshot.Empty(phone), 0.5)
	assert.Equal(t, geometry.Rect{Right: 1080, Bottom: 960}, band)
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()

	assert.True(t, reg.Supported(PackageNewPipe))
	assert.False(t, reg.Supported("com.example.other"))
	_, ok := reg.ForApp("com.example.other")
	assert.False(t, ok)

	assert.Equal(t, overlay.AppYTMusic, reg.KindOf(PackageYTMusic))
	assert.Equal(t, overlay.AppNone, reg.KindOf(""))

	id, ok := reg.AppIDOf(overlay.AppSpotify)
	require.True(t, ok)
	assert.Equal(t, PackageSpotify, id)

	_, err := NewRegistry(Profile{Kind: overlay.AppNone, AppID: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedApp)
}

func TestConfiguredProfiles(t *testing.T) {
	cfg := config.Default()
	for _, p := range ConfiguredProfiles(cfg.Classifier) {
		assert.Equal(t, DefaultHoleFullscreenFraction, p.HoleFullscreenFraction)
		assert.Equal(t, DefaultTopBandFraction, p.TopBandFraction)
	}

	cfg.Classifier.Thresholds.NewPipe = 0.7
	reg, err := FromConfig(cfg)
	require.NoError(t, err)
	res, ok := reg.ForApp(PackageNewPipe)
	require.True(t, ok)

	c := res.Resolve(Input{Snapshot: newTree().surface(0.6).b.Build(), AppID: PackageNewPipe})
	assert.Equal(t, overlay.ModeAudio, c.Mode)
}
