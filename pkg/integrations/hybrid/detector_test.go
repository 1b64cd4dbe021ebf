package hybrid

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaveil/mediaveil/pkg/window"
)

type stubResolver struct {
	sig       window.ForegroundSignal
	err       error
	available bool
	calls     int
	closed    bool
}

func (s *stubResolver) ResolveForeground() (window.ForegroundSignal, error) {
	s.calls++
	return s.sig, s.err
}

func (s *stubResolver) IsAvailable() bool { return s.available }

func (s *stubResolver) Close() error {
	s.closed = true
	return nil
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signal(appID string) window.ForegroundSignal {
	return window.ForegroundSignal{AppID: appID, ObservedAt: t0, Validity: time.Minute, Source: "x11"}
}

func TestFirstAvailableResolverWins(t *testing.T) {
	skipped := &stubResolver{sig: signal("a"), available: false}
	first := &stubResolver{sig: signal("b"), available: true}
	second := &stubResolver{sig: signal("c"), available: true}

	r := NewResolver(nil, skipped, first, second)
	sig, err := r.ResolveForeground()
	require.NoError(t, err)
	assert.Equal(t, "b", sig.AppID)
	assert.Zero(t, skipped.calls)
	assert.Zero(t, second.calls)
}

func TestFallsThroughOnError(t *testing.T) {
	failing := &stubResolver{err: errors.New("boom"), available: true}
	ok := &stubResolver{sig: signal("com.spotify.music"), available: true}

	sig, err := NewResolver(nil, failing, ok).ResolveForeground()
	require.NoError(t, err)
	assert.Equal(t, "com.spotify.music", sig.AppID)
}

func TestCacheHonouredWithinValidity(t *testing.T) {
	backend := &stubResolver{sig: signal("com.spotify.music"), available: true}
	r := NewResolver(nil, backend)
	now := t0
	r.SetClock(func() time.Time { return now })

	_, err := r.ResolveForeground()
	require.NoError(t, err)

	backend.err = errors.New("display gone")
	now = t0.Add(30 * time.Second)
	sig, err := r.ResolveForeground()
	require.NoError(t, err)
	assert.Equal(t, "com.spotify.music", sig.AppID)
	assert.Equal(t, CacheSource, sig.Source)
	assert.Equal(t, t0, sig.ObservedAt)
	assert.Contains(t, r.Status(), "Last successful method: cache")

	now = t0.Add(time.Minute + time.Second)
	_, err = r.ResolveForeground()
	assert.ErrorIs(t, err, ErrAllFailed)
}

func TestNoResolvers(t *testing.T) {
	r := NewResolver(nil)
	assert.False(t, r.IsAvailable())
	_, err := r.ResolveForeground()
	assert.ErrorIs(t, err, ErrAllFailed)
	assert.Contains(t, r.Status(), "none yet")
}

func TestCloseClosesAll(t *testing.T) {
	a := &stubResolver{available: true}
	b := &stubResolver{}
	r := NewResolver(nil, a, b)
	assert.True(t, r.IsAvailable())
	require.NoError(t, r.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
