package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaveil/mediaveil/internal/overlay"
	"github.com/mediaveil/mediaveil/pkg/geometry"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func TestGetCurrentEmpty(t *testing.T) {
	repo := newRepo(t)
	row, err := repo.GetCurrent()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestSaveCurrentOverwrites(t *testing.T) {
	repo := newRepo(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := overlay.State{App: overlay.AppYouTube, Playing: true, Mode: overlay.ModeVideo, MaskEnabled: true,
		Hole: geometry.Some(geometry.NewRect(0, 0, 1080, 288))}
	require.NoError(t, repo.SaveCurrent(first, at))

	row, err := repo.GetCurrent()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, first, row.State())
	assert.True(t, row.PublishedAt.Equal(at))

	second := overlay.State{App: overlay.AppSpotify, Mode: overlay.ModeAudio}
	require.NoError(t, repo.SaveCurrent(second, at.Add(time.Second)))

	row, err = repo.GetCurrent()
	require.NoError(t, err)
	assert.Equal(t, second, row.State())
	assert.False(t, row.HolePresent)

	var count int64
	require.NoError(t, repo.db.Table("overlay_states").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestClear(t *testing.T) {
	repo := newRepo(t)
	require.NoError(t, repo.SaveCurrent(overlay.Zero(), time.Now()))
	require.NoError(t, repo.Clear())

	row, err := repo.GetCurrent()
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestMirrorWritesLatest(t *testing.T) {
	repo := newRepo(t)
	m := NewMirror(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	m.Observe(overlay.State{App: overlay.AppNewPipe, Mode: overlay.ModeAudio})
	want := overlay.State{App: overlay.AppNewPipe, Playing: true, Mode: overlay.ModeVideo, MaskEnabled: true}
	m.Observe(want)

	require.Eventually(t, func() bool {
		row, err := repo.GetCurrent()
		return err == nil && row != nil && row.State() == want
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
