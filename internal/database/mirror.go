package database

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/internal/overlay"
)

// Mirror copies published states into the repository off the publishing
// goroutine. Only the latest state is written; intermediate ones are skipped
// when the database is slower than the publisher.
type Mirror struct {
	repo   *Repository
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	latest overlay.State
	dirty  bool
	wake   chan struct{}
}

func NewMirror(repo *Repository, logger *slog.Logger) *Mirror {
	return &Mirror{
		repo:   repo,
		logger: logging.OrDiscard(logger),
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
}

// Observe is an overlay.Listener. It never blocks.
func (m *Mirror) Observe(s overlay.State) {
	m.mu.Lock()
	m.latest = s
	m.dirty = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run writes observed states until ctx is done, then writes the last one
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.flush()
			return
		case <-m.wake:
			m.flush()
		}
	}
}

func (m *Mirror) flush() {
	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return
	}
	s := m.latest
	m.dirty = false
	m.mu.Unlock()

	if err := m.repo.SaveCurrent(s, m.now()); err != nil {
		m.logger.Warn("failed to mirror state", "error", err)
	}
}
