// Package hybrid chains foreground resolvers and falls back to the last
// good observation while it is still valid.
package hybrid

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mediaveil/mediaveil/internal/logging"
	"github.com/mediaveil/mediaveil/pkg/window"
)

// CacheSource tags signals answered from the cache
const CacheSource = "cache"

// ErrAllFailed is returned when no resolver answered and the cache expired
var ErrAllFailed = errors.New("all foreground resolvers failed")

type Resolver struct {
	resolvers []window.ForegroundResolver
	logger    *slog.Logger
	now       func() time.Time

	mu                   sync.Mutex
	cached               window.ForegroundSignal
	lastSuccessfulMethod string
}

var _ window.ForegroundResolver = (*Resolver)(nil)

// NewResolver tries resolvers in order on every lookup
func NewResolver(logger *slog.Logger, resolvers ...window.ForegroundResolver) *Resolver {
	return &Resolver{
		resolvers: resolvers,
		logger:    logging.OrDiscard(logger),
		now:       time.Now,
	}
}

// SetClock replaces the time source used to expire the cache
func (r *Resolver) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// ResolveForeground returns the first fresh answer. When every resolver
// fails, the cached signal is returned with Source "cache" until its own
// validity runs out.
func (r *Resolver) ResolveForeground() (window.ForegroundSignal, error) {
	var errs []error
	for _, res := range r.resolvers {
		if !res.IsAvailable() {
			continue
		}
		sig, err := res.ResolveForeground()
		if err != nil {
			errs = append(errs, err)
			continue
		}

		r.mu.Lock()
		r.cached = sig
		r.lastSuccessfulMethod = sig.Source
		r.mu.Unlock()
		return sig, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached.ValidAt(r.now()) {
		sig := r.cached
		sig.Source = CacheSource
		r.lastSuccessfulMethod = CacheSource
		return sig, nil
	}

	if len(errs) > 0 {
		r.logger.Debug("foreground resolvers failed", "errors", fmt.Sprint(errs))
	}
	return window.ForegroundSignal{}, ErrAllFailed
}

func (r *Resolver) IsAvailable() bool {
	for _, res := range r.resolvers {
		if res.IsAvailable() {
			return true
		}
	}
	return false
}

func (r *Resolver) Close() error {
	for _, res := range r.resolvers {
		if err := res.Close(); err != nil {
			r.logger.Warn("error closing foreground resolver", "error", err)
		}
	}
	return nil
}

// Status describes the chain for the status command
func (r *Resolver) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := "Foreground resolvers:\n"
	for i, res := range r.resolvers {
		status += fmt.Sprintf("  %d. %T (available: %v)\n", i+1, res, res.IsAvailable())
	}
	method := r.lastSuccessfulMethod
	if method == "" {
		method = "none yet"
	}
	status += fmt.Sprintf("  Last successful method: %s\n", method)
	return status
}
