package overlay

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiet period shared by every signal source
const DefaultDebounceWindow = 120 * time.Millisecond

// Debouncer coalesces bursts of values. The first Submit arms a timer; later
// submits while it is pending only replace the value. When the timer fires
// the last submitted value goes to the sink.
type Debouncer[T any] struct {
	window time.Duration
	sink   func(T)

	mu      sync.Mutex
	latest  T
	pending *time.Timer
	gen     uint64
}

func NewDebouncer[T any](window time.Duration, sink func(T)) *Debouncer[T] {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer[T]{window: window, sink: sink}
}

func (d *Debouncer[T]) Submit(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = v
	if d.pending != nil {
		return
	}
	d.gen++
	gen := d.gen
	d.pending = time.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a timer that was stopped or replaced after firing
	if d.pending == nil || d.gen != gen {
		d.mu.Unlock()
		return
	}
	v := d.latest
	d.pending = nil
	d.mu.Unlock()

	d.sink(v)
}

// Pending reports whether a value is waiting for the timer
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush delivers a pending value immediately instead of waiting for the timer
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return
	}
	d.pending.Stop()
	d.pending = nil
	v := d.latest
	d.mu.Unlock()

	d.sink(v)
}

// Stop cancels a pending timer; the waiting value is dropped
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
