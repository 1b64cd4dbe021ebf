package overlay

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Listener receives every state transition. It runs on the proposing
// goroutine and must not call Propose.
type Listener func(State)

// Store owns the published state. Reads are lock-free; proposals are
// serialized so listeners observe transitions in order.
type Store struct {
	current atomic.Pointer[State]

	mu        sync.Mutex
	listeners map[uuid.UUID]Listener
	order     []uuid.UUID
}

func NewStore() *Store {
	s := &Store{listeners: make(map[uuid.UUID]Listener)}
	zero := Zero()
	s.current.Store(&zero)
	return s
}

// Get returns the current state by value
func (s *Store) Get() State {
	return *s.current.Load()
}

// Propose normalizes next and publishes it unless it equals the current
// state. It reports whether a transition happened.
func (s *Store) Propose(next State) bool {
	next = next.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if *s.current.Load() == next {
		return false
	}
	s.current.Store(&next)
	for _, id := range s.order {
		s.listeners[id](next)
	}
	return true
}

// Subscribe registers fn and returns the id to unsubscribe with.
// Listeners are called in subscription order.
func (s *Store) Subscribe(fn Listener) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[id] = fn
	s.order = append(s.order, id)
	return id
}

func (s *Store) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[id]; !ok {
		return
	}
	delete(s.listeners, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}
