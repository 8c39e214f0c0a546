package main

import (
	"sync"

	"warehouse.lopezb.com/internal/warehouse"
)

// Store guards a warehouse.Store with a single mutex. The warehouse core is
// not safe for concurrent use, and every operation may touch more than one
// bucket (BetterAddProduct probes them all), so one lock covers the whole
// store rather than one per bucket.
type Store struct {
	mu sync.Mutex
	wh *warehouse.Store
}

// NewStore creates an empty guarded store.
func NewStore(cfg warehouse.Config) *Store {
	return &Store{wh: warehouse.New(cfg)}
}

// Mutate runs fn with exclusive access to the store. Anything fn needs to
// report must be copied out before it returns.
func (s *Store) Mutate(fn func(wh *warehouse.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.wh)
}

// View runs fn with exclusive access for reads. Reads take the same lock as
// writes: the core has no read-only fast path worth a RWMutex.
func (s *Store) View(fn func(wh *warehouse.Store) error) error {
	return s.Mutate(fn)
}

// Journal returns the removal journal. It is safe for concurrent use without
// the store lock.
func (s *Store) Journal() *warehouse.Journal {
	return s.wh.Journal()
}
