package catalog

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrStaleVersion is returned when a swap would not advance the catalog version
var ErrStaleVersion = errors.New("catalog version is not newer than the current one")

// ErrNotLoaded is returned by readers before the first dataset has been swapped in
var ErrNotLoaded = errors.New("catalog not loaded")

// Store holds the current catalog snapshot. Readers bind one snapshot per planning
// cycle; reloads replace it whole.
type Store struct {
	current atomic.Pointer[Index]
}

// NewStore creates an empty store, optionally seeded with an initial index
func NewStore(initial *Index) *Store {
	s := &Store{}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Current returns the active snapshot or ErrNotLoaded
func (s *Store) Current() (*Index, error) {
	ix := s.current.Load()
	if ix == nil {
		return nil, ErrNotLoaded
	}
	return ix, nil
}

// Swap installs ix if its version is strictly greater than the active one
func (s *Store) Swap(ix *Index) error {
	if ix == nil {
		return fmt.Errorf("catalog: nil index")
	}
	for {
		old := s.current.Load()
		if old != nil && ix.Version() <= old.Version() {
			return fmt.Errorf("%w: have %d, got %d", ErrStaleVersion, old.Version(), ix.Version())
		}
		if s.current.CompareAndSwap(old, ix) {
			return nil
		}
	}
}
