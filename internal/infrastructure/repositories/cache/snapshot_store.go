package cache

import (
	"sync/atomic"

	"tennis-market-cache/internal/domain/classification"
)

// SnapshotStore keeps the active classification snapshot behind an atomic
// pointer. Readers load the pointer and never wait on a writer; the single
// refresh writer replaces the whole snapshot at once.
type SnapshotStore struct {
	current atomic.Pointer[classification.Snapshot]
	version atomic.Uint64
}

// NewSnapshotStore creates a store holding the empty snapshot.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.current.Store(classification.EmptySnapshot())
	return s
}

// NewSnapshotStoreWith creates a store with an initial snapshot already
// installed.
func NewSnapshotStoreWith(initial *classification.Snapshot) *SnapshotStore {
	s := NewSnapshotStore()
	if initial != nil {
		s.Swap(initial)
	}
	return s
}

// Current returns the active snapshot. It is never nil.
func (s *SnapshotStore) Current() *classification.Snapshot {
	return s.current.Load()
}

// Swap installs next and returns the snapshot it replaced. A nil next installs
// the empty snapshot. Readers holding the previous snapshot keep using it.
func (s *SnapshotStore) Swap(next *classification.Snapshot) *classification.Snapshot {
	if next == nil {
		next = classification.EmptySnapshot()
	}
	prev := s.current.Swap(next)
	s.version.Add(1)
	return prev
}

// Version counts the swaps performed so far.
func (s *SnapshotStore) Version() uint64 {
	return s.version.Load()
}

// Size returns the number of tokens in the active snapshot
func (s *SnapshotStore) Size() int {
	return s.Current().Len()
}
