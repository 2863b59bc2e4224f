package cache

import "sync/atomic"

// Snapshot is a lock-free, read-optimized container holding one immutable
// value. Store replaces the whole value in a single swap, so a reader either
// sees the previous value or the new one, never a partial replacement.
type Snapshot[T any] struct{ v atomic.Value }

// Load returns the current value and whether one has been stored yet.
func (s *Snapshot[T]) Load() (T, bool) {
	v := s.v.Load()
	if v == nil {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Store atomically swaps in the new value.
func (s *Snapshot[T]) Store(v T) {
	s.v.Store(v)
}
