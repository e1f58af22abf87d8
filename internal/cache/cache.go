// Package cache provides in-memory, id-keyed mirrors of server-side
// collections. Stores are safe for concurrent use; writes are whole-value
// replacements so concurrent sync operations commute instead of merging.
package cache

import "sync"

// Store is an ordered, id-keyed collection mirroring a server-side list.
// Insertion order is display order; the server is authoritative for ordering
// on ReplaceAll.
type Store[T any] struct {
	mu    sync.RWMutex
	items []T
	key   func(T) int
}

// NewStore creates a store using key to extract an item's id.
func NewStore[T any](key func(T) int) *Store[T] {
	return &Store[T]{key: key}
}

// ReplaceAll swaps the entire collection for the given items, preserving
// their order.
func (s *Store[T]) ReplaceAll(items []T) {
	copied := make([]T, len(items))
	copy(copied, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = copied
}

// Upsert replaces the item with the same id in place, or appends it. The
// store never holds two items with the same id.
func (s *Store[T]) Upsert(item T) {
	id := s.key(item)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if s.key(existing) == id {
			s.items[i] = item
			return
		}
	}
	s.items = append(s.items, item)
}

// Remove deletes the item with the given id, reporting whether it was present.
func (s *Store[T]) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.items {
		if s.key(existing) == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the item with the given id.
func (s *Store[T]) Find(id int) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.items {
		if s.key(existing) == id {
			return existing, true
		}
	}
	var zero T
	return zero, false
}

// Items returns a copy of the collection in display order.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]T, len(s.items))
	copy(copied, s.items)
	return copied
}

// Len returns the number of items held.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
