package transcript

import "github.com/google/uuid"

// Store is the ordered conversation memory of one session. Insertion order is
// conversation order; the only removals are PopItem and Clear.
//
// A Store is owned by a single session loop and is not safe for concurrent use.
type Store[T any] struct {
	sessionID string
	items     []T
}

// NewStore creates an empty store with a fresh session identifier.
func NewStore[T any]() *Store[T] {
	return NewStoreWithID[T](uuid.New().String())
}

// NewStoreWithID creates an empty store bound to sessionID.
func NewStoreWithID[T any](sessionID string) *Store[T] {
	return &Store[T]{
		sessionID: sessionID,
		items:     make([]T, 0),
	}
}

// SessionID returns the identifier the store is scoped to.
func (s *Store[T]) SessionID() string {
	return s.sessionID
}

// Len returns the number of stored items.
func (s *Store[T]) Len() int {
	return len(s.items)
}

// GetItems returns the stored items in chronological order. When limit is
// positive and smaller than the stored count only the most recent limit items
// are returned. The returned slice is a copy.
func (s *Store[T]) GetItems(limit int) []T {
	start := 0
	if limit > 0 && limit < len(s.items) {
		start = len(s.items) - limit
	}
	result := make([]T, len(s.items)-start)
	copy(result, s.items[start:])
	return result
}

// AddItems appends items preserving argument order.
func (s *Store[T]) AddItems(items ...T) {
	s.items = append(s.items, items...)
}

// PopItem removes and returns the most recently added item. The boolean is
// false when the store is empty.
func (s *Store[T]) PopItem() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	last := len(s.items) - 1
	item := s.items[last]
	s.items[last] = zero
	s.items = s.items[:last]
	return item, true
}

// Clear empties the store. The session identifier is kept.
func (s *Store[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}
