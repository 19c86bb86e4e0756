package repository

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/subkit/subkit/internal/errors"
)

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(ctx context.Context, item T) bool

// SortFunc is a generic sort function type
type SortFunc[T any] func(i, j T) bool

// InMemoryStore is a generic in-memory store keyed by ID. It backs every
// repository in this process; the persistence schema is the host
// application's concern, not this module's.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewInMemoryStore creates a new InMemoryStore
func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items: make(map[string]T),
	}
}

// Create adds a new item to the store
func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewError("item already exists").
			WithHint("An item with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	s.items[id] = item
	return nil
}

// Get retrieves an item by ID
func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		return item, nil
	}

	var zero T
	return zero, ierr.NewError("item not found").
		WithHint("The requested item does not exist").
		Mark(ierr.ErrNotFound)
}

// List retrieves the items accepted by filterFn, ordered by sortFn
func (s *InMemoryStore[T]) List(ctx context.Context, filterFn FilterFunc[T], sortFn SortFunc[T]) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0)
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item) {
			result = append(result, item)
		}
	}

	if sortFn != nil {
		sort.Slice(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}

	return result, nil
}

// Update replaces an existing item
func (s *InMemoryStore[T]) Update(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewError("item not found").
			WithHint("The requested item does not exist").
			Mark(ierr.ErrNotFound)
	}

	s.items[id] = item
	return nil
}

// Delete removes an item from the store
func (s *InMemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewError("item not found").
			WithHint("The requested item does not exist").
			Mark(ierr.ErrNotFound)
	}

	delete(s.items, id)
	return nil
}

// CreateUnique adds an item only if uniqueFn accepts it against every item
// already in the store. The check and the insert run under one lock, so two
// racing inserts that violate the same uniqueness rule resolve to exactly
// one winner.
func (s *InMemoryStore[T]) CreateUnique(ctx context.Context, id string, item T, uniqueFn func(existing T) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewError("item already exists").
			WithHint("An item with this identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	for _, existing := range s.items {
		if !uniqueFn(existing) {
			return ierr.NewError("uniqueness conflict").
				WithHint("A conflicting item already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.items[id] = item
	return nil
}
