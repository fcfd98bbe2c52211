// Package memory provides in-memory implementations of the store ports.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/minapi/adapters/clock"
	"github.com/artpar/minapi/domain/resource"
	"github.com/artpar/minapi/ports"
)

// Store operation names reported to the observer.
const (
	OpAdd     = "add"
	OpInsert  = "insert"
	OpReplace = "replace"
	OpDelete  = "delete"
)

// Store is an in-memory implementation of ports.ResourceStore.
// A single RWMutex serializes mutations; Get and List share the read lock.
type Store[V any] struct {
	mu      sync.RWMutex
	name    string
	records map[int]resource.Record[V]
	lastID  int // highest id handed out by Add

	clock    ports.Clock
	observer ports.StoreObserver
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	clock    ports.Clock
	observer ports.StoreObserver
}

// WithClock sets the clock used for record timestamps.
func WithClock(c ports.Clock) Option {
	return func(o *storeOptions) { o.clock = c }
}

// WithObserver registers an observer for mutations.
func WithObserver(obs ports.StoreObserver) Option {
	return func(o *storeOptions) { o.observer = obs }
}

// NewStore creates an empty store. name is used in errors and metrics.
func NewStore[V any](name string, opts ...Option) *Store[V] {
	o := storeOptions{clock: clock.Real{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[V]{
		name:     name,
		records:  make(map[int]resource.Record[V]),
		clock:    o.clock,
		observer: o.observer,
	}
}

// Name returns the resource name the store was created with.
func (s *Store[V]) Name() string {
	return s.name
}

// Add stores v under the next free id after the highest id Add has allocated.
// Ids taken by explicit inserts are skipped.
func (s *Store[V]) Add(ctx context.Context, v V) resource.Record[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	for {
		if _, taken := s.records[id]; !taken {
			break
		}
		id++
	}
	s.lastID = id

	now := s.clock.Now()
	rec := resource.Record[V]{ID: id, Data: v, CreatedAt: now, UpdatedAt: now}
	s.records[id] = rec
	s.notify(OpAdd, nil)
	return rec
}

// Insert stores v under an explicit id. The auto-increment counter is not
// consulted or advanced.
func (s *Store[V]) Insert(ctx context.Context, id int, v V) (resource.Record[V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; exists {
		err := &resource.ConflictError{Resource: s.name, ID: id}
		s.notify(OpInsert, err)
		return resource.Record[V]{}, err
	}

	now := s.clock.Now()
	rec := resource.Record[V]{ID: id, Data: v, CreatedAt: now, UpdatedAt: now}
	s.records[id] = rec
	s.notify(OpInsert, nil)
	return rec, nil
}

// Get retrieves a record by id.
func (s *Store[V]) Get(ctx context.Context, id int) (resource.Record[V], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return resource.Record[V]{}, &resource.NotFoundError{Resource: s.name, ID: id}
	}
	return rec, nil
}

// Replace overwrites the payload of an existing record in one step.
func (s *Store[V]) Replace(ctx context.Context, id int, v V) (resource.Record[V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.records[id]
	if !ok {
		err := &resource.NotFoundError{Resource: s.name, ID: id}
		s.notify(OpReplace, err)
		return resource.Record[V]{}, err
	}

	rec := resource.Record[V]{
		ID:        id,
		Data:      v,
		CreatedAt: old.CreatedAt,
		UpdatedAt: s.clock.Now(),
	}
	s.records[id] = rec
	s.notify(OpReplace, nil)
	return rec, nil
}

// Delete removes a record.
func (s *Store[V]) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		err := &resource.NotFoundError{Resource: s.name, ID: id}
		s.notify(OpDelete, err)
		return err
	}

	delete(s.records, id)
	s.notify(OpDelete, nil)
	return nil
}

// List returns all records in ascending id order.
func (s *Store[V]) List(ctx context.Context) []resource.Record[V] {
	return s.Find(ctx, nil)
}

// Find returns records whose payload satisfies match, in ascending id order.
// A nil match returns every record.
func (s *Store[V]) Find(ctx context.Context, match func(V) bool) []resource.Record[V] {
	s.mu.RLock()
	result := make([]resource.Record[V], 0, len(s.records))
	for _, rec := range s.records {
		if match == nil || match(rec.Data) {
			result = append(result, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Len returns the number of stored records.
func (s *Store[V]) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear removes all records and resets the counter (for testing).
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[int]resource.Record[V])
	s.lastID = 0
}

// notify must be called with s.mu held so sizes are reported in mutation order.
func (s *Store[V]) notify(op string, err error) {
	if s.observer == nil {
		return
	}
	s.observer.OnOperation(s.name, op, err)
	if err == nil {
		s.observer.OnSize(s.name, len(s.records))
	}
}

// Ensure interface compliance.
var _ ports.ResourceStore[struct{}] = (*Store[struct{}])(nil)
