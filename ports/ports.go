// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/minapi/domain/resource"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ResourceStore is a keyed CRUD container for one entity type.
// All mutations are atomic relative to each other.
type ResourceStore[V any] interface {
	// Add stores v under a newly allocated id. It always succeeds.
	Add(ctx context.Context, v V) resource.Record[V]

	// Insert stores v under an explicit id.
	// Returns *resource.ConflictError if the id is taken.
	Insert(ctx context.Context, id int, v V) (resource.Record[V], error)

	// Get retrieves a record by id.
	// Returns *resource.NotFoundError if absent.
	Get(ctx context.Context, id int) (resource.Record[V], error)

	// Replace overwrites the payload of an existing record.
	// Returns *resource.NotFoundError if absent.
	Replace(ctx context.Context, id int, v V) (resource.Record[V], error)

	// Delete removes a record.
	// Returns *resource.NotFoundError if absent.
	Delete(ctx context.Context, id int) error

	// List returns all records in ascending id order.
	List(ctx context.Context) []resource.Record[V]

	// Find returns the records whose payload satisfies match, in id order.
	Find(ctx context.Context, match func(V) bool) []resource.Record[V]

	// Len returns the number of stored records.
	Len(ctx context.Context) int
}

// StoreObserver receives notifications about store operations.
// Used for metrics; implementations must be safe for concurrent use.
type StoreObserver interface {
	// OnOperation is called after every mutating operation with its result.
	OnOperation(resourceName, op string, err error)

	// OnSize is called with the record count after every successful mutation.
	OnSize(resourceName string, size int)
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// OutcomeRecorder records the outcome of every dispatched request.
// Implementations must be safe for concurrent use.
type OutcomeRecorder interface {
	// RecordOutcome is called once per request. route is the matched template,
	// or empty when no route matched.
	RecordOutcome(method, route, kind string)
}
