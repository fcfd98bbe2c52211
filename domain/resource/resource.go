// Package resource provides the keyed record type and the errors shared by
// resource stores.
package resource

import (
	"errors"
	"fmt"
	"time"
)

// Record is a stored entity (value type). ID never changes after creation.
type Record[V any] struct {
	ID        int       `json:"id"`
	Data      V         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sentinel errors for errors.Is matching.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// NotFoundError is returned when no record has the requested id.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError is returned when an explicit insert hits an existing id.
type ConflictError struct {
	Resource string
	ID       int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d already exists", e.Resource, e.ID)
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Location returns the canonical location reference for a record.
func Location(resource string, id int) string {
	return fmt.Sprintf("/%s/%d", resource, id)
}
