// Package idgen provides ports.IDGenerator implementations.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/minapi/ports"
	"github.com/google/uuid"
)

// UUID generates random (version 4) UUIDs.
type UUID struct{}

// New returns a new UUID v4.
func (UUID) New() string {
	return uuid.NewString()
}

// TimeOrdered generates version 7 UUIDs, which sort by creation time. Trace
// ids use it so log searches by id prefix narrow to a time window.
type TimeOrdered struct{}

// New returns a new UUID v7, or a v4 if the clock source fails.
func (TimeOrdered) New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Sequential generates prefixed sequential ids, for tests and deterministic
// output.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next id: prefix1, prefix2, ...
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Reset restarts the sequence.
func (s *Sequential) Reset() {
	s.counter.Store(0)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = TimeOrdered{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
