package resource_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/artpar/minapi/domain/resource"
	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &resource.NotFoundError{Resource: "person", ID: 3})

	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.NotErrorIs(t, err, resource.ErrConflict)

	var nf *resource.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, 3, nf.ID)
	assert.Equal(t, "person 3 not found", nf.Error())
}

func TestConflictError(t *testing.T) {
	err := &resource.ConflictError{Resource: "person", ID: 5}

	assert.ErrorIs(t, err, resource.ErrConflict)
	assert.Equal(t, "person 5 already exists", err.Error())
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "/person/1", resource.Location("person", 1))
}
