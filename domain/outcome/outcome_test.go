package outcome_test

import (
	"errors"
	"testing"

	"github.com/artpar/minapi/domain/outcome"
	"github.com/stretchr/testify/assert"
)

func TestKind_StatusCode(t *testing.T) {
	tests := []struct {
		kind outcome.Kind
		want int
	}{
		{outcome.KindOk, 200},
		{outcome.KindCreated, 201},
		{outcome.KindNoContent, 204},
		{outcome.KindNotFound, 404},
		{outcome.KindConflict, 409},
		{outcome.KindValidation, 400},
		{outcome.KindBadRequest, 400},
		{outcome.KindForbidden, 403},
		{outcome.KindInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.StatusCode())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation_error", outcome.KindValidation.String())
	assert.Equal(t, "unknown", outcome.Kind(99).String())
}

func TestKind_IsError(t *testing.T) {
	assert.False(t, outcome.KindCreated.IsError())
	assert.True(t, outcome.KindNotFound.IsError())
	assert.True(t, outcome.KindInternal.IsError())
}

func TestConstructors(t *testing.T) {
	created := outcome.Created("/person/1", "ann")
	assert.Equal(t, outcome.KindCreated, created.Kind)
	assert.Equal(t, "/person/1", created.Location)
	assert.Equal(t, "ann", created.Payload)

	v := outcome.ValidationField("id", "id must be positive")
	assert.Equal(t, outcome.KindValidation, v.Kind)
	assert.Equal(t, []string{"id must be positive"}, v.Errors["id"])

	cause := errors.New("boom")
	f := outcome.Fault(cause)
	assert.Equal(t, outcome.KindInternal, f.Kind)
	assert.ErrorIs(t, f.Cause, cause)
}

func TestWithHeader_DoesNotAliasOriginal(t *testing.T) {
	base := outcome.Ok(nil).WithHeader("X-One", "1")
	derived := base.WithHeader("X-Two", "2")

	assert.Len(t, base.Headers, 1)
	assert.Len(t, derived.Headers, 2)
	assert.Equal(t, "1", derived.Headers["X-One"])
}
