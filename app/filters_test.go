package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/artpar/minapi/app"
	"github.com/artpar/minapi/domain/filter"
	"github.com/artpar/minapi/domain/outcome"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	chain := filter.Compose(func(inv *filter.Invocation) outcome.Outcome {
		return outcome.Conflict("taken")
	}, app.LoggingFilter(logger))

	inv := filter.NewInvocation(context.Background(), "POST", "/person/5")
	inv.Template = "/person/{id}"
	out := chain(inv)
	assert.Equal(t, outcome.KindConflict, out.Kind, "logging must pass the outcome through")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var before, after map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &before))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &after))

	assert.Equal(t, "handler starting", before["message"])
	assert.Equal(t, "/person/{id}", before["route"])
	assert.Equal(t, "handler result", after["message"])
	assert.Equal(t, "conflict", after["kind"])
	assert.Equal(t, float64(409), after["status"])
	assert.Equal(t, "warn", after["level"])
}

func TestLoggingFilter_Named(t *testing.T) {
	assert.Equal(t, "logging", filter.NameOf(app.LoggingFilter(zerolog.Nop())))
}
