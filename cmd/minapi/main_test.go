package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		routesOutput = "table"
		routesColumns = nil
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRoutesCommand_Table(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	out, err := execute(t, "routes", "--config", missing, "--env-file", "")
	require.NoError(t, err)

	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "person.insert")
	assert.Contains(t, out, "static:positive(id#0) > static:logging")
	assert.Contains(t, out, "factory:require-tags[admin]")
	assert.NotContains(t, out, "/throw")
}

func TestRoutesCommand_JSON(t *testing.T) {
	path := writeFile(t, "minapi.yaml", "server:\n  debug_routes: true\n")

	out, err := execute(t, "routes", "-o", "json", "--config", path, "--env-file", "")
	require.NoError(t, err)

	var doc struct {
		Kind string `json:"kind"`
		Data []struct {
			Method   string   `json:"method"`
			Template string   `json:"template"`
			Tags     []string `json:"tags"`
			Filters  []string `json:"filters"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "routes", doc.Kind)

	byKey := map[string][]string{}
	tags := map[string][]string{}
	for _, r := range doc.Data {
		byKey[r.Method+" "+r.Template] = r.Filters
		tags[r.Method+" "+r.Template] = r.Tags
	}

	assert.Contains(t, byKey, "GET /throw")
	filters, ok := byKey["DELETE /account/{id}"]
	require.True(t, ok)
	assert.Equal(t, []string{"admin"}, tags["DELETE /account/{id}"])
	require.NotEmpty(t, filters)
	assert.Equal(t, "factory:require-tags[admin]", filters[0])
	assert.Equal(t, "static:logging", filters[len(filters)-1])
}

func TestRoutesCommand_UnknownFormat(t *testing.T) {
	_, err := execute(t, "routes", "-o", "csv", "--config", "absent.yaml", "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")
}

func TestValidateCommand(t *testing.T) {
	path := writeFile(t, "minapi.yaml", "server:\n  port: 9090\nseed:\n  people:\n    - firstName: Ann\n      lastName: Lee\n")

	out, err := execute(t, "validate", "--config", path, "--env-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
	assert.Contains(t, out, "0.0.0.0:9090")
	assert.Contains(t, out, "1 people")
}

func TestValidateCommand_Invalid(t *testing.T) {
	path := writeFile(t, "minapi.yaml", "logging:\n  level: loud\n")

	_, err := execute(t, "validate", "--config", path, "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestEnvFileLoading(t *testing.T) {
	env := writeFile(t, ".env", "MINAPI_SERVER_PORT=7171\n")
	t.Cleanup(func() { os.Unsetenv("MINAPI_SERVER_PORT") })
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	out, err := execute(t, "validate", "--config", missing, "--env-file", env)
	require.NoError(t, err)
	assert.Contains(t, out, ":7171")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "minapi dev"))
}
