package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/minapi/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 5s
  max_body_bytes: 4096
  debug_routes: true

auth:
  tags_header: "X-Roles"
  admin_tag: "ops"

logging:
  level: debug
  format: console

seed:
  people:
    - firstName: Ann
      lastName: Lee
  housing:
    - name: Acme Fresh Start Housing
      city: Chicago
      state: IL
      availableUnits: 4
      wifi: true
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.MaxBodyBytes != 4096 {
		t.Errorf("MaxBodyBytes = %d, want 4096", cfg.Server.MaxBodyBytes)
	}
	if !cfg.Server.DebugRoutes {
		t.Error("DebugRoutes = false, want true")
	}
	if cfg.Auth.TagsHeader != "X-Roles" || cfg.Auth.AdminTag != "ops" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if len(cfg.Seed.People) != 1 || cfg.Seed.People[0].LastName != "Lee" {
		t.Errorf("Seed.People = %+v", cfg.Seed.People)
	}
	if len(cfg.Seed.Housing) != 1 || !cfg.Seed.Housing[0].Wifi || cfg.Seed.Housing[0].AvailableUnits != 4 {
		t.Errorf("Seed.Housing = %+v", cfg.Seed.Housing)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("WriteTimeout = %v, want 60s", cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 15s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("MaxBodyBytes = %d, want 1MiB", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.DebugRoutes {
		t.Error("DebugRoutes should default to false")
	}
	if cfg.Auth.TagsHeader != "X-Caller-Tags" || cfg.Auth.AdminTag != "admin" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_MetricsCanBeDisabled(t *testing.T) {
	cfg := writeAndLoad(t, "metrics:\n  enabled: false\n")
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_MINAPI_PORT", "7070")

	cfg := writeAndLoad(t, "server:\n  port: ${TEST_MINAPI_PORT}\n")
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MINAPI_SERVER_PORT", "9999")
	t.Setenv("MINAPI_SERVER_DEBUG_ROUTES", "yes")
	t.Setenv("MINAPI_SERVER_REQUEST_TIMEOUT", "2s")
	t.Setenv("MINAPI_LOG_LEVEL", "warn")
	t.Setenv("MINAPI_METRICS_ENABLED", "0")
	t.Setenv("MINAPI_AUTH_ADMIN_TAG", "root")

	cfg := writeAndLoad(t, "server:\n  port: 9090\nlogging:\n  level: debug\n")

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999 (env wins)", cfg.Server.Port)
	}
	if !cfg.Server.DebugRoutes {
		t.Error("DebugRoutes = false, want true")
	}
	if cfg.Server.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %v, want 2s", cfg.Server.RequestTimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %s, want warn", cfg.Logging.Level)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Auth.AdminTag != "root" {
		t.Errorf("AdminTag = %s, want root", cfg.Auth.AdminTag)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("MINAPI_SERVER_PORT", "eighty")

	_, err := writeAndLoadErr(t, "{}\n")
	if err == nil || !strings.Contains(err.Error(), "MINAPI_SERVER_PORT") {
		t.Errorf("error = %v, want MINAPI_SERVER_PORT error", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"port out of range", "server:\n  port: 70000\n", "server.port"},
		{"negative body limit", "server:\n  max_body_bytes: -1\n", "max_body_bytes"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"relative metrics path", "metrics:\n  path: metrics\n", "metrics.path"},
		{"reserved metrics path", "metrics:\n  path: /health\n", "reserved"},
		{"admin tag with comma", "auth:\n  admin_tag: \"a,b\"\n", "admin_tag"},
		{"seed person missing name", "seed:\n  people:\n    - firstName: Ann\n", "seed.people[0]: missing lastName"},
		{"seed account bad email", "seed:\n  accounts:\n    - name: root\n      email: nope\n", "seed.accounts[0]"},
		{"seed product negative price", "seed:\n  products:\n    - name: Pen\n      price: -1\n", "seed.products[0]: missing price"},
		{"malformed yaml", "server: [", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeAndLoadErr(t, tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("MINAPI_SERVER_PORT", "8181")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Port = %d, want 8181", cfg.Server.Port)
	}

	path := writeConfig(t, "server:\n  host: 10.0.0.1\n")
	cfg, err = config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Host != "10.0.0.1" {
		t.Errorf("Host = %s, want 10.0.0.1", cfg.Server.Host)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := config.Validate(config.Default()); err != nil {
		t.Errorf("Validate(Default()) = %v", err)
	}
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	return config.Load(writeConfig(t, content))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
