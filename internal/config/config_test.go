package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
  shutdown_timeout: 3s
  allowed_origins: ["https://quiz.example"]
  rate_limit: 5
  rate_burst: 10
database:
  path: /var/lib/quiz/quiz.db
  busy_timeout: 250ms
log:
  level: debug
  format: json
questions:
  path: bank.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadHeaderTimeout, "unset keys keep their default")
	assert.Equal(t, []string{"https://quiz.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 5.0, cfg.HTTP.RateLimit)
	assert.Equal(t, "/var/lib/quiz/quiz.db", cfg.Database.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.BusyTimeout)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "bank.yaml", cfg.Questions.Path)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\n")
	t.Setenv("DB_NAME", "from-env.db")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("ADDR", "127.0.0.1:8080")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("QUESTIONS_PATH", "/etc/quiz/bank.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, "WARNING", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/etc/quiz/bank.yaml", cfg.Questions.Path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		_, err := Load("")
		assert.ErrorContains(t, err, "invalid log level")
	})

	t.Run("metrics flag", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "maybe")
		_, err := Load("")
		assert.ErrorContains(t, err, "METRICS_ENABLED")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "http: [\n"))
		assert.ErrorContains(t, err, "unmarshal")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Database.Path = "  "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HTTP.RateLimit = 2
	cfg.HTTP.RateBurst = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HTTP.RateLimit = -1
	assert.Error(t, cfg.Validate())
}
