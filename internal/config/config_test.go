package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agiler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
database:
  driver: pgx
  dsn: postgres://localhost/agiler
http:
  addr: 127.0.0.1:9000
  read_timeout: 2s
log:
  level: debug
  format: json
projection:
  enabled: false
tracing:
  exporter: otlp
  endpoint: localhost:4318
  sample_ratio: 0.25
`)
	cfg, err := load(path, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, Database{Driver: "pgx", DSN: "postgres://localhost/agiler"}, cfg.Database)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.False(t, cfg.Projection.Enabled)
	assert.Equal(t, "otlp", cfg.Tracing.Exporter)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := load(writeFile(t, ""), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := load(writeFile(t, "database:\n  drvier: pgx\n"), map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drvier")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), map[string]string{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "database:\n  dsn: from-file.db\nhttp:\n  addr: \":9000\"\n")
	cfg, err := load(path, map[string]string{
		"AGILER_DATABASE_DSN":          "from-env.db",
		"AGILER_HTTP_SHUTDOWN_TIMEOUT": "1m",
		"AGILER_PROJECTION_ENABLED":    "false",
		"AGILER_LOG_LEVEL":             "warn",
		"DATABASE_DSN":                 "unprefixed-is-ignored.db",
		"AGILER_TRACING_EXPORTER":      "stdout",
		"AGILER_TRACING_SAMPLE_RATIO":  "0.5",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.Database.DSN)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, time.Minute, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.Projection.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
	assert.Equal(t, 0.5, cfg.Tracing.SampleRatio)
}

func TestLoad_BadEnvValue(t *testing.T) {
	_, err := load("", map[string]string{"AGILER_HTTP_READ_TIMEOUT": "soon"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"dsn", func(c *Config) { c.Database.DSN = " " }, "database.dsn"},
		{"addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"timeout", func(c *Config) { c.HTTP.ReadTimeout = -time.Second }, "timeouts"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }, "tracing.exporter"},
		{"endpoint", func(c *Config) { c.Tracing.Exporter = "otlp" }, "tracing.endpoint"},
		{"ratio", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, "sample_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("joins all errors", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Driver = "mysql"
		cfg.Log.Format = "xml"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
		assert.Contains(t, err.Error(), "log.format")
	})
}
