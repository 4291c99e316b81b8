package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 9090
  mode: "test"
database:
  host: "db.internal"
  port: 5432
  user: "curator"
  password: "secret"
  db_name: "metatree"
redis:
  addr: "cache.internal:6379"
envipath:
  base_url: "https://envipath.example.org"
  packages: ["abc-123"]
chemtk:
  base_url: "http://chemtk.internal:8765"
storage:
  data_dir: "/var/lib/metatree"
log:
  level: "debug"
  format: "console"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValidFile(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "metatree", cfg.Database.DBName)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "https://envipath.example.org", cfg.EnviPath.BaseURL)
	assert.Equal(t, []string{"abc-123"}, cfg.EnviPath.Packages)
	assert.Equal(t, "http://chemtk.internal:8765", cfg.ChemTk.BaseURL)
	assert.Equal(t, "/var/lib/metatree", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults fill what the file does not set.
	assert.Equal(t, DefaultDBMaxConns, cfg.Database.MaxConns)
	assert.Equal(t, DefaultWorkerConcurrency, cfg.Worker.Concurrency)
	assert.Equal(t, 60*time.Second, cfg.EnviPath.RequestTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadInvalidValues(t *testing.T) {
	path := createTempConfigFile(t, `
server:
  port: 70000
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestLoadInvalidLogLevel(t *testing.T) {
	path := createTempConfigFile(t, `
log:
  level: "verbose"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("METATREE_DATABASE_HOST", "env-db")
	t.Setenv("METATREE_REDIS_ADDR", "env-redis:6379")
	t.Setenv("METATREE_CHEMTK_BASE_URL", "http://env-chemtk:8765")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "http://env-chemtk:8765", cfg.ChemTk.BaseURL)
	// Everything else comes from defaults.
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultEnviPathBaseURL, cfg.EnviPath.BaseURL)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("METATREE_SERVER_PORT", "7070")
	path := createTempConfigFile(t, validConfigYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestMustLoadPanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad("/nonexistent/config.yaml")
	})
}
