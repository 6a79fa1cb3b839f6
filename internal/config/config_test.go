package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "maturity.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.RequestTimeoutSecs)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 50.0, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, 100, cfg.Server.RateBurst)
	assert.Equal(t, "en", cfg.Assessment.DefaultLanguage)
	assert.Empty(t, cfg.Assessment.SpecFile)
	assert.Equal(t, 3, cfg.Cohort.MinSampleSize)
	assert.Equal(t, 20, cfg.Cohort.LeaderboardLimit)
	assert.False(t, cfg.Cache.Enabled())
	assert.Equal(t, 300, cfg.Cache.TTLSecs)
	assert.Equal(t, 3, cfg.Store.ConnectAttempts)
	assert.Equal(t, 5, cfg.Cache.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Cache.BreakerCooldown())
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/maturity
log:
  level: debug
  format: console
server:
  port: 9090
cohort:
  min_sample_size: 5
assessment:
  spec_file: bank.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/maturity", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Cohort.MinSampleSize)
	assert.Equal(t, "bank.yaml", cfg.Assessment.SpecFile)
	// Defaults still apply for unset values
	assert.Equal(t, 20, cfg.Cohort.LeaderboardLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("MATURITY_STORE_DRIVER", "postgres")
	t.Setenv("MATURITY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MATURITY_CACHE_REDIS_ADDR=localhost:6379\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MATURITY_CACHE_REDIS_ADDR") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.True(t, cfg.Cache.Enabled())
}

func TestLoadDotEnvDoesNotOverrideEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MATURITY_SERVER_PORT=4000\n"), 0o644))
	t.Setenv("MATURITY_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "maturity.db"
	cfg.Log.Level = "info"
	cfg.Server.Port = 8080
	cfg.Server.RequestTimeoutSecs = 30
	cfg.Cohort.MinSampleSize = 3
	cfg.Cache.TTLSecs = 300
	return cfg
}

func TestValidate_CLI(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""
	cfg.Cohort.MinSampleSize = 0

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "cohort.min_sample_size")
}

func TestValidate_CacheTTL(t *testing.T) {
	cfg := validDefaults()
	cfg.Cache.RedisAddr = "localhost:6379"
	cfg.Cache.TTLSecs = 0

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.ttl_secs")
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validDefaults()
	cfg.Log.Level = "loud"
	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestCacheTTL(t *testing.T) {
	c := CacheConfig{TTLSecs: 90}
	assert.Equal(t, "1m30s", c.TTL().String())
}
