package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no config.toml or .env is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "order-source-gateway", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "ordersource", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
		assert.Equal(t, 1, cfg.Integration.BatchConcurrency)
		assert.Equal(t, 5*time.Minute, cfg.Integration.CredentialCacheTTL)
		assert.Equal(t, "X-Legacy-Token", cfg.Integration.LegacyTokenHeader)
		assert.Equal(t, "/metrics", cfg.Telemetry.MetricsPath)
		assert.Equal(t, "order-source-gateway", cfg.Telemetry.ServiceName)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("loads values from environment variables with OSG prefix", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("OSG_APP_NAME", "test-app")
		t.Setenv("OSG_APP_PORT", "9000")
		t.Setenv("OSG_DATABASE_HOST", "testdb.local")
		t.Setenv("OSG_DATABASE_PORT", "5433")
		t.Setenv("OSG_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("OSG_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("OSG_HTTP_REQUEST_TIMEOUT", "5s")
		t.Setenv("OSG_INTEGRATION_BATCH_CONCURRENCY", "4")
		t.Setenv("OSG_REDIS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout)
		assert.Equal(t, 4, cfg.Integration.BatchConcurrency)
		assert.True(t, cfg.Redis.Enabled)
	})

	t.Run("reads config.toml", func(t *testing.T) {
		dir := chdirTemp(t)
		toml := "[integration]\nmodule_version = \"1.2.3\"\nplatform_name = \"Shop\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", cfg.Integration.ModuleVersion)
		assert.Equal(t, "Shop", cfg.Integration.PlatformName)
	})

	t.Run("preloads .env without overriding real env vars", func(t *testing.T) {
		dir := chdirTemp(t)
		env := "OSG_APP_PORT=7000\nOSG_APP_NAME=from-dotenv\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
		t.Setenv("OSG_APP_NAME", "from-env")
		// godotenv sets variables directly; make sure the test does not leak them
		t.Setenv("OSG_APP_PORT", "")
		require.NoError(t, os.Unsetenv("OSG_APP_PORT"))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "7000", cfg.App.Port)
		assert.Equal(t, "from-env", cfg.App.Name)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("OSG_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("OSG_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates batch concurrency", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("OSG_INTEGRATION_BATCH_CONCURRENCY", "-2")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch_concurrency")
	})

	t.Run("validates sampling ratio", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("OSG_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("OSG_APP_ENV", "production")
		t.Setenv("OSG_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("OSG_DATABASE_PASSWORD", "secure-password")
		t.Setenv("OSG_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		chdirTemp(t)
		setValidProductionBase(t)
		t.Setenv("OSG_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		chdirTemp(t)
		setValidProductionBase(t)
		t.Setenv("OSG_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		chdirTemp(t)
		setValidProductionBase(t)
		t.Setenv("OSG_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		chdirTemp(t)
		setValidProductionBase(t)
		t.Setenv("OSG_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		chdirTemp(t)
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
