package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"FIN_APP_NAME",
	"FIN_APP_ENV",
	"FIN_APP_PORT",
	"FIN_DATABASE_DRIVER",
	"FIN_DATABASE_HOST",
	"FIN_DATABASE_PORT",
	"FIN_DATABASE_PASSWORD",
	"FIN_DATABASE_SSLMODE",
	"FIN_DATABASE_MAX_OPEN_CONNS",
	"FIN_DATABASE_MAX_IDLE_CONNS",
	"FIN_JWT_SECRET",
	"FIN_STORAGE_PROVIDER",
	"FIN_STORAGE_BUCKET",
	"FIN_FINANCE_ENFORCE_FORWARD_TRANSITIONS",
	"FIN_FINANCE_PROJECTS",
	"FIN_FINANCE_IMPORT_MAX_ROWS",
	"FIN_FINANCE_IDEMPOTENCY_TTL",
	"FIN_HTTP_SWAGGER_ENABLED",
	"FIN_HTTP_SWAGGER_ALLOWED_IPS",
}

// clearEnv unsets every managed variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedEnv {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadWithEnvFiles()
		require.NoError(t, err)

		assert.Equal(t, "oneflow-finance", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "stub", cfg.Storage.Provider)
		assert.False(t, cfg.Finance.EnforceForwardTransitions)
		assert.Empty(t, cfg.Finance.Projects)
		assert.Equal(t, 5000, cfg.Finance.ImportMaxRows)
		assert.Equal(t, 24*time.Hour, cfg.Finance.IdempotencyTTL)
		assert.True(t, cfg.HTTP.SwaggerEnabled)
		assert.Empty(t, cfg.HTTP.SwaggerAllowedIPs)
	})

	t.Run("swagger is off in production unless enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_APP_ENV", "production")
		t.Setenv("FIN_JWT_SECRET", "a-production-secret-of-at-least-32-chars")
		t.Setenv("FIN_DATABASE_PASSWORD", "secret")
		t.Setenv("FIN_DATABASE_SSLMODE", "require")

		cfg, err := LoadWithEnvFiles()
		require.NoError(t, err)
		assert.False(t, cfg.HTTP.SwaggerEnabled)

		t.Setenv("FIN_HTTP_SWAGGER_ENABLED", "true")
		t.Setenv("FIN_HTTP_SWAGGER_ALLOWED_IPS", "10.0.0.0/8, 127.0.0.1")

		cfg, err = LoadWithEnvFiles()
		require.NoError(t, err)
		assert.True(t, cfg.HTTP.SwaggerEnabled)
		assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.HTTP.SwaggerAllowedIPs)
	})

	t.Run("loads values from environment variables with FIN prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_APP_NAME", "test-app")
		t.Setenv("FIN_APP_PORT", "9000")
		t.Setenv("FIN_DATABASE_DRIVER", "sqlite")
		t.Setenv("FIN_DATABASE_PORT", "5433")
		t.Setenv("FIN_FINANCE_ENFORCE_FORWARD_TRANSITIONS", "true")
		t.Setenv("FIN_FINANCE_PROJECTS", "Website Revamp, Data Platform")
		t.Setenv("FIN_FINANCE_IMPORT_MAX_ROWS", "200")
		t.Setenv("FIN_FINANCE_IDEMPOTENCY_TTL", "2h")

		cfg, err := LoadWithEnvFiles()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Finance.EnforceForwardTransitions)
		assert.Equal(t, []string{"Website Revamp", "Data Platform"}, cfg.Finance.Projects)
		assert.Equal(t, 200, cfg.Finance.ImportMaxRows)
		assert.Equal(t, 2*time.Hour, cfg.Finance.IdempotencyTTL)
	})

	t.Run("reads dotenv file without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		envFile := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("FIN_APP_NAME=from-dotenv\nFIN_APP_PORT=7000\n"), 0o600))
		t.Setenv("FIN_APP_PORT", "7001")

		cfg, err := LoadWithEnvFiles(envFile, filepath.Join(dir, "missing.env"))
		require.NoError(t, err)

		assert.Equal(t, "from-dotenv", cfg.App.Name)
		assert.Equal(t, "7001", cfg.App.Port)
		require.NoError(t, os.Unsetenv("FIN_APP_NAME"))
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_DATABASE_DRIVER", "mysql")

		_, err := LoadWithEnvFiles()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("FIN_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := LoadWithEnvFiles()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("s3 storage requires a bucket", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_STORAGE_PROVIDER", "s3")

		_, err := LoadWithEnvFiles()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")
	})

	t.Run("production requires a long jwt secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FIN_APP_ENV", "production")
		t.Setenv("FIN_JWT_SECRET", "short")
		t.Setenv("FIN_DATABASE_PASSWORD", "secret")
		t.Setenv("FIN_DATABASE_SSLMODE", "require")

		_, err := LoadWithEnvFiles()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{User: "fin", Password: "p@ss word", Host: "db", Port: 5432, DBName: "oneflow", SSLMode: "disable"}
	assert.Equal(t, "postgres://fin:p%40ss%20word@db:5432/oneflow?sslmode=disable", d.DSN())
}
