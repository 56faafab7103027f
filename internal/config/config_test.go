package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.App.Dev)
	assert.Equal(t, devSecret, cfg.Auth.Secret)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Storage.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("AUTH_TOKEN_TTL", "2h")
	t.Setenv("APP_DEV", "false")
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("APP_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("APP_PUBLIC_URL", "https://crm.example/")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
	assert.Equal(t, "https://crm.example", cfg.App.PublicURL)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7070\"\nminio_endpoint: minio:9000\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.True(t, cfg.Storage.Enabled())
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_DEV", "false")
	t.Setenv("DB_DRIVER", "mysql")

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Server.Port = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "DB_DRIVER")
	assert.Contains(t, err.Error(), "AUTH_SECRET")
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("APP_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.4"}, cfg.App.TrustedProxies)
	require.NoError(t, cfg.Validate())

	for _, bad := range []string{"nonsense", "10.0.0.0/33"} {
		cfg.App.TrustedProxies = []string{bad}
		err := cfg.Validate()
		require.Error(t, err, bad)
		assert.Contains(t, err.Error(), "APP_TRUSTED_PROXIES")
	}
}

func TestDatabaseConfigStrings(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "crm", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=crm sslmode=disable", d.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/crm?sslmode=disable", d.URL())
}
