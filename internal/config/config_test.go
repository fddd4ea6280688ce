package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, 2, cfg.Workflow.Workers)
	assert.Equal(t, 5*time.Second, cfg.Workflow.PollInterval)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, time.UTC, cfg.App.Location())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  host: db.internal
  port: 5432
workflow:
  workers: 8
app:
  timezone: Asia/Tokyo
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "8080")
	t.Setenv("DB_USER", "svc")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("WORKFLOW_MAX_ATTEMPTS", "9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "svc", cfg.Database.User)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 8, cfg.Workflow.Workers)
	assert.Equal(t, 9, cfg.Workflow.MaxAttempts)
	assert.Equal(t, "Asia/Tokyo", cfg.App.Timezone)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal port=5432 user=svc")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	mysql := DatabaseConfig{Driver: "mysql", User: "u", Password: "p", Host: "h", Port: 3306, Name: "n"}
	assert.Equal(t, "u:p@tcp(h:3306)/n?charset=utf8mb4&parseTime=True&loc=UTC", mysql.DSN())

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "app.db"}
	assert.Equal(t, "app.db", sqlite.DSN())
}

func TestAppConfig_LocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, AppConfig{Timezone: "Not/AZone"}.Location())
}
