package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "onboarding", cfg.DB.Name)
	assert.Equal(t, 30*time.Second, cfg.DB.ConnectTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsDev())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
environment: dev
dev_mode_bypass: true
db:
  host: db.internal
  port: 6543
  name: people
auth:
  okta_domain: "https://example.okta.com/oauth2/default/"
  client_id: backend-client
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ONBOARDING_DB_PASSWORD", "s3cret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.True(t, cfg.DevModeBypass)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, "s3cret", cfg.DB.Password)
	assert.Equal(t, "https://example.okta.com/oauth2/default", cfg.Auth.OktaDomain)
	assert.Equal(t, "backend-client", cfg.Auth.SwaggerClientID, "swagger client falls back to backend client")
	assert.Equal(t,
		"host=db.internal port=6543 user=postgres password=s3cret dbname=people sslmode=disable",
		cfg.ConnString())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
