package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.HTTP.BaseURL)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 10*time.Second, cfg.Postgres.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.Postgres.ProbeTimeout)
	assert.True(t, cfg.Postgres.RunMigrationsOnStart)
	assert.Equal(t, 720*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "admin", cfg.Auth.DevAccount.Username)
}

func TestAppConfig_ParsesEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "prod-secret")
	t.Setenv("SUPER_ADMIN_EMAILS", "root@example.com;cto@example.com")
	t.Setenv("ADMIN_EMAILS", "ops@example.com")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "prod-secret", cfg.Auth.SigningSecret)
	assert.Equal(t, []string{"root@example.com", "cto@example.com"}, cfg.Auth.SuperAdminEmails)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Auth.AdminEmails)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 6432, cfg.Postgres.Port)
	assert.True(t, cfg.Auth.Google.Configured())
	assert.NoError(t, cfg.Auth.Validate(cfg.IsProduction()))
}

func TestAppConfig_DetectEnvFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "production")

	cfg := AppConfig{}
	cfg.Sanitize()

	assert.True(t, cfg.IsProduction())
}

func TestAuthConfig_DevSecretSubstitutedOutsideProduction(t *testing.T) {
	a := AuthConfig{}
	a.Sanitize(false)

	assert.Equal(t, devSigningSecret, a.SigningSecret)
	assert.NoError(t, a.Validate(false))
}

func TestAuthConfig_ProductionRequiresRealSecret(t *testing.T) {
	a := AuthConfig{}
	a.Sanitize(true)
	assert.Error(t, a.Validate(true))

	a.SigningSecret = devSigningSecret
	assert.Error(t, a.Validate(true))

	a.SigningSecret = "real-secret"
	assert.NoError(t, a.Validate(true))
}

func TestGoogleConfig_Configured(t *testing.T) {
	assert.False(t, GoogleConfig{}.Configured())
	assert.False(t, GoogleConfig{ClientID: "id"}.Configured())
	assert.False(t, GoogleConfig{ClientSecret: "secret"}.Configured())
	assert.True(t, GoogleConfig{ClientID: "id", ClientSecret: "secret"}.Configured())
}

func TestDBConfig_SanitizeGuardrails(t *testing.T) {
	d := DBConfig{Port: -1, ConnectTimeout: -time.Second}
	d.Sanitize()

	assert.Equal(t, 5432, d.Port)
	assert.Equal(t, 10*time.Second, d.ConnectTimeout)
	assert.Equal(t, 2*time.Second, d.ProbeTimeout)
}

func TestIsProduction_CaseInsensitive(t *testing.T) {
	cfg := AppConfig{Env: "Production"}
	assert.True(t, cfg.IsProduction())

	cfg.Env = "staging"
	assert.False(t, cfg.IsProduction())
}
