package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication configuration
//   - database.go: Identity store configuration
//   - http.go: HTTP server configuration
type AppConfig struct {
	// Env is the deployment tier ("production" or anything else).
	// Degraded sign-in and the dev fallback account exist only outside
	// production.
	Env string `env:"APP_ENV" envDefault:"development"`

	// Authentication configuration
	Auth AuthConfig

	// Identity store configuration
	Postgres DBConfig `envPrefix:"DB_"`

	// HTTP server configuration
	HTTP HTTPConfig
}

// IsProduction reports whether the service runs in the production tier.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectEnv()
	c.Auth.Sanitize(c.IsProduction())
	c.Postgres.Sanitize()
	c.HTTP.Sanitize()
}

// detectEnv checks NODE_ENV as a fallback for the deployment tier. The
// storefront's frontend tooling sets NODE_ENV; honoring it keeps local and CI
// behavior consistent with the rest of the platform.
func (c *AppConfig) detectEnv() {
	if c.Env != "" {
		return
	}
	if nodeEnv := strings.ToLower(os.Getenv("NODE_ENV")); nodeEnv != "" {
		c.Env = nodeEnv
	} else {
		c.Env = "development"
	}
}
