package config

import (
	"errors"
	"time"
)

// devSigningSecret is substituted when no signing secret is configured outside
// production. Never valid in production; Validate rejects that combination.
const devSigningSecret = "brightmarket-dev-session-secret"

// GoogleConfig contains the Google OAuth client configuration.
type GoogleConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL" envDefault:"http://localhost:8080/auth/callback"`
}

// Configured reports whether the Google provider can be enabled.
func (g GoogleConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// DevAccountConfig is the single fixed fallback development account accepted
// by credential sign-in when the store has no matching record. Only honored
// outside production.
type DevAccountConfig struct {
	Username string `env:"USERNAME" envDefault:"admin"`
	Password string `env:"PASSWORD" envDefault:"admin"`
	Email    string `env:"EMAIL"    envDefault:"admin@brightmarket.local"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// SigningSecret signs session tokens. Required in production; a fixed
	// development fallback is substituted otherwise.
	SigningSecret string `env:"SESSION_SECRET"`

	// SessionTTL is the fixed session token lifetime.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// SuperAdminEmails and AdminEmails are the static role allow-lists,
	// matched case-sensitively against the identity email.
	SuperAdminEmails []string `env:"SUPER_ADMIN_EMAILS" envSeparator:";"`
	AdminEmails      []string `env:"ADMIN_EMAILS"       envSeparator:";"`

	// Google OAuth client (federated login).
	Google GoogleConfig `envPrefix:"GOOGLE_"`

	// DevAccount configuration (non-production credential fallback).
	DevAccount DevAccountConfig `envPrefix:"DEV_LOGIN_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize(production bool) {
	if a.SigningSecret == "" && !production {
		a.SigningSecret = devSigningSecret
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 720 * time.Hour
	}
}

// Validate rejects configurations that must not reach production.
func (a *AuthConfig) Validate(production bool) error {
	if production && (a.SigningSecret == "" || a.SigningSecret == devSigningSecret) {
		return errors.New("SESSION_SECRET is required in production")
	}
	return nil
}
