package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
)

// UserUpdate describes the fields a sign-in may touch on an existing identity.
// Nil pointer fields are left unchanged. Role and ID are deliberately absent:
// neither is writable through login traffic.
type UserUpdate struct {
	Provider    *string
	LastLoginAt *time.Time
	UpdatedAt   time.Time
}

// UserStore is the narrow surface this subsystem touches on the persistent
// store: find, insert, update by key, plus a liveness ping.
type UserStore interface {
	// FindByEmail returns the identity stored under email, or
	// auth.ErrIdentityNotFound.
	FindByEmail(ctx context.Context, email string) (*domainauth.Identity, error)

	// FindByLogin matches either the email or the display name, for
	// credential sign-ins. Returns auth.ErrIdentityNotFound when no row matches.
	FindByLogin(ctx context.Context, login string) (*domainauth.Identity, error)

	// Insert stores a new identity. Returns auth.ErrEmailExists when the
	// email is already taken (concurrent first login).
	Insert(ctx context.Context, identity *domainauth.Identity) (*domainauth.Identity, error)

	// Update applies the given partial update to the identity with id.
	Update(ctx context.Context, id string, upd UserUpdate) error

	// Ping issues a lightweight liveness command against the store.
	Ping(ctx context.Context) error
}

// RoleResolver maps an email address to its authorization role.
type RoleResolver interface {
	Resolve(email string) domainauth.Role
}

// BeginInput carries inputs for initiating a federated auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// FederatedProvider initiates and completes a federated login against an IdP.
type FederatedProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an
	// opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and
	// returns the profile fields this subsystem consumes.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Profile, error)
}

// TokenIssuer encodes identity claims into a signed session token and decodes
// them back. Decode never consults the store.
type TokenIssuer interface {
	Issue(identity *domainauth.Identity) (token string, expiresAt time.Time, err error)
	Decode(token string) (domainauth.Claims, error)
}
