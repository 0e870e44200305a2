package auth

// Package auth contains domain-level types for identity, roles, and session
// claims. It is pure and free of framework/adapter concerns.

import (
	"errors"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// roleRank orders roles by privilege for AtLeast comparisons.
func roleRank(r Role) int {
	switch r {
	case RoleSuperAdmin:
		return 2
	case RoleAdmin:
		return 1
	case RoleUser:
		return 0
	default:
		return -1
	}
}

// AtLeast reports whether the role carries at least the privilege of other.
// Unknown roles never satisfy any requirement.
func (r Role) AtLeast(other Role) bool {
	ur, or := roleRank(r), roleRank(other)
	return ur >= 0 && or >= 0 && ur >= or
}

// ProviderCredentials is the provider value for username/password sign-ins.
const ProviderCredentials = "credentials"

// FederatedProviderName returns the stored provider value for a federated
// identity provider, e.g. "federated-google".
func FederatedProviderName(name string) string {
	return "federated-" + name
}

// Identity represents a durable user record keyed by email.
// ID is opaque and stable once assigned; Role only changes through explicit
// administrative action after creation.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Image        string    `json:"image,omitempty"`
	Role         Role      `json:"role"`
	Provider     string    `json:"provider,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// Profile is the payload extracted from a federated provider callback.
// Adapters map provider-specific claims into this shape.
type Profile struct {
	Email             string
	Name              string
	Image             string
	Provider          string // e.g. "federated-google"
	ProviderAccountID string
}

// Claims is the decoded content of a session token. It carries exactly the
// subject id and role; no other identity fields are embedded so that stale
// data does not outlive a sign-in.
type Claims struct {
	SubjectID string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Sentinel errors for the authentication subsystem. Handlers map these to
// coarse, non-enumerable responses; detail stays in server-side logs.
var (
	// ErrInvalidCredentials covers both unknown user and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStoreUnavailable means the persistent store could not be reached in
	// time. Recoverable outside production via a degraded identity.
	ErrStoreUnavailable = errors.New("identity store unavailable")
	// ErrIdentityNotFound is returned by stores when no record matches.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrEmailExists is returned by stores on a duplicate-email insert.
	ErrEmailExists = errors.New("email already exists")
	// ErrTokenExpired means the session token is past its expiry.
	ErrTokenExpired = errors.New("session token expired")
	// ErrTokenInvalid means the session token is malformed or tampered.
	ErrTokenInvalid = errors.New("session token invalid")
)
