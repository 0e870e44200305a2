package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
	"github.com/brightmarket/identity-api/internal/ports"
)

// dummyHash is compared against when no record matches, so the unknown-user
// and wrong-password paths cost roughly the same. Hash of an unguessable
// random value; nothing ever verifies against it.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy bcrypt hash: %v", err))
	}
	return h
}()

// DevAccount is the single fixed fallback development account. Configured
// only outside production; a nil DevAccount disables the path entirely.
type DevAccount struct {
	Username string
	Password string
	Email    string
}

// CredentialVerifierOptions groups dependencies for CredentialVerifier.
type CredentialVerifierOptions struct {
	Store      ports.UserStore
	Roles      ports.RoleResolver
	DevAccount *DevAccount
	Logger     *slog.Logger
}

// CredentialVerifier checks a username/password pair against the stored
// one-way hash. Failures collapse to auth.ErrInvalidCredentials without
// distinguishing "no such user" from "wrong password".
type CredentialVerifier struct {
	store      ports.UserStore
	roles      ports.RoleResolver
	devAccount *DevAccount
	logger     *slog.Logger
}

// NewCredentialVerifier constructs a CredentialVerifier.
func NewCredentialVerifier(opts CredentialVerifierOptions) *CredentialVerifier {
	return &CredentialVerifier{
		store:      opts.Store,
		roles:      opts.Roles,
		devAccount: opts.DevAccount,
		logger:     opts.Logger,
	}
}

func (v *CredentialVerifier) log() *slog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return slog.Default()
}

// Verify looks up a record matching the username as email or display name and
// compares the password against its hash. On success it opportunistically
// refreshes provider and lastLoginAt; that write never affects the
// authentication decision.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*domainauth.Identity, error) {
	ident, err := v.store.FindByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, domainauth.ErrIdentityNotFound) {
			return v.verifyUnknownUser(ctx, username, password)
		}
		v.log().ErrorContext(ctx, "credential lookup failed", "error", err)
		return nil, domainauth.ErrStoreUnavailable
	}

	if ident.PasswordHash == "" {
		// Federated-only account; equalize timing with a dummy compare.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domainauth.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)) != nil {
		return nil, domainauth.ErrInvalidCredentials
	}

	v.touch(ctx, ident)
	return ident, nil
}

// verifyUnknownUser handles the no-record path: outside production the fixed
// dev account is accepted; everything else is an invalid-credentials failure
// after a timing-equalizing dummy compare.
func (v *CredentialVerifier) verifyUnknownUser(ctx context.Context, username, password string) (*domainauth.Identity, error) {
	if v.devAccount != nil && username == v.devAccount.Username && password == v.devAccount.Password {
		now := time.Now().UTC()
		v.log().WarnContext(ctx, "dev fallback account sign-in", "username", username)
		return &domainauth.Identity{
			ID:          "dev-" + uuid.NewString(),
			Email:       v.devAccount.Email,
			Name:        v.devAccount.Username,
			Role:        v.roles.Resolve(v.devAccount.Email),
			Provider:    domainauth.ProviderCredentials,
			CreatedAt:   now,
			UpdatedAt:   now,
			LastLoginAt: now,
		}, nil
	}
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return nil, domainauth.ErrInvalidCredentials
}

// touch refreshes provider (only if previously unset) and lastLoginAt. One
// store write per successful verification; a failure here is logged and
// swallowed so it can never block the sign-in.
func (v *CredentialVerifier) touch(ctx context.Context, ident *domainauth.Identity) {
	now := time.Now().UTC()
	upd := ports.UserUpdate{LastLoginAt: &now, UpdatedAt: now}
	if ident.Provider == "" {
		provider := domainauth.ProviderCredentials
		upd.Provider = &provider
		ident.Provider = provider
	}
	if err := v.store.Update(ctx, ident.ID, upd); err != nil {
		v.log().WarnContext(ctx, "post-verify identity touch failed", "id", ident.ID, "error", err)
		return
	}
	ident.LastLoginAt = now
	ident.UpdatedAt = now
}
