package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
	"github.com/brightmarket/identity-api/internal/ports"
)

// defaultConnectTimeout caps the store-connectivity race on the sign-in
// critical path.
const defaultConnectTimeout = 10 * time.Second

// IdentityReconcilerOptions groups dependencies for IdentityReconciler.
type IdentityReconcilerOptions struct {
	Store          ports.UserStore
	Roles          ports.RoleResolver
	Production     bool
	ConnectTimeout time.Duration // default 10s when zero
	Logger         *slog.Logger
}

// IdentityReconciler upserts an authenticated profile into the identity
// store. All degraded-mode branching lives here: when the store cannot be
// reached, non-production deployments proceed with a synthetic in-memory
// identity while production fails closed with auth.ErrStoreUnavailable.
type IdentityReconciler struct {
	store          ports.UserStore
	roles          ports.RoleResolver
	production     bool
	connectTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewIdentityReconciler constructs an IdentityReconciler.
func NewIdentityReconciler(opts IdentityReconcilerOptions) *IdentityReconciler {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return &IdentityReconciler{
		store:          opts.Store,
		roles:          opts.Roles,
		production:     opts.Production,
		connectTimeout: timeout,
		logger:         opts.Logger,
		now:            time.Now,
	}
}

func (r *IdentityReconciler) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Reconcile merges a freshly authenticated profile into the store.
//
// First login inserts a new identity whose role is resolved from the
// allow-lists; that is the only moment the role is computed. Subsequent
// logins refresh lastLoginAt/updatedAt and set provider if it was absent,
// but preserve id and role, so an administrative role change is never
// clobbered by login traffic.
func (r *IdentityReconciler) Reconcile(ctx context.Context, profile domainauth.Profile) (*domainauth.Identity, error) {
	if profile.Email == "" {
		return nil, errors.New("profile email is required")
	}

	// Race store connectivity against the fixed timeout. A timer win is a
	// recoverable failure, not a fault.
	pingCtx, cancel := context.WithTimeout(ctx, r.connectTimeout)
	err := r.store.Ping(pingCtx)
	cancel()
	if err != nil {
		return r.degrade(ctx, profile, err)
	}

	ident, err := r.store.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		return r.refresh(ctx, ident, profile)
	case errors.Is(err, domainauth.ErrIdentityNotFound):
		return r.create(ctx, profile)
	default:
		return r.degrade(ctx, profile, err)
	}
}

func (r *IdentityReconciler) create(ctx context.Context, profile domainauth.Profile) (*domainauth.Identity, error) {
	now := r.now().UTC()
	ident := &domainauth.Identity{
		ID:          uuid.NewString(),
		Email:       profile.Email,
		Name:        profile.Name,
		Image:       profile.Image,
		Role:        r.roles.Resolve(profile.Email),
		Provider:    profile.Provider,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}

	inserted, err := r.store.Insert(ctx, ident)
	if errors.Is(err, domainauth.ErrEmailExists) {
		// Benign race: a concurrent first login won the insert. Adopt the
		// winner's row instead of failing the sign-in.
		existing, findErr := r.store.FindByEmail(ctx, profile.Email)
		if findErr != nil {
			return r.degrade(ctx, profile, findErr)
		}
		return r.refresh(ctx, existing, profile)
	}
	if err != nil {
		return r.degrade(ctx, profile, err)
	}
	return inserted, nil
}

func (r *IdentityReconciler) refresh(ctx context.Context, ident *domainauth.Identity, profile domainauth.Profile) (*domainauth.Identity, error) {
	now := r.now().UTC()
	upd := ports.UserUpdate{LastLoginAt: &now, UpdatedAt: now}
	if ident.Provider == "" && profile.Provider != "" {
		upd.Provider = &profile.Provider
		ident.Provider = profile.Provider
	}

	if err := r.store.Update(ctx, ident.ID, upd); err != nil {
		return r.degrade(ctx, profile, err)
	}
	ident.LastLoginAt = now
	ident.UpdatedAt = now
	return ident, nil
}

// degrade is the shared failure branch: outside production sign-in proceeds
// with a synthetic identity so a flaky store never locks developers out; in
// production it aborts with auth.ErrStoreUnavailable.
func (r *IdentityReconciler) degrade(ctx context.Context, profile domainauth.Profile, cause error) (*domainauth.Identity, error) {
	if r.production {
		r.log().ErrorContext(ctx, "identity store unavailable, aborting sign-in", "error", cause)
		return nil, domainauth.ErrStoreUnavailable
	}

	r.log().WarnContext(ctx, "identity store unavailable, using degraded identity", "error", cause)
	now := r.now().UTC()
	return &domainauth.Identity{
		ID:          "temp-" + uuid.NewString(),
		Email:       profile.Email,
		Name:        profile.Name,
		Image:       profile.Image,
		Role:        r.roles.Resolve(profile.Email),
		Provider:    profile.Provider,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}, nil
}
