package httpx

// Package httpx provides the HTTP surface of the identity service: the auth
// handlers, the authorization gate for administrative paths, and the shared
// middleware stack.

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
)

// StoreProber exposes the store liveness probe used by the health endpoint.
type StoreProber interface {
	Probe(ctx context.Context, timeout time.Duration) bool
}

// RouterServices groups the dependencies needed to build the router.
type RouterServices struct {
	Auth         AuthServiceInterface
	Guard        RedirectGuard
	Prober       StoreProber
	ProbeTimeout time.Duration

	// AdminHandler is the administrative surface mounted behind the role
	// gate. The storefront's own admin UI plugs in here; the default is a
	// minimal status endpoint.
	AdminHandler http.Handler

	CookieDomain string
	Production   bool
	Logger       *slog.Logger
}

// NewRouter builds the HTTP routes for the identity service.
func NewRouter(services RouterServices) *http.ServeMux {
	handlers := &AuthHandlers{
		Svc:          services.Auth,
		Guard:        services.Guard,
		CookieDomain: services.CookieDomain,
		Production:   services.Production,
		Logger:       services.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", handlers.CredentialsLogin)
	mux.HandleFunc("GET /auth/federated/login", handlers.FederatedLogin)
	mux.HandleFunc("GET /auth/callback", handlers.Callback)
	mux.HandleFunc("POST /auth/logout", handlers.Logout)
	mux.HandleFunc("GET /auth/status", handlers.Status)

	mux.HandleFunc("GET /healthz", healthHandler(services.Prober, services.ProbeTimeout))

	// Authorization gate: administrative paths require an admin or
	// super-admin session; every other path is served regardless of
	// session presence.
	admin := services.AdminHandler
	if admin == nil {
		admin = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := GetClaimsFromContext(r.Context())
			WriteJSON(w, http.StatusOK, map[string]any{
				"status": "ok",
				"role":   claims.Role,
			})
		})
	}
	gate := RequireRole(RequireRoleConfig{Handlers: handlers, Role: domainauth.RoleAdmin})
	mux.Handle("/admin/", gate(admin))

	return mux
}

// healthHandler probes the store with a short bounded timeout. A store miss
// degrades the report, it does not fail the endpoint.
func healthHandler(prober StoreProber, timeout time.Duration) http.HandlerFunc {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		storeUp := false
		if prober != nil {
			storeUp = prober.Probe(r.Context(), timeout)
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"store":  storeUp,
		})
	}
}
