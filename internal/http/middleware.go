package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
// Nothing in this subsystem may crash the serving process.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleConfig groups dependencies for RequireRole.
type RequireRoleConfig struct {
	Handlers *AuthHandlers
	Role     domainauth.Role
}

// RequireRole returns a middleware gating requests on the decoded session
// role. Validation is a token decode only; no store lookup per request.
// Browser requests without a valid session are redirected to the sign-in
// page through the guard; API requests get 401/403 JSON.
func RequireRole(cfg RequireRoleConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := cfg.Handlers
			claims, ok := claimsFromRequest(r, h)
			if !ok {
				if IsBrowserRequest(r) {
					redirectToLogin(w, r, h.Guard)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			if !claims.Role.AtLeast(cfg.Role) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			ctx := SetClaimsInContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth returns a middleware that decodes the session token when
// present and adds the claims to the request context. Unauthenticated
// requests continue untouched; no path outside the admin gate requires a
// session.
func OptionalAuth(h *AuthHandlers) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := claimsFromRequest(r, h); ok {
				r = r.WithContext(SetClaimsInContext(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// claimsFromRequest decodes the session cookie, if any. Expired and tampered
// tokens are treated the same as no session.
func claimsFromRequest(r *http.Request, h *AuthHandlers) (domainauth.Claims, bool) {
	cookie, err := r.Cookie(h.SessionCookieName())
	if err != nil {
		return domainauth.Claims{}, false
	}
	claims, err := h.Svc.Authenticate(cookie.Value)
	if err != nil {
		return domainauth.Claims{}, false
	}
	return claims, true
}

// IsBrowserRequest reports whether the request comes from an interactive
// browser rather than an API client.
func IsBrowserRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// redirectToLogin sends the browser to the sign-in page with the current URL
// as the post-login destination, re-validated by the guard.
func redirectToLogin(w http.ResponseWriter, r *http.Request, guard RedirectGuard) {
	current := r.URL.Path
	if r.URL.RawQuery != "" {
		current += "?" + r.URL.RawQuery
	}
	target := SignInPath + "?" + redirectURIParam + "=" + url.QueryEscape(current)
	http.Redirect(w, r, guard.Validate(target), http.StatusSeeOther)
}
