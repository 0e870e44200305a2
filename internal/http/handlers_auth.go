package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
	"github.com/brightmarket/identity-api/internal/service"
)

// Session cookie names per deployment tier. The secure-prefixed name is only
// accepted by browsers over HTTPS, which is exactly the production guarantee.
const (
	sessionCookieProd = "__Secure-session"
	sessionCookieDev  = "session"
)

// AuthServiceInterface defines the interface for auth orchestration operations.
type AuthServiceInterface interface {
	SignInWithCredentials(ctx context.Context, username, password string) (*service.SignInResult, error)
	BeginFederatedLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteFederatedLogin(ctx context.Context, in service.CompleteLoginInput) (*service.SignInResult, error)
	Authenticate(token string) (domainauth.Claims, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Guard        RedirectGuard
	CookieDomain string
	Production   bool
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// SessionCookieName returns the cookie name for the deployment tier.
func (h *AuthHandlers) SessionCookieName() string {
	if h.Production {
		return sessionCookieProd
	}
	return sessionCookieDev
}

// credentialsLoginRequest is the JSON body of a credentials sign-in.
type credentialsLoginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// CredentialsLogin handles username/password sign-in.
// POST /auth/login.
func (h *AuthHandlers) CredentialsLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.SignInWithCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeSignInError(w, r, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    result.Identity.ID,
			"email": result.Identity.Email,
			"name":  result.Identity.Name,
			"role":  result.Identity.Role,
		},
		"expires_at":  result.ExpiresAt,
		"redirect_to": h.Guard.Validate(req.RedirectURI),
	})
}

// writeSignInError collapses sign-in failures to coarse, non-enumerable
// outcomes. Detail stays in the server log.
func (h *AuthHandlers) writeSignInError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_credentials",
			Err:     errors.New("sign-in failed"),
		})
	case errors.Is(err, domainauth.ErrStoreUnavailable):
		h.logger().ErrorContext(r.Context(), "sign-in aborted: store unavailable", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "service_unavailable",
			Err:     errors.New("sign-in temporarily unavailable"),
		})
	default:
		h.logger().ErrorContext(r.Context(), "sign-in failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("sign-in failed"),
		})
	}
}

// FederatedLogin handles the federated login initiation endpoint.
// GET /auth/federated/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	redirectURI := h.Guard.Validate(r.URL.Query().Get(redirectURIParam))

	result, err := h.Svc.BeginFederatedLogin(r.Context(), redirectURI)
	if err != nil {
		if errors.Is(err, service.ErrFederatedDisabled) {
			WriteError(w, ErrorParams{
				Code:    http.StatusNotFound,
				ErrCode: "federated_disabled",
				Err:     errors.New("federated login is not configured"),
			})
			return
		}
		h.logger().ErrorContext(r.Context(), "begin federated login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("sign-in failed"),
		})
		return
	}

	// Store state, nonce, and the original redirect URI in secure cookies
	h.setOAuthCookies(w, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the federated provider callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		h.redirectToError(w, r)
		return
	}

	// Verify state and read nonce from the flow cookies.
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		h.redirectToError(w, r)
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		h.redirectToError(w, r)
		return
	}

	result, err := h.Svc.CompleteFederatedLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "federated login completion failed", "error", err)
		h.redirectToError(w, r)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)
	h.clearCookie(w, "oauth_state")
	h.clearCookie(w, "oauth_nonce")

	// Redirect to the original destination, re-validated.
	redirectURI := "/"
	if c, cookieErr := r.Cookie("post_login_redirect"); cookieErr == nil {
		redirectURI = c.Value
	}
	h.clearCookie(w, "post_login_redirect")
	http.Redirect(w, r, h.Guard.Validate(redirectURI), http.StatusFound)
}

// redirectToError sends the browser to the auth error page through the guard,
// which carries and bounds the loop counter.
func (h *AuthHandlers) redirectToError(w http.ResponseWriter, r *http.Request) {
	target := AuthErrorPath
	if attempts := r.URL.Query().Get(loopCounterParam); attempts != "" {
		target += "?" + loopCounterParam + "=" + url.QueryEscape(attempts)
	}
	http.Redirect(w, r, h.Guard.Validate(target), http.StatusFound)
}

// Logout handles the logout endpoint. Sessions are self-contained tokens, so
// sign-out is purely client-side: drop the cookie.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, h.SessionCookieName())

	redirectURI := r.FormValue(redirectURIParam)
	if redirectURI == "" {
		redirectURI = r.URL.Query().Get(redirectURIParam)
	}
	target := h.Guard.Validate(redirectURI)

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": target,
		})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Status returns the current authentication status. Token decode only; the
// store is never consulted on this path.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.SessionCookieName())
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	claims, err := h.Svc.Authenticate(cookie.Value)
	if err != nil {
		// Expired or tampered token: clear the cookie and force re-auth.
		h.clearCookie(w, h.SessionCookieName())
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":   claims.SubjectID,
			"role": claims.Role,
		},
		"expires_at": claims.ExpiresAt,
	})
}

// wantsJSON reports whether the client expects a JSON payload instead of a
// browser redirect.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting
// cookies to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.Production,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// oauthCookieParams groups values needed to set federated flow cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores state, nonce, and the post-login redirect in secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, p oauthCookieParams) {
	for name, value := range map[string]string{
		"oauth_state":         p.State,
		"oauth_nonce":         p.Nonce,
		"post_login_redirect": p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   h.Production,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   600, // 10 minutes
		})
	}
}

// setSessionCookie writes the session cookie with Max-Age matching the token lifetime.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.SessionCookieName(),
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}
