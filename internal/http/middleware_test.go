package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
)

func adminClaims() domainauth.Claims {
	return domainauth.Claims{SubjectID: "admin-1", Role: domainauth.RoleAdmin}
}

func gatedHandler(svc AuthServiceInterface, role domainauth.Role) (http.Handler, *bool) {
	reached := false
	h := testHandlers(svc)
	gate := RequireRole(RequireRoleConfig{Handlers: h, Role: role})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		claims, ok := GetClaimsFromContext(r.Context())
		if ok {
			w.Header().Set("X-Subject", claims.SubjectID)
		}
		w.WriteHeader(http.StatusOK)
	})
	return gate(next), &reached
}

func TestRequireRole_NoSessionAPI(t *testing.T) {
	handler, reached := gatedHandler(&fakeAuthService{}, domainauth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestRequireRole_NoSessionBrowserRedirects(t *testing.T) {
	handler, reached := gatedHandler(&fakeAuthService{}, domainauth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings?tab=roles", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, *reached)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, SignInPath, loc.Path)
	assert.Equal(t, "/admin/settings?tab=roles", loc.Query().Get("redirect_uri"))
}

func TestRequireRole_InsufficientRole(t *testing.T) {
	svc := &fakeAuthService{
		AuthenticateFunc: func(string) (domainauth.Claims, error) {
			return domainauth.Claims{SubjectID: "u-1", Role: domainauth.RoleUser}, nil
		},
	}
	handler, reached := gatedHandler(svc, domainauth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "user-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *reached)
}

func TestRequireRole_AdminPasses(t *testing.T) {
	svc := &fakeAuthService{
		AuthenticateFunc: func(string) (domainauth.Claims, error) { return adminClaims(), nil },
	}
	handler, reached := gatedHandler(svc, domainauth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "admin-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
	assert.Equal(t, "admin-1", rec.Header().Get("X-Subject"))
}

func TestRequireRole_SuperAdminSatisfiesAdminGate(t *testing.T) {
	svc := &fakeAuthService{
		AuthenticateFunc: func(string) (domainauth.Claims, error) {
			return domainauth.Claims{SubjectID: "root-1", Role: domainauth.RoleSuperAdmin}, nil
		},
	}
	handler, _ := gatedHandler(svc, domainauth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "root-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_ExpiredTokenTreatedAsNoSession(t *testing.T) {
	svc := &fakeAuthService{
		AuthenticateFunc: func(string) (domainauth.Claims, error) {
			return domainauth.Claims{}, domainauth.ErrTokenExpired
		},
	}
	handler, reached := gatedHandler(svc, domainauth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "stale-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestOptionalAuth_PassesThroughWithoutSession(t *testing.T) {
	h := testHandlers(&fakeAuthService{})
	var hadClaims bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadClaims = GetClaimsFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	OptionalAuth(h)(next).ServeHTTP(rec, req)

	assert.False(t, hadClaims)
}

func TestOptionalAuth_AttachesClaims(t *testing.T) {
	svc := &fakeAuthService{
		AuthenticateFunc: func(string) (domainauth.Claims, error) { return adminClaims(), nil },
	}
	h := testHandlers(svc)
	var got domainauth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetClaimsFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "admin-token"})
	rec := httptest.NewRecorder()
	OptionalAuth(h)(next).ServeHTTP(rec, req)

	assert.Equal(t, "admin-1", got.SubjectID)
}

func TestRecover_PanicReturns500(t *testing.T) {
	logger := discardLogger()
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Recover(logger)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogging_CapturesStatus(t *testing.T) {
	logger := discardLogger()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Logging(logger)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
