package httpx

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guardBase = "https://shop.example.com"

func TestRedirectGuard_EmptyAndInvalidTargets(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	assert.Equal(t, guardBase, g.Validate(""))
	assert.Equal(t, guardBase, g.Validate("://bad"))
}

func TestRedirectGuard_ForeignOriginRejected(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	assert.Equal(t, guardBase, g.Validate("https://evil.example/steal"))
	assert.Equal(t, guardBase, g.Validate("http://shop.example.com/downgraded"))
	assert.Equal(t, guardBase, g.Validate("https://shop.example.com.evil.example/"))
	// A foreign-origin error URL must not even reach the loop counter.
	assert.Equal(t, guardBase, g.Validate("https://evil.example"+AuthErrorPath))
	// Schemeless but not root-relative.
	assert.Equal(t, guardBase, g.Validate("evil.example/phish"))
}

func TestRedirectGuard_SameOriginAllowed(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	assert.Equal(t, guardBase+"/account", g.Validate(guardBase+"/account"))
	assert.Equal(t, guardBase+"/account?tab=orders", g.Validate("/account?tab=orders"))
}

func TestRedirectGuard_LoopCounterIncrements(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	got := g.Validate(guardBase + AuthErrorPath)
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, AuthErrorPath, u.Path)
	assert.Equal(t, "1", u.Query().Get("attempts"))

	got = g.Validate(got)
	u, err = url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "2", u.Query().Get("attempts"))
}

func TestRedirectGuard_LoopCounterTerminates(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	// Walk the chain one hop at a time, as a browser would.
	target := guardBase + AuthErrorPath
	for i := 0; i < 10; i++ {
		target = g.Validate(target)
		if target == guardBase {
			break
		}
	}
	assert.Equal(t, guardBase, target, "chain must collapse to base after a bounded number of hops")

	// At the threshold the counter stops incrementing.
	atLimit := guardBase + AuthErrorPath + "?attempts=" + strconv.Itoa(maxRedirectHops)
	assert.Equal(t, guardBase, g.Validate(atLimit))
	beyond := guardBase + AuthErrorPath + "?attempts=99"
	assert.Equal(t, guardBase, g.Validate(beyond))
}

func TestRedirectGuard_LoopCounterPreservesOtherParams(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	got := g.Validate(guardBase + AuthErrorPath + "?error=AccessDenied")
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "AccessDenied", u.Query().Get("error"))
	assert.Equal(t, "1", u.Query().Get("attempts"))
}

func TestRedirectGuard_SignInCycleDetected(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	// Sign-in page whose own redirect target is the sign-in page again.
	cycle := guardBase + SignInPath + "?redirect_uri=" + url.QueryEscape(SignInPath)
	assert.Equal(t, guardBase, g.Validate(cycle))

	// Sign-in page pointing back at the error page.
	cycle = guardBase + SignInPath + "?redirect_uri=" + url.QueryEscape(AuthErrorPath)
	assert.Equal(t, guardBase, g.Validate(cycle))
}

func TestRedirectGuard_SignInWithRealTargetAllowed(t *testing.T) {
	g := NewRedirectGuard(guardBase)

	target := guardBase + SignInPath + "?redirect_uri=" + url.QueryEscape("/account")
	got := g.Validate(target)
	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, SignInPath, u.Path)
	assert.Equal(t, "/account", u.Query().Get("redirect_uri"))
}

func TestNewRedirectGuard_PanicsOnInvalidBase(t *testing.T) {
	assert.Panics(t, func() { NewRedirectGuard("not-a-url") })
	assert.Panics(t, func() { NewRedirectGuard("") })
}
