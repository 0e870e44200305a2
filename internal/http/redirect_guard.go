package httpx

import (
	"net/url"
	"strconv"
)

// Default paths and threshold for RedirectGuard. The attempts counter rides
// in the URL itself; nothing about a redirect chain is persisted.
const (
	SignInPath        = "/auth/login"
	AuthErrorPath     = "/auth/error"
	loopCounterParam  = "attempts"
	redirectURIParam  = "redirect_uri"
	maxRedirectHops   = 5
)

// RedirectGuard validates and rewrites requested post-auth redirect targets.
// Untrusted targets are never honored: a foreign-origin URL, a detected
// sign-in/error cycle, or an exhausted loop counter all collapse silently to
// the base URL. One call handles one hop of a redirect chain.
type RedirectGuard struct {
	base        *url.URL
	signInPath  string
	errorPath   string
	maxAttempts int
}

// NewRedirectGuard builds a guard for the given trusted base URL. Invalid
// base URLs are a programming error and panic at wiring time.
func NewRedirectGuard(baseURL string) RedirectGuard {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		panic("redirect guard: invalid base URL: " + baseURL)
	}
	return RedirectGuard{
		base:        base,
		signInPath:  SignInPath,
		errorPath:   AuthErrorPath,
		maxAttempts: maxRedirectHops,
	}
}

// Validate returns a safe destination for the requested redirect target.
func (g RedirectGuard) Validate(requested string) string {
	if requested == "" {
		return g.base.String()
	}
	u, err := url.Parse(requested)
	if err != nil {
		return g.base.String()
	}

	// Open-redirect defense first: only the exact base origin or a
	// root-relative path may proceed into the loop checks below.
	switch {
	case u.Scheme == "" && u.Host == "":
		if len(u.Path) > 0 && u.Path[0] != '/' {
			return g.base.String()
		}
	case u.Scheme == g.base.Scheme && u.Host == g.base.Host:
		// same origin, keep as-is
	default:
		return g.base.String()
	}
	resolved := g.base.ResolveReference(u)

	switch resolved.Path {
	case g.errorPath:
		return g.bumpLoopCounter(resolved)
	case g.signInPath:
		if g.callbackIsCycle(resolved) {
			return g.base.String()
		}
	}
	return resolved.String()
}

// bumpLoopCounter increments the attempts counter carried by the error page
// URL, terminating at the base URL once the threshold is reached.
func (g RedirectGuard) bumpLoopCounter(u *url.URL) string {
	q := u.Query()
	attempts, _ := strconv.Atoi(q.Get(loopCounterParam))
	if attempts >= g.maxAttempts {
		return g.base.String()
	}
	q.Set(loopCounterParam, strconv.Itoa(attempts+1))
	u.RawQuery = q.Encode()
	return u.String()
}

// callbackIsCycle reports whether a sign-in page's own redirect target points
// back at a sign-in or error page, a same-step cycle that needs no counter.
func (g RedirectGuard) callbackIsCycle(u *url.URL) bool {
	cb := u.Query().Get(redirectURIParam)
	if cb == "" {
		return false
	}
	cbURL, err := url.Parse(cb)
	if err != nil {
		return false
	}
	path := g.base.ResolveReference(cbURL).Path
	return path == g.signInPath || path == g.errorPath
}
