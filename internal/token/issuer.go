package token

// Package token issues and decodes the signed session tokens handed to
// browsers. A token is self-contained: validating one is a signature and
// expiry check only, never a store lookup.

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
)

// sessionClaims is the wire shape of a session token. Exactly the subject id
// and role are carried; other identity fields would only go stale.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role domainauth.Role `json:"role"`
}

// Issuer signs session tokens with an HMAC secret and a fixed lifetime.
// There is no sliding extension: renewal happens only through a fresh sign-in.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// IssuerOptions groups parameters for NewIssuer.
type IssuerOptions struct {
	Secret   string
	Lifetime time.Duration // default 30 days when zero
	Now      func() time.Time
}

// NewIssuer constructs an Issuer. Secret must be non-empty.
func NewIssuer(opts IssuerOptions) (*Issuer, error) {
	if opts.Secret == "" {
		return nil, errors.New("token issuer: signing secret is required")
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = 30 * 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(opts.Secret), lifetime: lifetime, now: now}, nil
}

// Issue encodes the identity's id and role into a signed token and returns it
// with its absolute expiry.
func (i *Issuer) Issue(identity *domainauth.Identity) (string, time.Time, error) {
	if identity == nil || identity.ID == "" {
		return "", time.Time{}, errors.New("identity with id is required")
	}
	now := i.now().UTC()
	expiresAt := now.Add(i.lifetime)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: identity.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature and expiry and returns the embedded claims.
// A tampered or expired token always fails closed: auth.ErrTokenExpired for a
// valid-but-stale token, auth.ErrTokenInvalid for everything else.
func (i *Issuer) Decode(tokenString string) (domainauth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &sessionClaims{},
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domainauth.Claims{}, domainauth.ErrTokenExpired
		}
		return domainauth.Claims{}, domainauth.ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return domainauth.Claims{}, domainauth.ErrTokenInvalid
	}

	out := domainauth.Claims{
		SubjectID: claims.Subject,
		Role:      claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
