package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
	"github.com/brightmarket/identity-api/internal/ports"
)

// AuthOrchestratorOptions groups dependencies for AuthOrchestrator.
type AuthOrchestratorOptions struct {
	Verifier   *CredentialVerifier
	Reconciler *IdentityReconciler
	Provider   ports.FederatedProvider // nil disables federated login
	Tokens     ports.TokenIssuer
	Logger     *slog.Logger
}

// AuthOrchestrator sequences a sign-in attempt end to end: provider-specific
// verification or profile extraction, identity reconciliation, and token
// issuance. A hard failure at any stage aborts the attempt; no partial
// session is ever issued.
type AuthOrchestrator struct {
	verifier   *CredentialVerifier
	reconciler *IdentityReconciler
	provider   ports.FederatedProvider
	tokens     ports.TokenIssuer
	logger     *slog.Logger
}

// ErrFederatedDisabled is returned when no federated provider is configured.
var ErrFederatedDisabled = errors.New("federated login is not configured")

// NewAuthOrchestrator constructs an AuthOrchestrator.
func NewAuthOrchestrator(opts AuthOrchestratorOptions) *AuthOrchestrator {
	return &AuthOrchestrator{
		verifier:   opts.Verifier,
		reconciler: opts.Reconciler,
		provider:   opts.Provider,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
	}
}

func (s *AuthOrchestrator) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// SignInResult carries the outcome of a successful sign-in.
type SignInResult struct {
	Identity  *domainauth.Identity
	Token     string
	ExpiresAt time.Time
}

// SignInWithCredentials authenticates a username/password pair and issues a
// session token. The verifier already touches the store record, so no
// separate reconciliation pass runs on this path.
func (s *AuthOrchestrator) SignInWithCredentials(ctx context.Context, username, password string) (*SignInResult, error) {
	if username == "" || password == "" {
		return nil, domainauth.ErrInvalidCredentials
	}

	ident, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, ident)
}

// BeginLoginResult contains the result of beginning a federated login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginFederatedLogin initiates the federated flow and returns the provider
// auth URL with state and nonce.
func (s *AuthOrchestrator) BeginFederatedLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, ErrFederatedDisabled
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a federated login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteFederatedLogin exchanges the callback payload for a profile,
// reconciles it into the identity store, and issues a session token.
func (s *AuthOrchestrator) CompleteFederatedLogin(ctx context.Context, in CompleteLoginInput) (*SignInResult, error) {
	if s.provider == nil {
		return nil, ErrFederatedDisabled
	}
	if in.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if in.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if in.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	profile, err := s.provider.Exchange(ctx, ports.ExchangeInput(in))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	ident, err := s.reconciler.Reconcile(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, ident)
}

// Authenticate decodes a session token. Signature and expiry check only;
// the fast path never consults the store.
func (s *AuthOrchestrator) Authenticate(token string) (domainauth.Claims, error) {
	if token == "" {
		return domainauth.Claims{}, domainauth.ErrTokenInvalid
	}
	return s.tokens.Decode(token)
}

func (s *AuthOrchestrator) issue(ctx context.Context, ident *domainauth.Identity) (*SignInResult, error) {
	signed, expiresAt, err := s.tokens.Issue(ident)
	if err != nil {
		s.log().ErrorContext(ctx, "session token issuance failed", "error", err)
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &SignInResult{Identity: ident, Token: signed, ExpiresAt: expiresAt}, nil
}
