package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brightmarket/identity-api/config"
	"github.com/brightmarket/identity-api/internal/adapters/authroles"
	"github.com/brightmarket/identity-api/internal/adapters/google"
	"github.com/brightmarket/identity-api/internal/adapters/postgres"
	"github.com/brightmarket/identity-api/internal/ports"
	"github.com/brightmarket/identity-api/internal/service"
	"github.com/brightmarket/identity-api/internal/token"
)

// AuthDeps contains dependencies for building the auth orchestrator.
type AuthDeps struct {
	Config    *config.AppConfig
	Connector *postgres.Connector
	Logger    *slog.Logger
}

// BuildAuthOrchestrator wires the role resolver, user store, credential
// verifier, reconciler, token issuer, and (when configured) the Google
// federated provider into an AuthOrchestrator.
func BuildAuthOrchestrator(ctx context.Context, deps AuthDeps) (*service.AuthOrchestrator, error) {
	cfg := deps.Config
	production := cfg.IsProduction()

	roles := authroles.NewStaticResolver(cfg.Auth.SuperAdminEmails, cfg.Auth.AdminEmails)
	store := postgres.NewUserStore(deps.Connector)

	issuer, err := token.NewIssuer(token.IssuerOptions{
		Secret:   cfg.Auth.SigningSecret,
		Lifetime: cfg.Auth.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build token issuer: %w", err)
	}

	// The dev fallback account exists only outside production.
	var devAccount *service.DevAccount
	if !production {
		devAccount = &service.DevAccount{
			Username: cfg.Auth.DevAccount.Username,
			Password: cfg.Auth.DevAccount.Password,
			Email:    cfg.Auth.DevAccount.Email,
		}
	}

	verifier := service.NewCredentialVerifier(service.CredentialVerifierOptions{
		Store:      store,
		Roles:      roles,
		DevAccount: devAccount,
		Logger:     deps.Logger,
	})

	reconciler := service.NewIdentityReconciler(service.IdentityReconcilerOptions{
		Store:          store,
		Roles:          roles,
		Production:     production,
		ConnectTimeout: cfg.Postgres.ConnectTimeout,
		Logger:         deps.Logger,
	})

	provider, err := buildFederatedProvider(ctx, cfg, deps.Logger)
	if err != nil {
		return nil, err
	}

	return service.NewAuthOrchestrator(service.AuthOrchestratorOptions{
		Verifier:   verifier,
		Reconciler: reconciler,
		Provider:   provider,
		Tokens:     issuer,
		Logger:     deps.Logger,
	}), nil
}

// buildFederatedProvider returns the Google provider when fully configured,
// or nil (federated login disabled) otherwise.
//
//nolint:ireturn // returning the port keeps provider selection flexible.
func buildFederatedProvider(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (ports.FederatedProvider, error) {
	g := cfg.Auth.Google
	if !g.Configured() {
		if logger != nil {
			logger.Warn("federated login disabled: Google client not configured")
		}
		return nil, nil
	}

	provider, err := google.NewProvider(ctx, google.ProviderConfig{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("build google provider: %w", err)
	}
	return provider, nil
}
