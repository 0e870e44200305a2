package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/brightmarket/identity-api/config"
	"github.com/brightmarket/identity-api/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	connector := bootstrap.NewStoreConnector(cfg.Postgres, logger)
	defer func() {
		if cerr := connector.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	// Run migrations if enabled. This is the only startup step that dials
	// the store eagerly; everything else connects lazily on first use.
	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, connector, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	auth, err := bootstrap.BuildAuthOrchestrator(ctx, bootstrap.AuthDeps{
		Config:    &cfg,
		Connector: connector,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	server := bootstrap.StartHTTPServer(&bootstrap.HTTPServerConfig{
		Config:    &cfg,
		Auth:      auth,
		Connector: connector,
		Logger:    logger,
	})

	return bootstrap.WaitForShutdown(ctx, server, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting identity service",
		"env", cfg.Env,
		"addr", cfg.HTTP.Addr,
		"db_host", cfg.Postgres.Host,
		"db_port", cfg.Postgres.Port,
		"db_name", cfg.Postgres.Name,
		"federated_login", cfg.Auth.Google.Configured())
}
