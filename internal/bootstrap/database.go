package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brightmarket/identity-api/config"
	"github.com/brightmarket/identity-api/internal/adapters/postgres"
	"github.com/brightmarket/identity-api/internal/migrate"
)

// NewStoreConnector builds the lazy identity-store connector. No connection
// is dialed here; the first store-touching operation establishes it.
func NewStoreConnector(cfg config.DBConfig, logger *slog.Logger) *postgres.Connector {
	return postgres.NewConnector(cfg, logger)
}

// RunMigrations connects the store and applies embedded migrations. Startup
// is the one place a connection failure is a hard error rather than a
// degradable one.
func RunMigrations(ctx context.Context, connector *postgres.Connector, logger *slog.Logger) error {
	db, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database migrations applied")
	return nil
}
