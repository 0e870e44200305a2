package postgres

// Package postgres provides the identity-store adapters backed by PostgreSQL
// through the pgx stdlib driver.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	// Import pgx driver for database/sql compatibility.
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/singleflight"

	"github.com/brightmarket/identity-api/config"
)

// OpenFunc establishes a live database handle. Split out so tests can count
// and fail connection attempts without a real server.
type OpenFunc func(ctx context.Context) (*sql.DB, error)

// Connector lazily establishes and caches a single store handle. The first
// caller opens the physical connection; concurrent callers await the same
// in-flight attempt instead of opening duplicates. A failed attempt is not
// memoized; every dependent operation decides for itself whether to retry,
// fall back, or abort.
type Connector struct {
	open   OpenFunc
	group  singleflight.Group
	logger *slog.Logger

	mu sync.RWMutex
	db *sql.DB
}

// NewConnector builds a Connector for the configured PostgreSQL store.
func NewConnector(cfg config.DBConfig, logger *slog.Logger) *Connector {
	return &Connector{
		open:   openFromConfig(cfg),
		logger: logger,
	}
}

// NewConnectorWithOpen builds a Connector around a custom open function.
// Used by tests and by environments that manage the pool themselves.
func NewConnectorWithOpen(open OpenFunc, logger *slog.Logger) *Connector {
	return &Connector{open: open, logger: logger}
}

func (c *Connector) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Connect returns the memoized store handle, establishing it on first use.
// Once a handle has been stored it is write-once-then-read; later callers
// never touch the singleflight path again.
func (c *Connector) Connect(ctx context.Context) (*sql.DB, error) {
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	v, err, _ := c.group.Do("connect", func() (any, error) {
		// Re-check under the flight: a previous winner may have stored the
		// handle between our read and this call.
		c.mu.RLock()
		existing := c.db
		c.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		opened, openErr := c.open(ctx)
		if openErr != nil {
			return nil, openErr
		}
		c.mu.Lock()
		c.db = opened
		c.mu.Unlock()
		return opened, nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect identity store: %w", err)
	}
	return v.(*sql.DB), nil
}

// Probe races a liveness command against the given timeout. It returns false
// rather than an error on failure or timeout so callers can choose degraded
// behavior instead of propagating a hard fault.
func (c *Connector) Probe(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := c.Connect(ctx)
	if err != nil {
		c.log().DebugContext(ctx, "store probe: connect failed", "error", err)
		return false
	}
	if pingErr := db.PingContext(ctx); pingErr != nil {
		c.log().DebugContext(ctx, "store probe: ping failed", "error", pingErr)
		return false
	}
	return true
}

// Close releases the cached handle, if any.
func (c *Connector) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}

// openFromConfig returns an OpenFunc that dials the configured database and
// verifies the connection before handing it out.
func openFromConfig(cfg config.DBConfig) OpenFunc {
	return func(ctx context.Context) (*sql.DB, error) {
		// Build DSN using url.URL to safely handle special characters in
		// credentials.
		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:   "/" + cfg.Name,
		}
		q := u.Query()
		q.Set("sslmode", cfg.SSLMode)
		u.RawQuery = q.Encode()

		db, err := sql.Open("pgx", u.String())
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		if pingErr := db.PingContext(pingCtx); pingErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", pingErr)
		}
		return db, nil
	}
}
