package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
	"github.com/brightmarket/identity-api/internal/ports"
)

// UserStore implements ports.UserStore against the users table. Every method
// obtains the shared handle through the Connector, so the first store-touching
// operation of the process pays the connection cost and the rest reuse it.
type UserStore struct {
	Connector *Connector
}

// NewUserStore creates a UserStore on top of the given connector.
func NewUserStore(connector *Connector) *UserStore {
	return &UserStore{Connector: connector}
}

const userColumns = `id, email, name, image, role, provider, password_hash, created_at, updated_at, last_login_at`

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domainauth.Identity, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *UserStore) FindByLogin(ctx context.Context, login string) (*domainauth.Identity, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 OR name = $1`, login)
}

func (s *UserStore) findOne(ctx context.Context, query, arg string) (*domainauth.Identity, error) {
	db, err := s.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	var (
		ident     domainauth.Identity
		name      sql.NullString
		image     sql.NullString
		provider  sql.NullString
		pwHash    sql.NullString
		lastLogin sql.NullTime
	)
	row := db.QueryRowContext(ctx, query, arg)
	err = row.Scan(&ident.ID, &ident.Email, &name, &image, &ident.Role, &provider, &pwHash,
		&ident.CreatedAt, &ident.UpdatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainauth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	ident.Name = name.String
	ident.Image = image.String
	ident.Provider = provider.String
	ident.PasswordHash = pwHash.String
	if lastLogin.Valid {
		ident.LastLoginAt = lastLogin.Time
	}
	return &ident, nil
}

func (s *UserStore) Insert(ctx context.Context, identity *domainauth.Identity) (*domainauth.Identity, error) {
	if identity == nil {
		return nil, errors.New("identity is required")
	}
	db, err := s.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)`,
		identity.ID,
		identity.Email,
		identity.Name,
		identity.Image,
		identity.Role,
		identity.Provider,
		identity.PasswordHash,
		identity.CreatedAt,
		identity.UpdatedAt,
		identity.LastLoginAt,
	)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return identity, nil
}

func (s *UserStore) Update(ctx context.Context, id string, upd ports.UserUpdate) error {
	db, err := s.Connector.Connect(ctx)
	if err != nil {
		return err
	}

	// Build the SET list from the fields present in the update.
	sets := []string{"updated_at = $2"}
	args := []any{id, upd.UpdatedAt}
	if upd.Provider != nil {
		args = append(args, *upd.Provider)
		sets = append(sets, "provider = $"+strconv.Itoa(len(args)))
	}
	if upd.LastLoginAt != nil {
		args = append(args, *upd.LastLoginAt)
		sets = append(sets, "last_login_at = $"+strconv.Itoa(len(args)))
	}

	res, err := db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		return domainauth.ErrIdentityNotFound
	}
	return nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	db, err := s.Connector.Connect(ctx)
	if err != nil {
		return err
	}
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return fmt.Errorf("ping identity store: %w", pingErr)
	}
	return nil
}

// mapWriteErr converts driver-level write errors into domain errors. A unique
// violation on the email key is the benign concurrent-first-login race.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return domainauth.ErrEmailExists
	}
	return fmt.Errorf("write user: %w", err)
}
