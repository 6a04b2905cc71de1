package user

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PgStore persists accounts in Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore applies the embedded schema migrations and returns the store.
// Each module tracks its migrations in its own goose version table.
func NewPgStore(ctx context.Context, pool *pgxpool.Pool) (*PgStore, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetTableName("goose_user_version")
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("user: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return nil, fmt.Errorf("user: apply migrations: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

const userColumns = "id, username, email, about, admin, password_hash, created_at, updated_at"

func (s *PgStore) Create(ctx context.Context, acct *Account) error {
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email, about, admin, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		acct.ID, acct.Username, acct.Email, acct.About, acct.Admin, acct.PasswordHash,
	).Scan(&acct.CreatedAt, &acct.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	return err
}

func (s *PgStore) Update(ctx context.Context, acct *Account) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET username = $2, email = $3, about = $4, admin = $5,
		    password_hash = $6, updated_at = now()
		WHERE id = $1`,
		acct.ID, acct.Username, acct.Email, acct.About, acct.Admin, acct.PasswordHash,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUsername
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) GetByID(ctx context.Context, id uuid.UUID) (Account, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PgStore) GetByUsername(ctx context.Context, username string) (Account, error) {
	return s.get(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = $1`,
		strings.ToLower(username))
}

func (s *PgStore) get(ctx context.Context, query string, arg any) (Account, error) {
	var acct Account
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&acct.ID, &acct.Username, &acct.Email, &acct.About, &acct.Admin,
		&acct.PasswordHash, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return acct, err
}

func (s *PgStore) List(ctx context.Context) ([]Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY lower(username)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var acct Account
		if err := rows.Scan(
			&acct.ID, &acct.Username, &acct.Email, &acct.About, &acct.Admin,
			&acct.PasswordHash, &acct.CreatedAt, &acct.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
