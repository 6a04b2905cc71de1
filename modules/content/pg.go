package content

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PgStore persists content in Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore applies the embedded schema migrations and returns the store.
// Each module tracks its migrations in its own goose version table.
func NewPgStore(ctx context.Context, pool *pgxpool.Pool) (*PgStore, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetTableName("goose_content_version")
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("content: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return nil, fmt.Errorf("content: apply migrations: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

const contentColumns = "id, title, alias, teaser, body, section, status, author_id, created_at, updated_at"

func (s *PgStore) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Alias == "" {
		item.Alias = Aliasify(item.Title)
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO content (id, title, alias, teaser, body, section, status, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		item.ID, item.Title, item.Alias, item.Teaser, item.Body,
		item.Section, item.Status, item.AuthorID,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateAlias
	}
	return err
}

func (s *PgStore) Update(ctx context.Context, item *Item) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE content
		SET title = $2, alias = $3, teaser = $4, body = $5, section = $6,
		    status = $7, updated_at = now()
		WHERE id = $1`,
		item.ID, item.Title, item.Alias, item.Teaser, item.Body,
		item.Section, item.Status,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateAlias
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
	tag, err := s.pool.Exec(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) GetByID(ctx context.Context, id uuid.UUID) (Item, error) {
	return s.get(ctx, `SELECT `+contentColumns+` FROM content WHERE id = $1`, id)
}

func (s *PgStore) GetByAlias(ctx context.Context, alias string) (Item, error) {
	return s.get(ctx, `SELECT `+contentColumns+` FROM content WHERE alias = $1`, alias)
}

func (s *PgStore) get(ctx context.Context, query string, arg any) (Item, error) {
	var item Item
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&item.ID, &item.Title, &item.Alias, &item.Teaser, &item.Body,
		&item.Section, &item.Status, &item.AuthorID,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

func (s *PgStore) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	status := filter.Status
	if status == "" {
		status = StatusPublished
	}

	query := `SELECT ` + contentColumns + ` FROM content WHERE status = $1`
	args := []any{status}
	if filter.Section != "" {
		query += ` AND section = $2`
		args = append(args, filter.Section)
	}
	query += ` ORDER BY created_at DESC, alias ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Alias, &item.Teaser, &item.Body,
			&item.Section, &item.Status, &item.AuthorID,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
