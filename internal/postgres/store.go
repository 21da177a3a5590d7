// Package postgres implements types.Store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
    category_id UUID PRIMARY KEY,
    guild_id BIGINT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories (guild_id, lower(name));
CREATE INDEX IF NOT EXISTS idx_categories_guild ON categories (guild_id, created_at);

CREATE TABLE IF NOT EXISTS questions (
    question_id UUID PRIMARY KEY,
    guild_id BIGINT NOT NULL,
    category_id UUID NOT NULL,
    author_id BIGINT NOT NULL,
    title TEXT NOT NULL,
    tags BYTEA,
    thread_id BIGINT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL,
    is_closed BOOLEAN NOT NULL DEFAULT FALSE,
    close_reason TEXT NOT NULL DEFAULT '',
    closer_id BIGINT NOT NULL DEFAULT 0,
    closed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_questions_guild ON questions (guild_id, is_closed);
CREATE INDEX IF NOT EXISTS idx_questions_category ON questions (category_id);

CREATE TABLE IF NOT EXISTS cached_messages (
    guild_id BIGINT NOT NULL,
    cache_key TEXT NOT NULL,
    channel_id BIGINT NOT NULL,
    message_id BIGINT NOT NULL,
    PRIMARY KEY (guild_id, cache_key)
);
`

var _ types.Store = (*Store)(nil)

// Store handles PostgreSQL database operations.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL, verifies the connection and applies the
// schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, types.ErrDatabaseURLEmpty
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Categories returns the categories table.
func (s *Store) Categories() types.CategoryTable { return categories{s.pool} }

// Questions returns the questions table.
func (s *Store) Questions() types.QuestionTable { return questions{s.pool} }

// CachedMessages returns the cached message slot table.
func (s *Store) CachedMessages() types.CachedMessageTable { return cachedMessages{s.pool} }

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// query accumulates numbered WHERE conditions for a Fetch.
type query struct {
	conditions []string
	args       []any
}

func (q *query) where(column string, arg any) {
	q.args = append(q.args, arg)
	q.conditions = append(q.conditions, fmt.Sprintf("%s = $%d", column, len(q.args)))
}

func (q *query) snowflake(filter types.Filter, key, column string) error {
	id, ok, err := filter.Snowflake(key)
	if err != nil {
		return err
	}
	if ok {
		q.where(column, int64(id))
	}
	return nil
}

func (q *query) build(base, order string, limit int) string {
	stmt := base
	if len(q.conditions) > 0 {
		stmt += " WHERE " + strings.Join(q.conditions, " AND ")
	}
	stmt += " ORDER BY " + order
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}
	return stmt
}
