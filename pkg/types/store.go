package types

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Store is a durable backend holding the three help-desk tables.
// Callers attach once at startup and close on shutdown; every table
// operation is safe for concurrent use.
type Store interface {
	Categories() CategoryTable
	Questions() QuestionTable
	CachedMessages() CachedMessageTable

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources. Idempotent.
	Close() error
}

// Filter narrows a Fetch. Keys name columns; values must have the type
// documented on each table's Fetch. An empty or nil filter matches every row.
type Filter map[string]any

// Filter keys understood by the tables.
const (
	FilterGuildID    = "guild_id"
	FilterThreadID   = "thread_id"
	FilterCategoryID = "category_id"
	FilterAuthorID   = "author_id"
	FilterIsClosed   = "is_closed"
	FilterLimit      = "limit"
)

// CategoryTable stores categories.
type CategoryTable interface {
	// Get returns the category with id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Category, error)

	// Set inserts c, or updates it if a row with c.ID exists.
	Set(ctx context.Context, c *Category) error

	// Delete removes the category with id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// Fetch returns categories ordered by CreatedAt then ID.
	// Supported keys: FilterGuildID (snowflake.ID), FilterLimit (int).
	Fetch(ctx context.Context, filter Filter) ([]*Category, error)
}

// QuestionTable stores questions.
type QuestionTable interface {
	// Get returns the question with id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Question, error)

	// Set inserts q, or updates it if a row with q.ID exists.
	Set(ctx context.Context, q *Question) error

	// Fetch returns questions ordered by CreatedAt then ID.
	// Supported keys: FilterGuildID, FilterThreadID, FilterAuthorID
	// (snowflake.ID), FilterCategoryID (uuid.UUID), FilterIsClosed (bool),
	// FilterLimit (int).
	Fetch(ctx context.Context, filter Filter) ([]*Question, error)
}

// CachedMessageTable stores cached message slots keyed by (guild, key).
type CachedMessageTable interface {
	// Get returns the slot, or ErrNotFound.
	Get(ctx context.Context, guildID snowflake.ID, key string) (*CachedMessage, error)

	// Set updates the row for (m.GuildID, m.Key) if it exists, else inserts it.
	Set(ctx context.Context, m *CachedMessage) error

	// Delete removes the slot. Deleting an absent slot is not an error.
	Delete(ctx context.Context, guildID snowflake.ID, key string) error

	// Fetch returns slots ordered by guild then key.
	// Supported keys: FilterGuildID (snowflake.ID).
	Fetch(ctx context.Context, filter Filter) ([]*CachedMessage, error)
}
