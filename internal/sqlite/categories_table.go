package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

var _ types.CategoryTable = (*categoriesTable)(nil)

type categoriesTable struct {
	backend *Backend
}

// Get retrieves a category by ID.
func (ct *categoriesTable) Get(ctx context.Context, id uuid.UUID) (*types.Category, error) {
	if id == uuid.Nil {
		return nil, types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE category_id = ?", id.String())
	c, err := hydrateCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return c, nil
}

// Set inserts or updates a category. A name clash within the guild returns
// ErrDuplicateName.
func (ct *categoriesTable) Set(ctx context.Context, c *types.Category) error {
	if c == nil || c.ID == uuid.Nil {
		return types.ErrInvalidID
	}
	if c.Name == "" {
		return types.ErrInvalidName
	}
	db, err := ct.backend.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (category_id) DO UPDATE SET
			guild_id = excluded.guild_id,
			name = excluded.name,
			description = excluded.description`,
		c.ID.String(), int64(c.GuildID), c.Name, c.Description, formatTime(c.CreatedAt),
	)
	if isUniqueViolation(err) {
		return types.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("persisting category: %w", err)
	}
	return nil
}

// Delete removes a category by ID.
func (ct *categoriesTable) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return types.ErrInvalidID
	}
	db, err := ct.backend.conn()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM categories WHERE category_id = ?", id.String())
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch queries categories matching the filter, oldest first.
func (ct *categoriesTable) Fetch(ctx context.Context, filter types.Filter) ([]*types.Category, error) {
	var q query
	if err := q.snowflake(filter, types.FilterGuildID, "guild_id"); err != nil {
		return nil, err
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}
	db, err := ct.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		q.build("SELECT "+categoryColumns+" FROM categories", "created_at ASC, category_id ASC", limit),
		q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	defer rows.Close()

	results := []*types.Category{}
	for rows.Next() {
		c, err := hydrateCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating category: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return results, nil
}
