package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

var _ types.CachedMessageTable = (*cachedMessagesTable)(nil)

type cachedMessagesTable struct {
	backend *Backend
}

// Get retrieves the slot for (guildID, key).
func (mt *cachedMessagesTable) Get(ctx context.Context, guildID snowflake.ID, key string) (*types.CachedMessage, error) {
	if key == "" {
		return nil, types.ErrEmptyKey
	}
	db, err := mt.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT "+cachedMessageColumns+" FROM cached_messages WHERE guild_id = ? AND cache_key = ?",
		int64(guildID), key)
	m, err := hydrateCachedMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting cached message %s/%s: %w", guildID, key, err)
	}
	return m, nil
}

// Set upserts the slot for (m.GuildID, m.Key).
func (mt *cachedMessagesTable) Set(ctx context.Context, m *types.CachedMessage) error {
	if m == nil || m.Key == "" {
		return types.ErrEmptyKey
	}
	db, err := mt.backend.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO cached_messages (`+cachedMessageColumns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT (guild_id, cache_key) DO UPDATE SET
			channel_id = excluded.channel_id,
			message_id = excluded.message_id`,
		int64(m.GuildID), m.Key, int64(m.ChannelID), int64(m.MessageID),
	)
	if err != nil {
		return fmt.Errorf("persisting cached message: %w", err)
	}
	return nil
}

// Delete removes the slot if present.
func (mt *cachedMessagesTable) Delete(ctx context.Context, guildID snowflake.ID, key string) error {
	db, err := mt.backend.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		"DELETE FROM cached_messages WHERE guild_id = ? AND cache_key = ?", int64(guildID), key); err != nil {
		return fmt.Errorf("deleting cached message: %w", err)
	}
	return nil
}

// Fetch returns slots ordered by guild then key.
func (mt *cachedMessagesTable) Fetch(ctx context.Context, filter types.Filter) ([]*types.CachedMessage, error) {
	var q query
	if err := q.snowflake(filter, types.FilterGuildID, "guild_id"); err != nil {
		return nil, err
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}
	db, err := mt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		q.build("SELECT "+cachedMessageColumns+" FROM cached_messages", "guild_id ASC, cache_key ASC", limit),
		q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching cached messages: %w", err)
	}
	defer rows.Close()

	results := []*types.CachedMessage{}
	for rows.Next() {
		m, err := hydrateCachedMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating cached message: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cached messages: %w", err)
	}
	return results, nil
}
