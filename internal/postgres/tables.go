package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

type categories struct{ pool *pgxpool.Pool }

const categoryColumns = "category_id, guild_id, name, description, created_at"

func scanCategory(row pgx.Row) (*types.Category, error) {
	var (
		c       types.Category
		guildID int64
	)
	if err := row.Scan(&c.ID, &guildID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.GuildID = snowflake.ID(guildID)
	return &c, nil
}

func (t categories) Get(ctx context.Context, id uuid.UUID) (*types.Category, error) {
	if id == uuid.Nil {
		return nil, types.ErrInvalidID
	}
	c, err := scanCategory(t.pool.QueryRow(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE category_id = $1", id))
	if isNoRows(err) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return c, nil
}

func (t categories) Set(ctx context.Context, c *types.Category) error {
	if c == nil || c.ID == uuid.Nil {
		return types.ErrInvalidID
	}
	if c.Name == "" {
		return types.ErrInvalidName
	}
	_, err := t.pool.Exec(ctx, `
		INSERT INTO categories (`+categoryColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (category_id) DO UPDATE SET
			guild_id = EXCLUDED.guild_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description
	`, c.ID, int64(c.GuildID), c.Name, c.Description, c.CreatedAt)
	if isUniqueViolation(err) {
		return types.ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("persisting category: %w", err)
	}
	return nil
}

func (t categories) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return types.ErrInvalidID
	}
	tag, err := t.pool.Exec(ctx, "DELETE FROM categories WHERE category_id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (t categories) Fetch(ctx context.Context, filter types.Filter) ([]*types.Category, error) {
	var q query
	if err := q.snowflake(filter, types.FilterGuildID, "guild_id"); err != nil {
		return nil, err
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}
	rows, err := t.pool.Query(ctx,
		q.build("SELECT "+categoryColumns+" FROM categories", "created_at ASC, category_id ASC", limit),
		q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	defer rows.Close()

	results := []*types.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

type questions struct{ pool *pgxpool.Pool }

const questionColumns = "question_id, guild_id, category_id, author_id, title, tags, thread_id, " +
	"created_at, is_closed, close_reason, closer_id, closed_at"

func scanQuestion(row pgx.Row) (*types.Question, error) {
	var (
		q                                   types.Question
		guildID, authorID, threadID, closer int64
		tags                                []byte
		reason                              string
		closedAt                            *time.Time
	)
	if err := row.Scan(&q.ID, &guildID, &q.CategoryID, &authorID, &q.Title, &tags, &threadID,
		&q.CreatedAt, &q.IsClosed, &reason, &closer, &closedAt); err != nil {
		return nil, err
	}
	decoded, err := types.DecodeTags(tags)
	if err != nil {
		return nil, fmt.Errorf("decoding tags of question %s: %w", q.ID, err)
	}
	q.Tags = decoded
	q.GuildID = snowflake.ID(guildID)
	q.AuthorID = snowflake.ID(authorID)
	q.ThreadID = snowflake.ID(threadID)
	q.CloserID = snowflake.ID(closer)
	q.CloseReason = types.CloseReason(reason)
	q.ClosedAt = closedAt
	return &q, nil
}

func (t questions) Get(ctx context.Context, id uuid.UUID) (*types.Question, error) {
	if id == uuid.Nil {
		return nil, types.ErrInvalidID
	}
	q, err := scanQuestion(t.pool.QueryRow(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE question_id = $1", id))
	if isNoRows(err) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting question %s: %w", id, err)
	}
	return q, nil
}

func (t questions) Set(ctx context.Context, q *types.Question) error {
	if q == nil || q.ID == uuid.Nil {
		return types.ErrInvalidID
	}
	_, err := t.pool.Exec(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (question_id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			title = EXCLUDED.title,
			tags = EXCLUDED.tags,
			is_closed = EXCLUDED.is_closed,
			close_reason = EXCLUDED.close_reason,
			closer_id = EXCLUDED.closer_id,
			closed_at = EXCLUDED.closed_at
	`, q.ID, int64(q.GuildID), q.CategoryID, int64(q.AuthorID), q.Title, types.EncodeTags(q.Tags),
		int64(q.ThreadID), q.CreatedAt, q.IsClosed, string(q.CloseReason), int64(q.CloserID), q.ClosedAt)
	if err != nil {
		return fmt.Errorf("persisting question: %w", err)
	}
	return nil
}

func (t questions) Fetch(ctx context.Context, filter types.Filter) ([]*types.Question, error) {
	var q query
	for _, f := range []struct{ key, column string }{
		{types.FilterGuildID, "guild_id"},
		{types.FilterThreadID, "thread_id"},
		{types.FilterAuthorID, "author_id"},
	} {
		if err := q.snowflake(filter, f.key, f.column); err != nil {
			return nil, err
		}
	}
	categoryID, ok, err := filter.UUID(types.FilterCategoryID)
	if err != nil {
		return nil, err
	}
	if ok {
		q.where("category_id", categoryID)
	}
	closed, ok, err := filter.Bool(types.FilterIsClosed)
	if err != nil {
		return nil, err
	}
	if ok {
		q.where("is_closed", closed)
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}

	rows, err := t.pool.Query(ctx,
		q.build("SELECT "+questionColumns+" FROM questions", "created_at ASC, question_id ASC", limit),
		q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching questions: %w", err)
	}
	defer rows.Close()

	results := []*types.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		results = append(results, question)
	}
	return results, rows.Err()
}

type cachedMessages struct{ pool *pgxpool.Pool }

func scanCachedMessage(row pgx.Row) (*types.CachedMessage, error) {
	var (
		m                             types.CachedMessage
		guildID, channelID, messageID int64
	)
	if err := row.Scan(&guildID, &m.Key, &channelID, &messageID); err != nil {
		return nil, err
	}
	m.GuildID = snowflake.ID(guildID)
	m.ChannelID = snowflake.ID(channelID)
	m.MessageID = snowflake.ID(messageID)
	return &m, nil
}

func (t cachedMessages) Get(ctx context.Context, guildID snowflake.ID, key string) (*types.CachedMessage, error) {
	if key == "" {
		return nil, types.ErrEmptyKey
	}
	m, err := scanCachedMessage(t.pool.QueryRow(ctx, `
		SELECT guild_id, cache_key, channel_id, message_id
		FROM cached_messages WHERE guild_id = $1 AND cache_key = $2
	`, int64(guildID), key))
	if isNoRows(err) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached message %s/%s: %w", guildID, key, err)
	}
	return m, nil
}

func (t cachedMessages) Set(ctx context.Context, m *types.CachedMessage) error {
	if m == nil || m.Key == "" {
		return types.ErrEmptyKey
	}
	_, err := t.pool.Exec(ctx, `
		INSERT INTO cached_messages (guild_id, cache_key, channel_id, message_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, cache_key) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			message_id = EXCLUDED.message_id
	`, int64(m.GuildID), m.Key, int64(m.ChannelID), int64(m.MessageID))
	if err != nil {
		return fmt.Errorf("persisting cached message: %w", err)
	}
	return nil
}

func (t cachedMessages) Delete(ctx context.Context, guildID snowflake.ID, key string) error {
	if _, err := t.pool.Exec(ctx,
		"DELETE FROM cached_messages WHERE guild_id = $1 AND cache_key = $2", int64(guildID), key); err != nil {
		return fmt.Errorf("deleting cached message: %w", err)
	}
	return nil
}

func (t cachedMessages) Fetch(ctx context.Context, filter types.Filter) ([]*types.CachedMessage, error) {
	var q query
	if err := q.snowflake(filter, types.FilterGuildID, "guild_id"); err != nil {
		return nil, err
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}
	rows, err := t.pool.Query(ctx,
		q.build("SELECT guild_id, cache_key, channel_id, message_id FROM cached_messages", "guild_id ASC, cache_key ASC", limit),
		q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching cached messages: %w", err)
	}
	defer rows.Close()

	results := []*types.CachedMessage{}
	for rows.Next() {
		m, err := scanCachedMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cached message: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}
