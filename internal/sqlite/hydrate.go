package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// timeLayout is fixed-width so that lexical order on the TEXT column matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const categoryColumns = "category_id, guild_id, name, description, created_at"

func hydrateCategory(row scanner) (*types.Category, error) {
	var (
		c         types.Category
		id        string
		guildID   int64
		createdAt string
	)
	if err := row.Scan(&id, &guildID, &c.Name, &c.Description, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parsing category id %q: %w", id, err)
	}
	c.ID = parsed
	c.GuildID = snowflake.ID(guildID)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const questionColumns = "question_id, guild_id, category_id, author_id, title, tags, thread_id, " +
	"created_at, is_closed, close_reason, closer_id, closed_at"

func hydrateQuestion(row scanner) (*types.Question, error) {
	var (
		q          types.Question
		id         string
		categoryID string
		guildID    int64
		authorID   int64
		threadID   int64
		closerID   int64
		tags       []byte
		createdAt  string
		closedAt   sql.NullString
		reason     string
	)
	if err := row.Scan(&id, &guildID, &categoryID, &authorID, &q.Title, &tags, &threadID,
		&createdAt, &q.IsClosed, &reason, &closerID, &closedAt); err != nil {
		return nil, err
	}
	var err error
	if q.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing question id %q: %w", id, err)
	}
	if q.CategoryID, err = uuid.Parse(categoryID); err != nil {
		return nil, fmt.Errorf("parsing category id %q: %w", categoryID, err)
	}
	if q.Tags, err = types.DecodeTags(tags); err != nil {
		return nil, fmt.Errorf("decoding tags of question %s: %w", id, err)
	}
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t, err := parseTime(closedAt.String)
		if err != nil {
			return nil, err
		}
		q.ClosedAt = &t
	}
	q.GuildID = snowflake.ID(guildID)
	q.AuthorID = snowflake.ID(authorID)
	q.ThreadID = snowflake.ID(threadID)
	q.CloserID = snowflake.ID(closerID)
	q.CloseReason = types.CloseReason(reason)
	return &q, nil
}

const cachedMessageColumns = "guild_id, cache_key, channel_id, message_id"

func hydrateCachedMessage(row scanner) (*types.CachedMessage, error) {
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

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// query accumulates WHERE conditions for a Fetch.
type query struct {
	conditions []string
	args       []any
}

func (q *query) where(condition string, arg any) {
	q.conditions = append(q.conditions, condition)
	q.args = append(q.args, arg)
}

func (q *query) snowflake(filter types.Filter, key, column string) error {
	id, ok, err := filter.Snowflake(key)
	if err != nil {
		return err
	}
	if ok {
		q.where(column+" = ?", int64(id))
	}
	return nil
}

// build renders the final statement.
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
