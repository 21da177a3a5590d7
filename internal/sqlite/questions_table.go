package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

var _ types.QuestionTable = (*questionsTable)(nil)

type questionsTable struct {
	backend *Backend
}

// Get retrieves a question by ID.
func (qt *questionsTable) Get(ctx context.Context, id uuid.UUID) (*types.Question, error) {
	if id == uuid.Nil {
		return nil, types.ErrInvalidID
	}
	db, err := qt.backend.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		"SELECT "+questionColumns+" FROM questions WHERE question_id = ?", id.String())
	q, err := hydrateQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting question %s: %w", id, err)
	}
	return q, nil
}

// Set inserts or updates a question. The thread binding is never rewritten
// by an update.
func (qt *questionsTable) Set(ctx context.Context, q *types.Question) error {
	if q == nil || q.ID == uuid.Nil {
		return types.ErrInvalidID
	}
	db, err := qt.backend.conn()
	if err != nil {
		return err
	}

	var closedAt sql.NullString
	if q.ClosedAt != nil {
		closedAt = sql.NullString{String: formatTime(*q.ClosedAt), Valid: true}
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO questions (`+questionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (question_id) DO UPDATE SET
			category_id = excluded.category_id,
			title = excluded.title,
			tags = excluded.tags,
			is_closed = excluded.is_closed,
			close_reason = excluded.close_reason,
			closer_id = excluded.closer_id,
			closed_at = excluded.closed_at`,
		q.ID.String(), int64(q.GuildID), q.CategoryID.String(), int64(q.AuthorID), q.Title,
		types.EncodeTags(q.Tags), int64(q.ThreadID), formatTime(q.CreatedAt), q.IsClosed,
		string(q.CloseReason), int64(q.CloserID), closedAt,
	)
	if err != nil {
		return fmt.Errorf("persisting question: %w", err)
	}
	return nil
}

// Fetch queries questions matching the filter, oldest first.
func (qt *questionsTable) Fetch(ctx context.Context, filter types.Filter) ([]*types.Question, error) {
	var q query
	for key, column := range map[string]string{
		types.FilterGuildID:  "guild_id",
		types.FilterThreadID: "thread_id",
		types.FilterAuthorID: "author_id",
	} {
		if err := q.snowflake(filter, key, column); err != nil {
			return nil, err
		}
	}
	categoryID, ok, err := filter.UUID(types.FilterCategoryID)
	if err != nil {
		return nil, err
	}
	if ok {
		q.where("category_id = ?", categoryID.String())
	}
	closed, ok, err := filter.Bool(types.FilterIsClosed)
	if err != nil {
		return nil, err
	}
	if ok {
		q.where("is_closed = ?", closed)
	}
	limit, err := filter.Limit()
	if err != nil {
		return nil, err
	}
	db, err := qt.backend.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		q.build("SELECT "+questionColumns+" FROM questions", "created_at ASC, question_id ASC", limit),
		q.args...)
	if err != nil {
		return nil, fmt.Errorf("fetching questions: %w", err)
	}
	defer rows.Close()

	results := []*types.Question{}
	for rows.Next() {
		question, err := hydrateQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating question: %w", err)
		}
		results = append(results, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}
	return results, nil
}
