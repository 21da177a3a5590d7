package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// MinTitleLength is the shortest question title the lifecycle accepts.
const MinTitleLength = 5

// CloseReason explains why a question was closed.
type CloseReason string

// Close reasons. Persisted as their string value.
const (
	CloseReasonResolved  CloseReason = "resolved"
	CloseReasonDuplicate CloseReason = "duplicate"
	CloseReasonInvalid   CloseReason = "invalid"
)

// closeReasonDescriptions doubles as the set of valid close reasons.
var closeReasonDescriptions = map[CloseReason]string{
	CloseReasonResolved:  "The question was answered and resolved.",
	CloseReasonDuplicate: "Another identical (or similar) question has been asked and answered already.",
	CloseReasonInvalid:   "The thread does not constitute a valid question (spam, or otherwise).",
}

// CloseReasons lists every valid close reason in display order.
var CloseReasons = []CloseReason{
	CloseReasonResolved,
	CloseReasonDuplicate,
	CloseReasonInvalid,
}

// Valid reports whether r is one of the defined close reasons.
func (r CloseReason) Valid() bool {
	_, ok := closeReasonDescriptions[r]
	return ok
}

// Description returns the human explanation of r, or "" if r is not valid.
func (r CloseReason) Description() string {
	return closeReasonDescriptions[r]
}

// ParseCloseReason converts s (case-insensitive) to a CloseReason.
// Returns ErrInvalidCloseReason if s names no reason.
func ParseCloseReason(s string) (CloseReason, error) {
	r := CloseReason(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidCloseReason
	}
	return r, nil
}

// Question is a tracked help request bound to exactly one thread.
// The closed fields (CloseReason, CloserID, ClosedAt) are either all unset
// or all set; IsClosed tells which.
type Question struct {
	ID          uuid.UUID    `json:"id"`
	GuildID     snowflake.ID `json:"guild_id"`
	CategoryID  uuid.UUID    `json:"category_id"`
	AuthorID    snowflake.ID `json:"author_id"`
	Title       string       `json:"title"`
	Tags        []string     `json:"tags"`
	ThreadID    snowflake.ID `json:"thread_id"` // Set once at creation.
	CreatedAt   time.Time    `json:"created_at"`
	IsClosed    bool         `json:"is_closed"`
	CloseReason CloseReason  `json:"close_reason,omitempty"`
	CloserID    snowflake.ID `json:"closer_id,omitempty"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
}

// ValidateTitle checks that title is non-blank and at least MinTitleLength
// characters long.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(trimmed) < MinTitleLength {
		return ErrTitleTooShort
	}
	return nil
}

// Close transitions the question to closed. Returns ErrInvalidCloseReason
// for an unknown reason and ErrAlreadyClosed if the question is closed;
// in both cases the question is left untouched.
func (q *Question) Close(reason CloseReason, closer snowflake.ID, at time.Time) error {
	if !reason.Valid() {
		return ErrInvalidCloseReason
	}
	if q.IsClosed {
		return ErrAlreadyClosed
	}
	q.IsClosed = true
	q.CloseReason = reason
	q.CloserID = closer
	closedAt := at
	q.ClosedAt = &closedAt
	return nil
}

// IsActive reports whether the question is still open.
func (q *Question) IsActive() bool {
	return !q.IsClosed
}
