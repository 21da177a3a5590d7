package types

import "errors"

// Storage errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidFilter = errors.New("invalid filter value type")
	ErrStoreDetached = errors.New("store is detached")
	ErrAlreadyOpen   = errors.New("store is already attached")
)

// Validation errors. Raised before any side effect happens.
var (
	ErrInvalidName        = errors.New("category name must not be empty")
	ErrDuplicateName      = errors.New("a category with that name already exists")
	ErrCategoryInUse      = errors.New("category still has open questions")
	ErrEmptyTitle         = errors.New("title must not be empty")
	ErrTitleTooShort      = errors.New("title is too short")
	ErrInvalidCloseReason = errors.New("invalid close reason")
	ErrAlreadyClosed      = errors.New("question is already closed")
	ErrEmptyKey           = errors.New("cache key must not be empty")
	ErrNotThread          = errors.New("channel is not a thread")
	ErrNotGuildChannel    = errors.New("channel does not belong to a guild")
)

// Configuration errors.
var (
	ErrForumNotConfigured = errors.New("no forum channel is configured for this guild")
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrDatabaseURLEmpty   = errors.New("database URL must not be empty")
)

// ErrIncomplete marks a multi-step operation that succeeded in its primary
// effect but failed one or more follow-up steps. It is joined with the step
// errors; the primary result is still returned to the caller.
var ErrIncomplete = errors.New("operation completed partially")

// ErrorKind groups errors by how they should be explained to a user.
type ErrorKind int

// Error kinds returned by Classify.
const (
	KindNone ErrorKind = iota
	KindValidation
	KindNotFound
	KindConfiguration
	KindExternal
)

var validationErrors = []error{
	ErrInvalidName, ErrDuplicateName, ErrCategoryInUse, ErrEmptyTitle,
	ErrTitleTooShort, ErrInvalidCloseReason, ErrAlreadyClosed, ErrEmptyKey,
	ErrNotThread, ErrNotGuildChannel, ErrInvalidID, ErrInvalidFilter,
}

var configurationErrors = []error{
	ErrForumNotConfigured, ErrBackendEmpty, ErrBackendUnknown, ErrDatabaseURLEmpty,
}

// Classify maps err to the kind of failure it represents. A nil error is
// KindNone; anything unrecognized is KindExternal.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return KindValidation
		}
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	for _, target := range configurationErrors {
		if errors.Is(err, target) {
			return KindConfiguration
		}
	}
	return KindExternal
}

// String returns a lower-case label for k, used in logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConfiguration:
		return "configuration"
	default:
		return "external"
	}
}
