package types

import (
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Snowflake returns the snowflake.ID stored under key. ok is false when the
// key is absent; ErrInvalidFilter is returned when the value has another type.
func (f Filter) Snowflake(key string) (id snowflake.ID, ok bool, err error) {
	v, present := f[key]
	if !present {
		return 0, false, nil
	}
	id, isID := v.(snowflake.ID)
	if !isID {
		return 0, false, ErrInvalidFilter
	}
	return id, true, nil
}

// UUID returns the uuid.UUID stored under key.
func (f Filter) UUID(key string) (id uuid.UUID, ok bool, err error) {
	v, present := f[key]
	if !present {
		return uuid.Nil, false, nil
	}
	id, isUUID := v.(uuid.UUID)
	if !isUUID {
		return uuid.Nil, false, ErrInvalidFilter
	}
	return id, true, nil
}

// Bool returns the bool stored under key.
func (f Filter) Bool(key string) (b, ok bool, err error) {
	v, present := f[key]
	if !present {
		return false, false, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, false, ErrInvalidFilter
	}
	return b, true, nil
}

// Limit returns the positive row limit, or 0 when unset.
func (f Filter) Limit() (int, error) {
	v, present := f[FilterLimit]
	if !present {
		return 0, nil
	}
	limit, isInt := v.(int)
	if !isInt || limit < 0 {
		return 0, ErrInvalidFilter
	}
	return limit, nil
}
