// Package pending remembers which category a member picked in the ask-here
// menu until the title modal comes back. A selection is consumed by the
// first Take; a newer Put for the same member replaces the older one.
package pending

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/heapoverflow/internal/clock"
)

// DefaultTTL is how long a selection waits for its modal.
const DefaultTTL = 15 * time.Minute

// Selection is a member's pending category choice.
type Selection struct {
	GuildID    snowflake.ID `json:"guild_id"`
	UserID     snowflake.ID `json:"user_id"`
	CategoryID uuid.UUID    `json:"category_id"`
	SelectedAt time.Time    `json:"selected_at"`
}

// Store holds pending selections keyed by (guild, user).
type Store interface {
	// Put records s, replacing any selection of the same member.
	Put(ctx context.Context, s Selection) error

	// Take removes and returns the member's selection. ok is false when
	// there is none or it has expired.
	Take(ctx context.Context, guildID, userID snowflake.ID) (s Selection, ok bool, err error)
}

type key struct {
	guild snowflake.ID
	user  snowflake.ID
}

// Memory is a process-local Store.
type Memory struct {
	ttl   time.Duration
	clock clock.Clock

	mu      sync.Mutex
	entries map[key]Selection
}

var _ Store = (*Memory)(nil)

// NewMemory returns a Memory store. A non-positive ttl means DefaultTTL.
func NewMemory(ttl time.Duration, clk clock.Clock) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, clock: clk, entries: make(map[key]Selection)}
}

func (m *Memory) Put(_ context.Context, s Selection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.entries[key{s.GuildID, s.UserID}] = s
	return nil
}

func (m *Memory) Take(_ context.Context, guildID, userID snowflake.ID) (Selection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{guildID, userID}
	s, ok := m.entries[k]
	if !ok {
		return Selection{}, false, nil
	}
	delete(m.entries, k)
	if m.expired(s) {
		return Selection{}, false, nil
	}
	return s, true, nil
}

// Len returns the number of stored selections, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) expired(s Selection) bool {
	return m.clock.Now().Sub(s.SelectedAt) >= m.ttl
}

// sweep drops expired selections. Caller holds mu.
func (m *Memory) sweep() {
	for k, s := range m.entries {
		if m.expired(s) {
			delete(m.entries, k)
		}
	}
}
