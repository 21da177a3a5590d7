// Package msgcache remembers where named, idempotent UI messages live so
// they can be edited in place across restarts instead of being re-sent.
//
// Entries are keyed by (guild, key) and backed by the store. Lookups verify
// the message still exists on the platform; a message the platform reports
// as gone is evicted and reported absent.
package msgcache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/metrics"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Cache is the guild-scoped message slot registry.
type Cache struct {
	store  types.CachedMessageTable
	client platform.Client
	log    zerolog.Logger

	loadMu sync.Mutex
	loaded bool

	mu      sync.RWMutex
	entries map[snowflake.ID]map[string]types.CachedMessage
}

// New creates a Cache. Call Load before serving requests; Get and Cache load
// lazily if it has not happened yet.
func New(store types.CachedMessageTable, client platform.Client, log zerolog.Logger) *Cache {
	return &Cache{
		store:   store,
		client:  client,
		log:     log.With().Str("component", "msgcache").Logger(),
		entries: make(map[snowflake.ID]map[string]types.CachedMessage),
	}
}

// Load replaces the in-memory map with every persisted slot.
func (c *Cache) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	rows, err := c.store.Fetch(ctx, nil)
	if err != nil {
		return fmt.Errorf("loading cached messages: %w", err)
	}
	entries := make(map[snowflake.ID]map[string]types.CachedMessage)
	for _, row := range rows {
		guild, ok := entries[row.GuildID]
		if !ok {
			guild = make(map[string]types.CachedMessage)
			entries[row.GuildID] = guild
		}
		guild[row.Key] = *row
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	c.loaded = true

	c.log.Info().Int("count", len(rows)).Msg("cached messages loaded")
	return nil
}

func (c *Cache) ensureLoaded(ctx context.Context) error {
	c.loadMu.Lock()
	loaded := c.loaded
	c.loadMu.Unlock()
	if loaded {
		return nil
	}
	return c.Load(ctx)
}

// Cache records msg as the current holder of key in msg's guild, replacing
// any previous entry.
func (c *Cache) Cache(ctx context.Context, key string, msg *platform.Message) error {
	if strings.TrimSpace(key) == "" {
		return types.ErrEmptyKey
	}
	if msg == nil {
		return fmt.Errorf("caching %q: nil message: %w", key, types.ErrInvalidID)
	}
	if msg.GuildID == 0 {
		return types.ErrNotGuildChannel
	}
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	row := types.CachedMessage{
		GuildID:   msg.GuildID,
		Key:       key,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
	}
	if err := c.store.Set(ctx, &row); err != nil {
		return fmt.Errorf("caching %q: %w", key, err)
	}

	c.mu.Lock()
	guild, ok := c.entries[row.GuildID]
	if !ok {
		guild = make(map[string]types.CachedMessage)
		c.entries[row.GuildID] = guild
	}
	guild[key] = row
	c.mu.Unlock()

	c.log.Debug().
		Str("guild_id", row.GuildID.String()).
		Str("key", key).
		Str("message_id", row.MessageID.String()).
		Msg("message cached")
	return nil
}

// Get resolves key in guildID to a live message. Any failure, including the
// platform no longer knowing the message, yields ok == false.
func (c *Cache) Get(ctx context.Context, guildID snowflake.ID, key string) (*platform.Message, bool) {
	if strings.TrimSpace(key) == "" {
		return nil, false
	}
	if err := c.ensureLoaded(ctx); err != nil {
		c.log.Warn().Err(err).Msg("cache not loaded")
		return nil, false
	}

	c.mu.RLock()
	row, ok := c.entries[guildID][key]
	c.mu.RUnlock()
	if !ok {
		metrics.CachedMessageLookups.WithLabelValues(metrics.LookupMiss).Inc()
		return nil, false
	}

	msg, err := c.client.FetchMessage(ctx, row.ChannelID, row.MessageID)
	if err != nil {
		if platform.IsGone(err) {
			metrics.CachedMessageLookups.WithLabelValues(metrics.LookupStale).Inc()
			c.evict(ctx, row)
		} else {
			metrics.CachedMessageLookups.WithLabelValues(metrics.LookupMiss).Inc()
			c.log.Warn().Err(err).
				Str("guild_id", guildID.String()).
				Str("key", key).
				Msg("fetching cached message")
		}
		return nil, false
	}

	metrics.CachedMessageLookups.WithLabelValues(metrics.LookupHit).Inc()
	return msg, true
}

// evict drops row unless a newer message took its slot meanwhile.
func (c *Cache) evict(ctx context.Context, row types.CachedMessage) {
	c.mu.Lock()
	current, ok := c.entries[row.GuildID][row.Key]
	if !ok || current.MessageID != row.MessageID {
		c.mu.Unlock()
		return
	}
	delete(c.entries[row.GuildID], row.Key)
	c.mu.Unlock()

	if err := c.store.Delete(ctx, row.GuildID, row.Key); err != nil {
		c.log.Warn().Err(err).Str("key", row.Key).Msg("evicting cached message")
		return
	}
	c.log.Info().
		Str("guild_id", row.GuildID.String()).
		Str("key", row.Key).
		Str("message_id", row.MessageID.String()).
		Msg("stale cached message evicted")
}

// Entry returns the raw slot without touching the platform.
func (c *Cache) Entry(guildID snowflake.ID, key string) (types.CachedMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	row, ok := c.entries[guildID][key]
	return row, ok
}
