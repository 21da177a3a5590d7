// Package category maintains the per-guild registry of question categories.
// Each guild's categories are held in memory in creation order and mirrored
// to the store; staff mutations are serialized per guild and audited.
package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/audit"
	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/keylock"
	"github.com/mesh-intelligence/heapoverflow/internal/metrics"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Registry is the category registry.
type Registry struct {
	store types.Store
	audit audit.Logger
	clock clock.Clock
	log   zerolog.Logger

	locks *keylock.Map[snowflake.ID] // serializes mutations per guild

	mu     sync.RWMutex
	guilds map[snowflake.ID][]*types.Category
}

// New creates a Registry.
func New(store types.Store, auditLog audit.Logger, clk clock.Clock, log zerolog.Logger) *Registry {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Registry{
		store:  store,
		audit:  auditLog,
		clock:  clk,
		log:    log.With().Str("component", "category").Logger(),
		locks:  new(keylock.Map[snowflake.ID]),
		guilds: make(map[snowflake.ID][]*types.Category),
	}
}

// GuildLocks returns the per-guild locks held by every category mutation.
// Question creation shares them so that a category cannot be deleted
// between its open-questions check and its removal.
func (r *Registry) GuildLocks() *keylock.Map[snowflake.ID] {
	return r.locks
}

// LoadGuild replaces the in-memory categories of guildID with the persisted
// ones.
func (r *Registry) LoadGuild(ctx context.Context, guildID snowflake.ID) error {
	unlock := r.locks.Lock(guildID)
	defer unlock()

	categories, err := r.store.Categories().Fetch(ctx, types.Filter{types.FilterGuildID: guildID})
	if err != nil {
		return fmt.Errorf("loading categories of guild %s: %w", guildID, err)
	}

	r.mu.Lock()
	r.guilds[guildID] = categories
	r.mu.Unlock()

	r.log.Info().
		Str("guild_id", guildID.String()).
		Int("count", len(categories)).
		Msg("categories loaded")
	return nil
}

// Categories returns copies of the guild's categories in creation order.
// An unknown guild yields an empty slice.
func (r *Registry) Categories(guildID snowflake.ID) []*types.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.guilds[guildID]
	out := make([]*types.Category, 0, len(list))
	for _, c := range list {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

// CategoryByID returns a copy of the category with id in guildID.
func (r *Registry) CategoryByID(guildID snowflake.ID, id uuid.UUID) (*types.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.guilds[guildID] {
		if c.ID == id {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

// CategoryByName returns a copy of the category named name in guildID,
// ignoring case. A blank name is never found.
func (r *Registry) CategoryByName(guildID snowflake.ID, name string) (*types.Category, bool) {
	if strings.TrimSpace(name) == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c := findByName(r.guilds[guildID], name, uuid.Nil); c != nil {
		cp := *c
		return &cp, true
	}
	return nil, false
}

// Lookup resolves ref as a category id, falling back to a name.
func (r *Registry) Lookup(guildID snowflake.ID, ref string) (*types.Category, bool) {
	if id, err := uuid.Parse(strings.TrimSpace(ref)); err == nil {
		if c, ok := r.CategoryByID(guildID, id); ok {
			return c, true
		}
	}
	return r.CategoryByName(guildID, ref)
}

// findByName returns the category in list named name other than except.
func findByName(list []*types.Category, name string, except uuid.UUID) *types.Category {
	for _, c := range list {
		if c.ID != except && c.HasName(name) {
			return c
		}
	}
	return nil
}

// CreateCategory creates a category in guildID on behalf of staff. The name
// is title-cased and a blank description is stored as empty. Returns
// ErrInvalidName for a blank name and ErrDuplicateName when the guild
// already has a category of that name.
func (r *Registry) CreateCategory(ctx context.Context, guildID snowflake.ID, staff platform.Member, name, description string) (*types.Category, error) {
	c := &types.Category{
		GuildID:     guildID,
		Name:        name,
		Description: description,
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(guildID)
	defer unlock()

	r.mu.RLock()
	dup := findByName(r.guilds[guildID], c.Name, uuid.Nil)
	r.mu.RUnlock()
	if dup != nil {
		return nil, types.ErrDuplicateName
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating UUID v7: %w", err)
	}
	c.ID = id
	c.CreatedAt = r.clock.Now().UTC()

	if err := r.store.Categories().Set(ctx, c); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	stored := *c
	r.mu.Lock()
	r.guilds[guildID] = append(r.guilds[guildID], &stored)
	r.mu.Unlock()

	metrics.CategoryMutations.WithLabelValues("create").Inc()
	r.audit.Record(ctx, audit.Record{
		GuildID:     guildID,
		Action:      "category.create",
		Title:       "Help Category Created",
		Description: fmt.Sprintf("A category `%s` (%s) has been created by %s.", c.Name, c.ID, staff.Mention()),
		Color:       platform.ColorGreen,
	})
	return c, nil
}

// ModifyCategory applies mutate to the stored version of c, persists it and
// audits the before and after name and description. The identity fields
// (ID, GuildID, CreatedAt) cannot be changed. On success c is updated to the
// persisted state.
func (r *Registry) ModifyCategory(ctx context.Context, c *types.Category, mutate func(*types.Category), staff platform.Member) error {
	if c == nil || mutate == nil {
		return types.ErrInvalidID
	}

	unlock := r.locks.Lock(c.GuildID)
	defer unlock()

	fresh, err := r.store.Categories().Get(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("modifying category %s: %w", c.ID, err)
	}
	old := *fresh

	mutate(fresh)
	fresh.ID, fresh.GuildID, fresh.CreatedAt = old.ID, old.GuildID, old.CreatedAt
	if err := fresh.Normalize(); err != nil {
		return err
	}

	r.mu.RLock()
	dup := findByName(r.guilds[fresh.GuildID], fresh.Name, fresh.ID)
	r.mu.RUnlock()
	if dup != nil {
		return types.ErrDuplicateName
	}

	if err := r.store.Categories().Set(ctx, fresh); err != nil {
		return fmt.Errorf("modifying category %s: %w", c.ID, err)
	}

	stored := *fresh
	r.mu.Lock()
	list := r.guilds[fresh.GuildID]
	for i, existing := range list {
		if existing.ID == fresh.ID {
			list[i] = &stored
			break
		}
	}
	r.mu.Unlock()
	*c = *fresh

	metrics.CategoryMutations.WithLabelValues("modify").Inc()
	r.audit.Record(ctx, audit.Record{
		GuildID:     fresh.GuildID,
		Action:      "category.modify",
		Title:       "Help Category Modified",
		Description: fmt.Sprintf("The category `%s` (%s) has been modified by %s.", fresh.Name, fresh.ID, staff.Mention()),
		Color:       platform.ColorOrange,
		Fields: []platform.EmbedField{
			{Name: "Old Name", Value: old.Name, Inline: true},
			{Name: "New Name", Value: fresh.Name, Inline: true},
			{Name: "Old Description", Value: orNone(old.Description)},
			{Name: "New Description", Value: orNone(fresh.Description)},
		},
	})
	return nil
}

// DeleteCategory removes c from the store, then from memory. A category
// that still has open questions is not deleted and ErrCategoryInUse is
// returned. When the store delete fails the registry is left unchanged.
func (r *Registry) DeleteCategory(ctx context.Context, c *types.Category, staff platform.Member) error {
	if c == nil {
		return types.ErrInvalidID
	}

	unlock := r.locks.Lock(c.GuildID)
	defer unlock()

	open, err := r.store.Questions().Fetch(ctx, types.Filter{
		types.FilterCategoryID: c.ID,
		types.FilterIsClosed:   false,
		types.FilterLimit:      1,
	})
	if err != nil {
		return fmt.Errorf("checking questions of category %s: %w", c.ID, err)
	}
	if len(open) > 0 {
		return types.ErrCategoryInUse
	}

	if err := r.store.Categories().Delete(ctx, c.ID); err != nil && !errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("deleting category %s: %w", c.ID, err)
	}

	r.mu.Lock()
	list := r.guilds[c.GuildID]
	for i, existing := range list {
		if existing.ID == c.ID {
			r.guilds[c.GuildID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	metrics.CategoryMutations.WithLabelValues("delete").Inc()
	r.audit.Record(ctx, audit.Record{
		GuildID:     c.GuildID,
		Action:      "category.delete",
		Title:       "Help Category Deleted",
		Description: fmt.Sprintf("The category `%s` (%s) has been deleted by %s.", c.Name, c.ID, staff.Mention()),
		Color:       platform.ColorRed,
	})
	return nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "<none>"
	}
	return s
}
