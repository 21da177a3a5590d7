package bot

import (
	"context"

	"github.com/bwmarrin/snowflake"

	"github.com/mesh-intelligence/heapoverflow/internal/category"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// refreshingCategories refreshes the entry prompt after every successful
// category mutation made through commands.
type refreshingCategories struct {
	*category.Registry
	bot *Bot
}

func (r *refreshingCategories) CreateCategory(ctx context.Context, guildID snowflake.ID, staff platform.Member, name, description string) (*types.Category, error) {
	c, err := r.Registry.CreateCategory(ctx, guildID, staff, name, description)
	if err == nil {
		r.bot.RefreshPrompt(ctx, guildID)
	}
	return c, err
}

func (r *refreshingCategories) ModifyCategory(ctx context.Context, c *types.Category, mutate func(*types.Category), staff platform.Member) error {
	err := r.Registry.ModifyCategory(ctx, c, mutate, staff)
	if err == nil {
		r.bot.RefreshPrompt(ctx, c.GuildID)
	}
	return err
}

func (r *refreshingCategories) DeleteCategory(ctx context.Context, c *types.Category, staff platform.Member) error {
	err := r.Registry.DeleteCategory(ctx, c, staff)
	if err == nil {
		r.bot.RefreshPrompt(ctx, c.GuildID)
	}
	return err
}
