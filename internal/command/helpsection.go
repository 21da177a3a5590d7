package command

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

func (r *Router) askHere(ctx context.Context, e platform.CommandInvocation) reply {
	if _, err := r.prompts.PostPrompt(ctx, e.Channel, nil); err != nil {
		r.log.Warn().Err(err).Str("guild_id", e.GuildID.String()).Msg("posting prompt")
		return failed(err)
	}
	return ok("Ask Here prompt posted.")
}

func (r *Router) addCategory(ctx context.Context, e platform.CommandInvocation) reply {
	name := e.Option(optionName)
	if existing, found := r.categories.CategoryByName(e.GuildID, types.NormalizeCategoryName(name)); found {
		return rejected(types.KindValidation.String(), fmt.Sprintf("A category named `%s` already exists.", existing.Name))
	}
	c, err := r.categories.CreateCategory(ctx, e.GuildID, e.Member, name, e.Option(optionDescription))
	if err != nil {
		return failed(err)
	}
	return ok("", platform.Embed{
		Title: "New Category Created",
		Color: platform.ColorGreen,
		Fields: []platform.EmbedField{
			{Name: "Name", Value: c.Name, Inline: true},
			{Name: "Description", Value: orNone(c.Description)},
		},
	})
}

// lookup resolves the category option or builds the not-found reply.
func (r *Router) lookup(e platform.CommandInvocation) (*types.Category, *reply) {
	ref := e.Option(optionCategory)
	c, found := r.categories.Lookup(e.GuildID, ref)
	if !found {
		res := rejected(types.KindNotFound.String(), fmt.Sprintf("No category `%s` could be found.", ref))
		return nil, &res
	}
	return c, nil
}

func (r *Router) removeCategory(ctx context.Context, e platform.CommandInvocation) reply {
	c, res := r.lookup(e)
	if res != nil {
		return *res
	}
	if err := r.categories.DeleteCategory(ctx, c, e.Member); err != nil {
		return failed(err)
	}
	return ok("", platform.Embed{
		Title:  "Category Deleted",
		Color:  platform.ColorGreen,
		Fields: []platform.EmbedField{{Name: "Name", Value: c.Name, Inline: true}},
	})
}

func (r *Router) renameCategory(ctx context.Context, e platform.CommandInvocation) reply {
	c, res := r.lookup(e)
	if res != nil {
		return *res
	}
	oldName := c.Name
	name := e.Option(optionName)
	if err := r.categories.ModifyCategory(ctx, c, func(c *types.Category) { c.Name = name }, e.Member); err != nil {
		return failed(err)
	}
	return ok("", platform.Embed{
		Title: "Category Renamed",
		Color: platform.ColorOrange,
		Fields: []platform.EmbedField{
			{Name: "Old Name", Value: oldName, Inline: true},
			{Name: "New Name", Value: c.Name, Inline: true},
		},
	})
}

func (r *Router) setDescription(ctx context.Context, e platform.CommandInvocation) reply {
	return r.describe(ctx, e, e.Option(optionDescription))
}

func (r *Router) clearDescription(ctx context.Context, e platform.CommandInvocation) reply {
	return r.describe(ctx, e, "")
}

func (r *Router) describe(ctx context.Context, e platform.CommandInvocation, description string) reply {
	c, res := r.lookup(e)
	if res != nil {
		return *res
	}
	oldDescription := c.Description
	if err := r.categories.ModifyCategory(ctx, c, func(c *types.Category) { c.Description = description }, e.Member); err != nil {
		return failed(err)
	}
	return ok("", platform.Embed{
		Title: "Category Description Modified",
		Color: platform.ColorOrange,
		Fields: []platform.EmbedField{
			{Name: "Old Description", Value: orNone(oldDescription)},
			{Name: "New Description", Value: orNone(c.Description)},
		},
	})
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
