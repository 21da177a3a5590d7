// Package bot wires the registries, the question lifecycle and the
// submission workflow to a chat platform and keeps them warm.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/audit"
	"github.com/mesh-intelligence/heapoverflow/internal/category"
	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/command"
	"github.com/mesh-intelligence/heapoverflow/internal/msgcache"
	"github.com/mesh-intelligence/heapoverflow/internal/pending"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/internal/question"
	"github.com/mesh-intelligence/heapoverflow/internal/submission"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Bot owns every service of a running instance.
type Bot struct {
	Cache       *msgcache.Cache
	Categories  *category.Registry
	Questions   *question.Lifecycle
	Submissions *submission.Workflow
	Router      *command.Router

	client platform.Client
	log    zerolog.Logger
}

// New builds the services over store and client. Audit records go to each
// guild's log channel.
func New(store types.Store, client platform.Client, selections pending.Store, guilds types.Guilds, clk clock.Clock, log zerolog.Logger) *Bot {
	b := &Bot{
		client: client,
		log:    log.With().Str("component", "bot").Logger(),
	}
	b.Cache = msgcache.New(store.CachedMessages(), client, log)
	b.Categories = category.New(store, audit.NewChannelLogger(client, guilds, log), clk, log)
	b.Questions = question.New(store, client, guilds, clk, log)
	b.Questions.ShareGuildLocks(b.Categories.GuildLocks())
	b.Submissions = submission.New(b.Categories, b.Questions, b.Cache, selections, client, guilds, clk, log)
	b.Router = command.New(&refreshingCategories{Registry: b.Categories, bot: b}, b.Questions, b.Submissions, client, log)
	return b
}

// Start warms the message cache. It must complete before events are
// handled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.Cache.Load(ctx); err != nil {
		return fmt.Errorf("warming message cache: %w", err)
	}
	return nil
}

// Commands returns the slash commands to register in every guild.
func (b *Bot) Commands() []platform.Command {
	return command.Definitions()
}

// Handlers returns the platform event handlers.
func (b *Bot) Handlers() platform.Handlers {
	return platform.Handlers{
		GuildAvailable: b.GuildAvailable,
		Component: func(ctx context.Context, e platform.ComponentInteraction) {
			if err := b.Submissions.HandleSelect(ctx, e); err != nil {
				b.log.Error().Err(err).Str("guild_id", e.GuildID.String()).Msg("handling category selection")
			}
		},
		ModalSubmit: func(ctx context.Context, e platform.ModalSubmit) {
			if err := b.Submissions.HandleModal(ctx, e); err != nil {
				b.log.Error().Err(err).Str("guild_id", e.GuildID.String()).Msg("handling question form")
			}
		},
		Command: func(ctx context.Context, e platform.CommandInvocation) {
			if err := b.Router.Handle(ctx, e); err != nil {
				b.log.Error().Err(err).Str("guild_id", e.GuildID.String()).Str("command", e.Name).Msg("handling command")
			}
		},
		Autocomplete: b.Router.Autocomplete,
	}
}

// GuildAvailable registers the guild's channels, loads its categories and
// open questions, and brings its entry prompt up to date. Running it again
// after a reconnect replaces the guild's state.
func (b *Bot) GuildAvailable(ctx context.Context, e platform.GuildAvailable) {
	log := b.log.With().Str("guild_id", e.GuildID.String()).Logger()

	b.Questions.RegisterGuild(ctx, e.GuildID)
	if err := b.Categories.LoadGuild(ctx, e.GuildID); err != nil {
		log.Error().Err(err).Msg("loading categories")
	}
	if err := b.Questions.LoadGuild(ctx, e.GuildID); err != nil {
		log.Error().Err(err).Msg("loading open questions")
	}
	b.RefreshPrompt(ctx, e.GuildID)

	log.Info().
		Str("guild", e.Name).
		Int("categories", len(b.Categories.Categories(e.GuildID))).
		Int("open_questions", len(b.Questions.ActiveQuestions(e.GuildID))).
		Msg("guild ready")
}

// RefreshPrompt re-renders the guild's entry prompt. It edits the cached
// prompt when there is one, else posts to the configured ask-here channel,
// else does nothing.
func (b *Bot) RefreshPrompt(ctx context.Context, guildID snowflake.ID) {
	var channel platform.Channel
	var msg *platform.Message
	if cached, ok := b.Cache.Get(ctx, guildID, submission.PromptSlot); ok {
		msg = cached
		channel = platform.Channel{ID: cached.ChannelID, GuildID: guildID}
	} else if askHere := b.Questions.GuildChannels(guildID).AskHere; askHere != nil {
		channel = *askHere
	} else {
		return
	}
	if _, err := b.Submissions.PostPrompt(ctx, channel, msg); err != nil {
		b.log.Warn().Err(err).Str("guild_id", guildID.String()).Msg("refreshing prompt")
	}
}
