package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
)

// Intents requested from the gateway. Interactions arrive regardless of
// intents; guild events are needed for GuildAvailable and the channel cache.
const Intents = discordgo.IntentsGuilds

// NewSession creates an unopened discordgo session for a bot token.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = Intents
	return s, nil
}

// interactionResponder is what the gateway needs from the REST side.
type interactionResponder interface {
	FetchChannel(ctx context.Context, channelID snowflake.ID) (*platform.Channel, error)
	Autocomplete(ctx context.Context, i platform.Interaction, choices []platform.OptionChoice) error
}

// Gateway turns discordgo events into platform events.
type Gateway struct {
	session  *discordgo.Session
	client   interactionResponder
	commands []*discordgo.ApplicationCommand
	handlers platform.Handlers
	log      zerolog.Logger
}

// NewGateway prepares a gateway that registers commands in every guild it
// joins and forwards events to handlers.
func NewGateway(session *discordgo.Session, client interactionResponder, commands []platform.Command, handlers platform.Handlers, log zerolog.Logger) *Gateway {
	return &Gateway{
		session:  session,
		client:   client,
		commands: fromCommands(commands),
		handlers: handlers,
		log:      log,
	}
}

// Open connects to the gateway. Events are handled with ctx until Close.
func (g *Gateway) Open(ctx context.Context) error {
	g.session.AddHandler(func(s *discordgo.Session, e *discordgo.Ready) {
		g.log.Info().Str("user", e.User.Username).Int("guilds", len(e.Guilds)).Msg("connected to discord")
	})
	g.session.AddHandler(func(s *discordgo.Session, e *discordgo.GuildCreate) {
		g.guildCreate(ctx, e.Guild)
	})
	g.session.AddHandler(func(s *discordgo.Session, e *discordgo.InteractionCreate) {
		g.dispatch(ctx, e.Interaction)
	})
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}

func (g *Gateway) guildCreate(ctx context.Context, guild *discordgo.Guild) {
	if guild == nil || guild.Unavailable {
		return
	}
	log := g.log.With().Str("guild_id", guild.ID).Logger()
	if g.session.State != nil && g.session.State.User != nil {
		_, err := g.session.ApplicationCommandBulkOverwrite(g.session.State.User.ID, guild.ID, g.commands, discordgo.WithContext(ctx))
		if err != nil {
			log.Error().Err(err).Msg("registering commands")
		}
	}
	if g.handlers.GuildAvailable != nil {
		g.handlers.GuildAvailable(ctx, platform.GuildAvailable{GuildID: parseID(guild.ID), Name: guild.Name})
	}
}

// dispatch routes an interaction to the matching handler. Interactions
// outside guilds are ignored.
func (g *Gateway) dispatch(ctx context.Context, i *discordgo.Interaction) {
	if i == nil || i.GuildID == "" || i.Data == nil {
		return
	}
	base := toInteraction(i)
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if g.handlers.Component == nil {
			return
		}
		data := i.MessageComponentData()
		g.handlers.Component(ctx, platform.ComponentInteraction{
			Interaction: base,
			CustomID:    data.CustomID,
			Values:      data.Values,
		})
	case discordgo.InteractionModalSubmit:
		if g.handlers.ModalSubmit == nil {
			return
		}
		data := i.ModalSubmitData()
		g.handlers.ModalSubmit(ctx, platform.ModalSubmit{
			Interaction: base,
			CustomID:    data.CustomID,
			Fields:      modalFields(data.Components),
		})
	case discordgo.InteractionApplicationCommand:
		if g.handlers.Command == nil {
			return
		}
		data := i.ApplicationCommandData()
		sub, options, _ := commandPath(data)
		g.handlers.Command(ctx, platform.CommandInvocation{
			Interaction: base,
			Channel:     g.channel(ctx, base),
			Name:        data.Name,
			Subcommand:  sub,
			Options:     options,
		})
	case discordgo.InteractionApplicationCommandAutocomplete:
		g.autocomplete(ctx, base, i.ApplicationCommandData())
	}
}

// channel resolves where a command ran. When the lookup fails the command
// is treated as running in a plain channel.
func (g *Gateway) channel(ctx context.Context, i platform.Interaction) platform.Channel {
	ch, err := g.client.FetchChannel(ctx, i.ChannelID)
	if err != nil {
		g.log.Warn().Err(err).Str("channel_id", i.ChannelID.String()).Msg("resolving command channel")
		return platform.Channel{ID: i.ChannelID, GuildID: i.GuildID}
	}
	return *ch
}

func (g *Gateway) autocomplete(ctx context.Context, base platform.Interaction, data discordgo.ApplicationCommandInteractionData) {
	sub, _, focused := commandPath(data)
	if focused == nil {
		return
	}
	var choices []platform.OptionChoice
	if g.handlers.Autocomplete != nil {
		value, _ := focused.Value.(string)
		choices = g.handlers.Autocomplete(ctx, platform.AutocompleteRequest{
			Interaction: base,
			Name:        data.Name,
			Subcommand:  sub,
			Option:      focused.Name,
			Value:       value,
		})
	}
	if err := g.client.Autocomplete(ctx, base, choices); err != nil {
		g.log.Warn().Err(err).Str("command", data.Name).Msg("answering autocomplete")
	}
}
