// Package discord adapts a discordgo session to the platform interfaces the
// bot is written against.
package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/bwmarrin/snowflake"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
)

// DefaultRequestsPerSecond keeps the bot comfortably below Discord's global
// limit of 50 requests per second.
const DefaultRequestsPerSecond = 40

// Client implements platform.Client over a discordgo session. Every REST
// call waits on a shared token bucket first.
type Client struct {
	session *discordgo.Session
	limiter *rate.Limiter
}

var _ platform.Client = (*Client)(nil)

// NewClient wraps session. rps at or below zero selects
// DefaultRequestsPerSecond.
func NewClient(session *discordgo.Session, rps float64) *Client {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &Client{
		session: session,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}
}

// wait blocks for a request slot and returns the per-request options.
func (c *Client) wait(ctx context.Context) ([]discordgo.RequestOption, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return []discordgo.RequestOption{discordgo.WithContext(ctx)}, nil
}

func (c *Client) SendMessage(ctx context.Context, channelID snowflake.ID, content platform.MessageContent) (*platform.Message, error) {
	opts, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	m, err := c.session.ChannelMessageSendComplex(channelID.String(), fromContent(content), opts...)
	if err != nil {
		return nil, translate(err)
	}
	return toMessage(m), nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID snowflake.ID, content platform.MessageContent) (*platform.Message, error) {
	opts, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	send := fromContent(content)
	edit := &discordgo.MessageEdit{
		ID:         messageID.String(),
		Channel:    channelID.String(),
		Content:    &send.Content,
		Embeds:     &send.Embeds,
		Components: &send.Components,
	}
	m, err := c.session.ChannelMessageEditComplex(edit, opts...)
	if err != nil {
		return nil, translate(err)
	}
	return toMessage(m), nil
}

func (c *Client) FetchMessage(ctx context.Context, channelID, messageID snowflake.ID) (*platform.Message, error) {
	opts, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	m, err := c.session.ChannelMessage(channelID.String(), messageID.String(), opts...)
	if err != nil {
		return nil, translate(err)
	}
	return toMessage(m), nil
}

// FetchChannel consults the gateway state cache before going to REST.
func (c *Client) FetchChannel(ctx context.Context, channelID snowflake.ID) (*platform.Channel, error) {
	if c.session.State != nil {
		if ch, err := c.session.State.Channel(channelID.String()); err == nil {
			return toChannel(ch), nil
		}
	}
	opts, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := c.session.Channel(channelID.String(), opts...)
	if err != nil {
		return nil, translate(err)
	}
	return toChannel(ch), nil
}

func (c *Client) CreateThread(ctx context.Context, parentID snowflake.ID, name string, autoArchive time.Duration) (*platform.Channel, error) {
	opts, err := c.wait(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := c.session.ThreadStartComplex(parentID.String(), &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: archiveMinutes(autoArchive),
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}, opts...)
	if err != nil {
		return nil, translate(err)
	}
	return toChannel(ch), nil
}

func (c *Client) AddThreadMember(ctx context.Context, threadID, userID snowflake.ID) error {
	opts, err := c.wait(ctx)
	if err != nil {
		return err
	}
	return translate(c.session.ThreadMemberAdd(threadID.String(), userID.String(), opts...))
}

func (c *Client) ModifyThread(ctx context.Context, threadID snowflake.ID, edit platform.ThreadEdit) error {
	opts, err := c.wait(ctx)
	if err != nil {
		return err
	}
	data := &discordgo.ChannelEdit{Locked: edit.Locked, Archived: edit.Archived}
	if edit.Name != nil {
		data.Name = *edit.Name
	}
	_, err = c.session.ChannelEdit(threadID.String(), data, opts...)
	return translate(err)
}

func (c *Client) RespondModal(ctx context.Context, i platform.Interaction, modal platform.Modal) error {
	return c.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: fromModal(modal),
	})
}

func (c *Client) Respond(ctx context.Context, i platform.Interaction, resp platform.Response) error {
	return c.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: resp.Content,
			Embeds:  fromEmbeds(resp.Embeds),
			Flags:   flags(resp.Ephemeral),
		},
	})
}

func (c *Client) DeferResponse(ctx context.Context, i platform.Interaction, ephemeral bool) error {
	return c.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags(ephemeral)},
	})
}

// EditResponse replaces the deferred reply. Visibility was fixed when the
// response was deferred.
func (c *Client) EditResponse(ctx context.Context, i platform.Interaction, resp platform.Response) error {
	opts, err := c.wait(ctx)
	if err != nil {
		return err
	}
	embeds := fromEmbeds(resp.Embeds)
	_, err = c.session.InteractionResponseEdit(fromInteraction(i), &discordgo.WebhookEdit{
		Content: &resp.Content,
		Embeds:  &embeds,
	}, opts...)
	return translate(err)
}

// Autocomplete answers an autocomplete interaction with choices.
func (c *Client) Autocomplete(ctx context.Context, i platform.Interaction, choices []platform.OptionChoice) error {
	return c.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: fromChoices(choices)},
	})
}

func (c *Client) respond(ctx context.Context, i platform.Interaction, resp *discordgo.InteractionResponse) error {
	opts, err := c.wait(ctx)
	if err != nil {
		return err
	}
	return translate(c.session.InteractionRespond(fromInteraction(i), resp, opts...))
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// archiveMinutes rounds d down to one of the durations Discord accepts.
func archiveMinutes(d time.Duration) int {
	m := int(d / time.Minute)
	for _, a := range []int{10080, 4320, 1440} {
		if m >= a {
			return a
		}
	}
	return 60
}
