// Package platform defines the boundary between heapoverflow and the chat
// platform it runs on: the value types the services exchange, the outbound
// Client operations and the inbound event handlers.
package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Errors a Client returns when the platform no longer knows an object.
var (
	ErrUnknownMessage = errors.New("unknown message")
	ErrUnknownChannel = errors.New("unknown channel")
)

// IsGone reports whether err says the target message or channel no longer
// exists.
func IsGone(err error) bool {
	return errors.Is(err, ErrUnknownMessage) || errors.Is(err, ErrUnknownChannel)
}

// Member is a guild member as seen by an interaction.
type Member struct {
	UserID    snowflake.ID
	GuildID   snowflake.ID
	Username  string
	AvatarURL string
	IsStaff   bool // Holds the guild's message-management permission.
}

// Mention returns the platform mention markup for the member.
func (m Member) Mention() string {
	return Mention(m.UserID)
}

// Mention returns the platform mention markup for a user id.
func Mention(userID snowflake.ID) string {
	return fmt.Sprintf("<@%s>", userID)
}

// ChannelMention returns the platform mention markup for a channel id.
func ChannelMention(channelID snowflake.ID) string {
	return fmt.Sprintf("<#%s>", channelID)
}

// Channel is a guild channel or thread. GuildID is zero for direct messages.
type Channel struct {
	ID       snowflake.ID
	GuildID  snowflake.ID
	ParentID snowflake.ID
	Name     string
	IsThread bool
}

// Message identifies a sent message.
type Message struct {
	ID        snowflake.ID
	ChannelID snowflake.ID
	GuildID   snowflake.ID
}

// EmbedField is a name/value pair rendered inside an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message card.
type Embed struct {
	Title       string
	Description string
	Color       int
	Thumbnail   string
	Footer      string
	Fields      []EmbedField
}

// SelectOption is one entry of a Select menu.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// Select is a single-choice dropdown attached to a message.
type Select struct {
	CustomID    string
	Placeholder string
	Options     []SelectOption
}

// MessageContent is everything a message may carry. Editing a message
// replaces all of it.
type MessageContent struct {
	Content string
	Embeds  []Embed
	Select  *Select
}

// TextInput is a single-line input inside a Modal.
type TextInput struct {
	CustomID    string
	Label       string
	Placeholder string
	MinLength   int
	MaxLength   int
}

// Modal is a pop-up form answered with a ModalSubmit event.
type Modal struct {
	CustomID string
	Title    string
	Inputs   []TextInput
}

// ThreadEdit changes thread properties. Nil fields are left untouched.
type ThreadEdit struct {
	Name     *string
	Locked   *bool
	Archived *bool
}

// Interaction carries what is needed to answer a user interaction.
type Interaction struct {
	ID        snowflake.ID
	AppID     snowflake.ID
	Token     string
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Member    Member
}

// Response is a reply to an Interaction.
type Response struct {
	Content   string
	Embeds    []Embed
	Ephemeral bool
}

// Client performs outbound platform operations. Implementations must be safe
// for concurrent use and return ErrUnknownMessage or ErrUnknownChannel
// (possibly wrapped) when the target no longer exists.
type Client interface {
	SendMessage(ctx context.Context, channelID snowflake.ID, content MessageContent) (*Message, error)
	EditMessage(ctx context.Context, channelID, messageID snowflake.ID, content MessageContent) (*Message, error)
	FetchMessage(ctx context.Context, channelID, messageID snowflake.ID) (*Message, error)
	FetchChannel(ctx context.Context, channelID snowflake.ID) (*Channel, error)

	// CreateThread starts a public thread under parentID that archives
	// itself after autoArchive of inactivity.
	CreateThread(ctx context.Context, parentID snowflake.ID, name string, autoArchive time.Duration) (*Channel, error)
	AddThreadMember(ctx context.Context, threadID, userID snowflake.ID) error
	ModifyThread(ctx context.Context, threadID snowflake.ID, edit ThreadEdit) error

	RespondModal(ctx context.Context, i Interaction, modal Modal) error
	Respond(ctx context.Context, i Interaction, resp Response) error

	// DeferResponse acknowledges i; the answer follows with EditResponse.
	DeferResponse(ctx context.Context, i Interaction, ephemeral bool) error
	EditResponse(ctx context.Context, i Interaction, resp Response) error
}

// Embed colours.
const (
	ColorGreen  = 0x2ECC71
	ColorRed    = 0xE74C3C
	ColorOrange = 0xE67E22
)
