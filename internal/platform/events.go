package platform

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// GuildAvailable fires when the platform connection learns about a guild,
// both on first connect and on every reconnect.
type GuildAvailable struct {
	GuildID snowflake.ID
	Name    string
}

// ComponentInteraction fires when a user picks from a Select menu.
type ComponentInteraction struct {
	Interaction
	CustomID string
	Values   []string
}

// ModalSubmit fires when a user submits a Modal.
type ModalSubmit struct {
	Interaction
	CustomID string
	Fields   map[string]string // TextInput custom id to submitted value.
}

// CommandInvocation fires when a user runs a slash command.
type CommandInvocation struct {
	Interaction
	Channel    Channel
	Name       string
	Subcommand string
	Options    map[string]string
}

// Option returns the named option, or "" when absent.
func (c CommandInvocation) Option(name string) string {
	return c.Options[name]
}

// AutocompleteRequest fires while a user types into an autocompleted
// command option.
type AutocompleteRequest struct {
	Interaction
	Name       string
	Subcommand string
	Option     string // the focused option
	Value      string // what has been typed so far
}

// Handlers receives inbound platform events. Nil handlers are skipped.
// Handlers are invoked concurrently.
type Handlers struct {
	GuildAvailable func(ctx context.Context, e GuildAvailable)
	Component      func(ctx context.Context, e ComponentInteraction)
	ModalSubmit    func(ctx context.Context, e ModalSubmit)
	Command        func(ctx context.Context, e CommandInvocation)
	Autocomplete   func(ctx context.Context, e AutocompleteRequest) []OptionChoice
}
