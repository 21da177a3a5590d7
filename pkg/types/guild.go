package types

import "github.com/bwmarrin/snowflake"

// Default embed colours used when a guild does not configure its own.
const (
	DefaultPrimaryColor   = 0x9B59B6 // purple
	DefaultSecondaryColor = 0xF1C40F // yellow
)

// GuildConfig holds the per-guild channel wiring and colours. Zero channel
// ids mean "not configured".
type GuildConfig struct {
	ForumChannel           snowflake.ID `json:"forum_channel" yaml:"forum_channel" mapstructure:"forum_channel"`
	AskHereChannel         snowflake.ID `json:"ask_here_channel" yaml:"ask_here_channel" mapstructure:"ask_here_channel"`
	ActiveQuestionsChannel snowflake.ID `json:"active_questions_channel" yaml:"active_questions_channel" mapstructure:"active_questions_channel"`
	LogChannel             snowflake.ID `json:"log_channel" yaml:"log_channel" mapstructure:"log_channel"`
	PrimaryColor           int          `json:"primary_color" yaml:"primary_color" mapstructure:"primary_color"`
	SecondaryColor         int          `json:"secondary_color" yaml:"secondary_color" mapstructure:"secondary_color"`
}

// Primary returns the configured primary colour or DefaultPrimaryColor.
func (g GuildConfig) Primary() int {
	if g.PrimaryColor == 0 {
		return DefaultPrimaryColor
	}
	return g.PrimaryColor
}

// Secondary returns the configured secondary colour or DefaultSecondaryColor.
func (g GuildConfig) Secondary() int {
	if g.SecondaryColor == 0 {
		return DefaultSecondaryColor
	}
	return g.SecondaryColor
}

// Guilds maps guild ids to their configuration.
type Guilds map[snowflake.ID]GuildConfig

// Lookup returns the configuration of id, or the zero GuildConfig when the
// guild is not configured.
func (g Guilds) Lookup(id snowflake.ID) GuildConfig {
	return g[id]
}
