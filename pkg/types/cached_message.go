package types

import "github.com/bwmarrin/snowflake"

// CachedMessage records where the most recent message for a named UI slot
// lives. Identity is (GuildID, Key); a new message for the same slot
// overwrites the row.
type CachedMessage struct {
	GuildID   snowflake.ID `json:"guild_id"`
	Key       string       `json:"key"`
	ChannelID snowflake.ID `json:"channel_id"`
	MessageID snowflake.ID `json:"message_id"`
}
