// Package audit records staff actions. Records are written to the process
// log and, when the guild has a log channel, posted there as an embed.
package audit

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Record is a single audited action.
type Record struct {
	GuildID     snowflake.ID
	Action      string // Short machine name, e.g. "category.create".
	Title       string
	Description string
	Color       int
	Fields      []platform.EmbedField
}

// Embed renders the record for posting.
func (r Record) Embed() platform.Embed {
	return platform.Embed{
		Title:       r.Title,
		Description: r.Description,
		Color:       r.Color,
		Fields:      r.Fields,
	}
}

// Logger receives audit records. Implementations must not block callers on
// slow delivery for long and must never fail the audited operation.
type Logger interface {
	Record(ctx context.Context, r Record)
}

// Nop discards every record.
type Nop struct{}

// Record implements Logger.
func (Nop) Record(context.Context, Record) {}

// ChannelLogger logs records and posts them to the guild's log channel.
type ChannelLogger struct {
	client platform.Client
	guilds types.Guilds
	log    zerolog.Logger
}

// NewChannelLogger creates a ChannelLogger.
func NewChannelLogger(client platform.Client, guilds types.Guilds, log zerolog.Logger) *ChannelLogger {
	return &ChannelLogger{
		client: client,
		guilds: guilds,
		log:    log.With().Str("component", "audit").Logger(),
	}
}

// Record implements Logger.
func (l *ChannelLogger) Record(ctx context.Context, r Record) {
	event := l.log.Info().
		Str("guild_id", r.GuildID.String()).
		Str("action", r.Action)
	for _, f := range r.Fields {
		event = event.Str(f.Name, f.Value)
	}
	event.Msg(r.Description)

	channel := l.guilds.Lookup(r.GuildID).LogChannel
	if channel == 0 {
		return
	}
	if _, err := l.client.SendMessage(ctx, channel, platform.MessageContent{
		Embeds: []platform.Embed{r.Embed()},
	}); err != nil {
		l.log.Warn().Err(err).
			Str("guild_id", r.GuildID.String()).
			Str("channel_id", channel.String()).
			Msg("posting audit record")
	}
}

// Recorder collects records in memory. Useful in tests.
type Recorder struct {
	mu      sync.Mutex
	Records []Record
}

// Record implements Logger.
func (r *Recorder) Record(_ context.Context, rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, rec)
}
