package bot

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/command"
	"github.com/mesh-intelligence/heapoverflow/internal/pending"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/internal/platform/platformtest"
	"github.com/mesh-intelligence/heapoverflow/internal/sqlite"
	"github.com/mesh-intelligence/heapoverflow/internal/submission"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

const (
	guildID = snowflake.ID(1)
	forumID = snowflake.ID(20)
	askID   = snowflake.ID(21)
)

var (
	staff  = platform.Member{UserID: 99, GuildID: guildID, Username: "mod", IsStaff: true}
	member = platform.Member{UserID: 5, GuildID: guildID, Username: "asker"}
	askCh  = platform.Channel{ID: askID, GuildID: guildID, Name: "ask-here"}
	guilds = types.Guilds{guildID: {ForumChannel: forumID, AskHereChannel: askID}}
)

type fixture struct {
	store  *sqlite.Backend
	client *platformtest.Client
	clock  *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := platformtest.New()
	client.AddChannel(platform.Channel{ID: forumID, GuildID: guildID, Name: "forum"})
	client.AddChannel(askCh)

	return &fixture{
		store:  store,
		client: client,
		clock:  clock.NewFake(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)),
	}
}

// start builds a bot over the fixture and brings the guild online, the way
// a process start followed by the guild-available event does.
func (f *fixture) start(t *testing.T) *Bot {
	t.Helper()
	ctx := context.Background()
	b := New(f.store, f.client, pending.NewMemory(pending.DefaultTTL, f.clock), guilds, f.clock, zerolog.Nop())
	require.NoError(t, b.Start(ctx))
	b.GuildAvailable(ctx, platform.GuildAvailable{GuildID: guildID, Name: "Gophers"})
	return b
}

func staffCommand(sub string, options map[string]string) platform.CommandInvocation {
	return platform.CommandInvocation{
		Interaction: platform.Interaction{ID: 700, Token: "token", GuildID: guildID, ChannelID: askID, Member: staff},
		Channel:     askCh,
		Name:        command.HelpSection,
		Subcommand:  sub,
		Options:     options,
	}
}

func promptIn(t *testing.T, c *platformtest.Client) platformtest.SentMessage {
	t.Helper()
	msgs := c.MessagesIn(askID)
	require.Len(t, msgs, 1, "exactly one prompt in the ask-here channel")
	return msgs[0]
}

func TestGuildAvailablePostsPromptOnce(t *testing.T) {
	f := newFixture(t)
	b := f.start(t)

	prompt := promptIn(t, f.client)
	assert.Nil(t, prompt.Content.Select)
	assert.NotNil(t, b.Questions.GuildChannels(guildID).Forum)

	b.GuildAvailable(context.Background(), platform.GuildAvailable{GuildID: guildID})

	again := promptIn(t, f.client)
	assert.Equal(t, prompt.ID, again.ID)
	assert.Equal(t, 1, again.Edits)
}

func TestGuildWithoutAskHereChannel(t *testing.T) {
	f := newFixture(t)
	b := New(f.store, f.client, pending.NewMemory(0, f.clock), types.Guilds{}, f.clock, zerolog.Nop())
	require.NoError(t, b.Start(context.Background()))

	b.GuildAvailable(context.Background(), platform.GuildAvailable{GuildID: guildID})

	assert.Equal(t, 0, f.client.Calls(platformtest.OpSend))
}

func TestCategoryCommandsRefreshPrompt(t *testing.T) {
	f := newFixture(t)
	b := f.start(t)
	h := b.Handlers()
	ctx := context.Background()

	h.Command(ctx, staffCommand(command.AddCategory, map[string]string{"name": "concurrency"}))

	prompt := promptIn(t, f.client)
	require.NotNil(t, prompt.Content.Select)
	require.Len(t, prompt.Content.Select.Options, 1)
	assert.Equal(t, "Concurrency", prompt.Content.Select.Options[0].Label)

	h.Command(ctx, staffCommand(command.RenameCategory, map[string]string{"category": "concurrency", "name": "goroutines"}))
	prompt = promptIn(t, f.client)
	require.NotNil(t, prompt.Content.Select)
	assert.Equal(t, "Goroutines", prompt.Content.Select.Options[0].Label)

	h.Command(ctx, staffCommand(command.RemoveCategory, map[string]string{"category": "goroutines"}))
	prompt = promptIn(t, f.client)
	assert.Nil(t, prompt.Content.Select)
	assert.Equal(t, 3, prompt.Edits)
}

func TestRejectedCommandLeavesPromptAlone(t *testing.T) {
	f := newFixture(t)
	b := f.start(t)

	cmd := staffCommand(command.AddCategory, map[string]string{"name": "concurrency"})
	cmd.Member = member
	b.Handlers().Command(context.Background(), cmd)

	assert.Equal(t, 0, promptIn(t, f.client).Edits)
	assert.Empty(t, b.Categories.Categories(guildID))
}

func TestHandlersOpenQuestion(t *testing.T) {
	f := newFixture(t)
	b := f.start(t)
	h := b.Handlers()
	ctx := context.Background()

	c, err := b.Categories.CreateCategory(ctx, guildID, staff, "Testing", "")
	require.NoError(t, err)

	i := platform.Interaction{ID: 800, Token: "token", GuildID: guildID, ChannelID: askID, Member: member}
	h.Component(ctx, platform.ComponentInteraction{Interaction: i, CustomID: submission.SelectID, Values: []string{c.ID.String()}})
	require.Len(t, f.client.Modals(), 1)

	h.ModalSubmit(ctx, platform.ModalSubmit{
		Interaction: i,
		CustomID:    submission.ModalID(member),
		Fields:      map[string]string{submission.TitleInput: "How do I table test an HTTP handler?"},
	})

	active := b.Questions.ActiveQuestions(guildID)
	require.Len(t, active, 1)
	reply, ok := f.client.LastReply()
	require.True(t, ok)
	assert.Contains(t, reply.Response.Content, platform.ChannelMention(active[0].ThreadID))

	choices := h.Autocomplete(ctx, platform.AutocompleteRequest{
		Interaction: i,
		Name:        command.HelpSection,
		Subcommand:  command.RemoveCategory,
		Option:      "category",
		Value:       "test",
	})
	require.Len(t, choices, 1)
	assert.Equal(t, c.ID.String(), choices[0].Value)
}

func TestRestartRestoresState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.start(t)
	c, err := first.Categories.CreateCategory(ctx, guildID, staff, "Modules", "")
	require.NoError(t, err)
	q, err := first.Questions.Create(ctx, member, c, "Why does go mod tidy drop my dependency?")
	require.NoError(t, err)
	promptID := promptIn(t, f.client).ID

	second := f.start(t)

	require.Len(t, second.Categories.Categories(guildID), 1)
	active := second.Questions.ActiveQuestions(guildID)
	require.Len(t, active, 1)
	assert.Equal(t, q.ID, active[0].ID)

	prompt := promptIn(t, f.client)
	assert.Equal(t, promptID, prompt.ID, "prompt found through the persisted slot")
	require.NotNil(t, prompt.Content.Select)
	assert.Equal(t, "Modules", prompt.Content.Select.Options[0].Label)
}

func TestCommandsDefinitions(t *testing.T) {
	f := newFixture(t)
	b := New(f.store, f.client, pending.NewMemory(0, f.clock), guilds, f.clock, zerolog.Nop())
	assert.Equal(t, command.Definitions(), b.Commands())
}

func TestQuestionCreationWaitsForCategoryMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.start(t)
	c, err := b.Categories.CreateCategory(ctx, guildID, staff, "Modules", "")
	require.NoError(t, err)

	unlock := b.Categories.GuildLocks().Lock(guildID)
	created := make(chan error, 1)
	go func() {
		_, err := b.Questions.Create(ctx, member, c, "Why does go mod tidy drop my dependency?")
		created <- err
	}()
	assert.Never(t, func() bool { return len(created) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"question is not stored while the guild's categories are being changed")

	unlock()
	require.NoError(t, <-created)
}
