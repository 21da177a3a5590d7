package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/heapoverflow/internal/audit"
	"github.com/mesh-intelligence/heapoverflow/internal/category"
	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/msgcache"
	"github.com/mesh-intelligence/heapoverflow/internal/pending"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/internal/platform/platformtest"
	"github.com/mesh-intelligence/heapoverflow/internal/question"
	"github.com/mesh-intelligence/heapoverflow/internal/sqlite"
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
)

type fixture struct {
	store      *sqlite.Backend
	client     *platformtest.Client
	clock      *clock.Fake
	categories *category.Registry
	questions  *question.Lifecycle
	cache      *msgcache.Cache
	pending    *pending.Memory
	workflow   *Workflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := platformtest.New()
	client.AddChannel(platform.Channel{ID: forumID, GuildID: guildID, Name: "forum"})
	client.AddChannel(askCh)

	guilds := types.Guilds{guildID: {ForumChannel: forumID, AskHereChannel: askID}}
	clk := clock.NewFake(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	log := zerolog.Nop()

	categories := category.New(store, audit.Nop{}, clk, log)
	questions := question.New(store, client, guilds, clk, log)
	questions.ShareGuildLocks(categories.GuildLocks())
	questions.RegisterGuild(ctx, guildID)
	cache := msgcache.New(store.CachedMessages(), client, log)
	require.NoError(t, cache.Load(ctx))
	selections := pending.NewMemory(pending.DefaultTTL, clk)

	return &fixture{
		store:      store,
		client:     client,
		clock:      clk,
		categories: categories,
		questions:  questions,
		cache:      cache,
		pending:    selections,
		workflow:   New(categories, questions, cache, selections, client, guilds, clk, log),
	}
}

func (f *fixture) addCategory(t *testing.T, name string) *types.Category {
	t.Helper()
	c, err := f.categories.CreateCategory(context.Background(), guildID, staff, name, "")
	require.NoError(t, err)
	return c
}

func interaction(m platform.Member) platform.Interaction {
	return platform.Interaction{ID: 500, Token: "token", GuildID: guildID, ChannelID: askID, Member: m}
}

func (f *fixture) selectCategory(t *testing.T, m platform.Member, c *types.Category) {
	t.Helper()
	require.NoError(t, f.workflow.HandleSelect(context.Background(), platform.ComponentInteraction{
		Interaction: interaction(m),
		CustomID:    SelectID,
		Values:      []string{c.ID.String()},
	}))
}

func (f *fixture) submitTitle(t *testing.T, m platform.Member, title string) error {
	t.Helper()
	return f.workflow.HandleModal(context.Background(), platform.ModalSubmit{
		Interaction: interaction(m),
		CustomID:    ModalID(m),
		Fields:      map[string]string{TitleInput: title},
	})
}

func (f *fixture) questionsOf(t *testing.T) []*types.Question {
	t.Helper()
	all, err := f.store.Questions().Fetch(context.Background(), types.Filter{types.FilterGuildID: guildID})
	require.NoError(t, err)
	return all
}

func lastReply(t *testing.T, c *platformtest.Client) platform.Response {
	t.Helper()
	r, ok := c.LastReply()
	require.True(t, ok)
	return r.Response
}

func TestPromptEditedInPlaceAfterCategoryAdded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.workflow.PostPrompt(ctx, askCh, nil)
	require.NoError(t, err)
	posted, ok := f.client.Message(first.ID)
	require.True(t, ok)
	assert.Nil(t, posted.Content.Select)
	assert.Equal(t, "❌ No categories found", posted.Content.Embeds[0].Title)

	f.addCategory(t, "homework help")

	second, err := f.workflow.PostPrompt(ctx, askCh, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same message edited in place")
	assert.Len(t, f.client.MessagesIn(askID), 1)

	edited, _ := f.client.Message(first.ID)
	assert.Equal(t, 1, edited.Edits)
	require.NotNil(t, edited.Content.Select)
	require.Len(t, edited.Content.Select.Options, 1)
	assert.Equal(t, "Homework Help", edited.Content.Select.Options[0].Label)
}

func TestPostPrompt(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, f *fixture)
	}{
		{
			name: "explicit message wins over cached slot",
			check: func(t *testing.T, f *fixture) {
				ctx := context.Background()
				cached, err := f.workflow.PostPrompt(ctx, askCh, nil)
				require.NoError(t, err)
				other, err := f.client.SendMessage(ctx, askID, platform.MessageContent{Content: "placeholder"})
				require.NoError(t, err)

				got, err := f.workflow.PostPrompt(ctx, askCh, other)
				require.NoError(t, err)
				assert.Equal(t, other.ID, got.ID)
				untouched, _ := f.client.Message(cached.ID)
				assert.Equal(t, 0, untouched.Edits)
			},
		},
		{
			name: "deleted prompt is replaced and recached",
			check: func(t *testing.T, f *fixture) {
				ctx := context.Background()
				first, err := f.workflow.PostPrompt(ctx, askCh, nil)
				require.NoError(t, err)
				f.client.DeleteMessage(first.ID)

				second, err := f.workflow.PostPrompt(ctx, askCh, nil)
				require.NoError(t, err)
				assert.NotEqual(t, first.ID, second.ID)
				entry, ok := f.cache.Entry(guildID, PromptSlot)
				require.True(t, ok)
				assert.Equal(t, second.ID, entry.MessageID)
			},
		},
		{
			name: "channel outside a guild is rejected",
			check: func(t *testing.T, f *fixture) {
				_, err := f.workflow.PostPrompt(context.Background(), platform.Channel{ID: 3}, nil)
				assert.ErrorIs(t, err, types.ErrNotGuildChannel)
				assert.Equal(t, 0, f.client.Calls(platformtest.OpSend))
			},
		},
		{
			name: "send failure is returned",
			check: func(t *testing.T, f *fixture) {
				f.client.FailOn(platformtest.OpSend, errors.New("missing access"))
				_, err := f.workflow.PostPrompt(context.Background(), askCh, nil)
				assert.Error(t, err)
				_, ok := f.cache.Entry(guildID, PromptSlot)
				assert.False(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newFixture(t))
		})
	}
}

func TestSelectThenSubmitCreatesQuestion(t *testing.T) {
	f := newFixture(t)
	a := f.addCategory(t, "Homework Help")
	f.addCategory(t, "Syntax")

	f.selectCategory(t, member, a)
	modals := f.client.Modals()
	require.Len(t, modals, 1)
	assert.Equal(t, "ask-5", modals[0].CustomID)

	title := "Why does my loop hang"
	require.Len(t, title, 21)
	require.NoError(t, f.submitTitle(t, member, title))

	all := f.questionsOf(t)
	require.Len(t, all, 1)
	q := all[0]
	assert.Equal(t, a.ID, q.CategoryID)
	assert.Equal(t, title, q.Title)
	assert.False(t, q.IsClosed)

	th, ok := f.client.Thread(q.ThreadID)
	require.True(t, ok)
	assert.Contains(t, th.Members, member.UserID)
	assert.True(t, th.Locked)

	reply := lastReply(t, f.client)
	assert.True(t, reply.Ephemeral)
	assert.Contains(t, reply.Content, platform.ChannelMention(q.ThreadID))
	replies := f.client.Replies()
	assert.True(t, replies[0].Deferred)
}

func TestBlankTitleConsumesSelection(t *testing.T) {
	f := newFixture(t)
	a := f.addCategory(t, "Homework Help")

	f.selectCategory(t, member, a)
	require.NoError(t, f.submitTitle(t, member, "   "))

	assert.Empty(t, f.questionsOf(t))
	assert.Contains(t, lastReply(t, f.client).Content, "blank")

	require.NoError(t, f.submitTitle(t, member, "A perfectly good question title"))
	assert.Empty(t, f.questionsOf(t), "selection cannot be reused")
	assert.Equal(t, expiredNotice, lastReply(t, f.client).Content)
}

func TestHandleModal(t *testing.T) {
	tests := []struct {
		name      string
		run       func(t *testing.T, f *fixture, c *types.Category) error
		wantErr   bool
		wantReply string
	}{
		{
			name: "no pending selection",
			run: func(t *testing.T, f *fixture, _ *types.Category) error {
				return f.submitTitle(t, member, "A perfectly good question title")
			},
			wantReply: expiredNotice,
		},
		{
			name: "expired selection",
			run: func(t *testing.T, f *fixture, c *types.Category) error {
				f.selectCategory(t, member, c)
				f.clock.Advance(pending.DefaultTTL)
				return f.submitTitle(t, member, "A perfectly good question title")
			},
			wantReply: expiredNotice,
		},
		{
			name: "form of another member",
			run: func(t *testing.T, f *fixture, c *types.Category) error {
				f.selectCategory(t, member, c)
				return f.workflow.HandleModal(context.Background(), platform.ModalSubmit{
					Interaction: interaction(member),
					CustomID:    "ask-6",
					Fields:      map[string]string{TitleInput: "A perfectly good question title"},
				})
			},
			wantReply: expiredNotice,
		},
		{
			name: "category deleted between phases",
			run: func(t *testing.T, f *fixture, c *types.Category) error {
				f.selectCategory(t, member, c)
				require.NoError(t, f.categories.DeleteCategory(context.Background(), c, staff))
				return f.submitTitle(t, member, "A perfectly good question title")
			},
			wantReply: "The category you picked no longer exists. Please pick another one.",
		},
		{
			name: "thread creation fails",
			run: func(t *testing.T, f *fixture, c *types.Category) error {
				f.selectCategory(t, member, c)
				f.client.FailOn(platformtest.OpCreateThread, errors.New("rate limited"))
				return f.submitTitle(t, member, "A perfectly good question title")
			},
			wantErr:   true,
			wantReply: "Something went wrong while opening your question. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := f.addCategory(t, "Homework Help")

			err := tt.run(t, f, c)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Empty(t, f.questionsOf(t))
			reply := lastReply(t, f.client)
			assert.True(t, reply.Ephemeral)
			assert.Equal(t, tt.wantReply, reply.Content)
		})
	}
}

func TestIncompleteCreationStillReportsThread(t *testing.T) {
	f := newFixture(t)
	c := f.addCategory(t, "Homework Help")
	f.selectCategory(t, member, c)
	f.client.FailOn(platformtest.OpAddMember, errors.New("missing access"))

	require.NoError(t, f.submitTitle(t, member, "A perfectly good question title"))

	all := f.questionsOf(t)
	require.Len(t, all, 1)
	assert.Contains(t, lastReply(t, f.client).Content, platform.ChannelMention(all[0].ThreadID))
}

func TestHandleSelect(t *testing.T) {
	tests := []struct {
		name  string
		event func(c *types.Category) platform.ComponentInteraction
		check func(t *testing.T, f *fixture)
	}{
		{
			name: "other components ignored",
			event: func(c *types.Category) platform.ComponentInteraction {
				return platform.ComponentInteraction{Interaction: interaction(member), CustomID: "other", Values: []string{c.ID.String()}}
			},
			check: func(t *testing.T, f *fixture) {
				assert.Empty(t, f.client.Modals())
				assert.Empty(t, f.client.Replies())
			},
		},
		{
			name: "unknown category answered without modal",
			event: func(*types.Category) platform.ComponentInteraction {
				return platform.ComponentInteraction{Interaction: interaction(member), CustomID: SelectID, Values: []string{uuid.NewString()}}
			},
			check: func(t *testing.T, f *fixture) {
				assert.Empty(t, f.client.Modals())
				assert.True(t, lastReply(t, f.client).Ephemeral)
				assert.Equal(t, 0, f.pending.Len())
			},
		},
		{
			name: "malformed value answered without modal",
			event: func(*types.Category) platform.ComponentInteraction {
				return platform.ComponentInteraction{Interaction: interaction(member), CustomID: SelectID, Values: []string{"not-a-uuid"}}
			},
			check: func(t *testing.T, f *fixture) {
				assert.Empty(t, f.client.Modals())
				assert.Len(t, f.client.Replies(), 1)
			},
		},
		{
			name: "reselecting replaces the earlier choice",
			event: func(c *types.Category) platform.ComponentInteraction {
				return platform.ComponentInteraction{Interaction: interaction(member), CustomID: SelectID, Values: []string{c.ID.String()}}
			},
			check: func(t *testing.T, f *fixture) {
				other := f.addCategory(t, "Syntax")
				f.selectCategory(t, member, other)
				assert.Equal(t, 1, f.pending.Len())

				require.NoError(t, f.submitTitle(t, member, "A perfectly good question title"))
				all := f.questionsOf(t)
				require.Len(t, all, 1)
				assert.Equal(t, other.ID, all[0].CategoryID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := f.addCategory(t, "Homework Help")
			require.NoError(t, f.workflow.HandleSelect(context.Background(), tt.event(c)))
			tt.check(t, f)
		})
	}
}
