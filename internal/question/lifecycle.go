// Package question runs the question lifecycle: provisioning a thread for a
// new question, tracking open questions per guild, and closing them.
//
// A question is Open until it is closed; closing is terminal. The active
// index holds exactly the open questions of every warmed-up guild and is
// keyed by thread id.
package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/keylock"
	"github.com/mesh-intelligence/heapoverflow/internal/metrics"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// AutoArchive is how long a question thread may stay idle before the
// platform archives it.
const AutoArchive = 72 * time.Hour

// Channels are the resolved per-guild channels. Nil means not configured or
// not reachable.
type Channels struct {
	Forum           *platform.Channel
	AskHere         *platform.Channel
	ActiveQuestions *platform.Channel
}

// Lifecycle is the question service.
type Lifecycle struct {
	store  types.Store
	client platform.Client
	guilds types.Guilds
	clock  clock.Clock
	log    zerolog.Logger

	locks      keylock.Map[uuid.UUID]     // serializes Close and Rename per question
	guildLocks *keylock.Map[snowflake.ID] // serializes store writes and index updates per guild

	mu       sync.RWMutex
	channels map[snowflake.ID]Channels
	active   map[snowflake.ID]*types.Question // thread id to open question
}

// New creates a Lifecycle.
func New(store types.Store, client platform.Client, guilds types.Guilds, clk clock.Clock, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		store:      store,
		client:     client,
		guilds:     guilds,
		clock:      clk,
		log:        log.With().Str("component", "question").Logger(),
		guildLocks: new(keylock.Map[snowflake.ID]),
		channels:   make(map[snowflake.ID]Channels),
		active:     make(map[snowflake.ID]*types.Question),
	}
}

// ShareGuildLocks makes l serialize its per-guild work on locks, typically
// the category registry's. Call it before l is used.
func (l *Lifecycle) ShareGuildLocks(locks *keylock.Map[snowflake.ID]) {
	l.guildLocks = locks
}

// RegisterGuild resolves the guild's configured channels. A channel that
// cannot be fetched is logged and left unregistered.
func (l *Lifecycle) RegisterGuild(ctx context.Context, guildID snowflake.ID) {
	cfg := l.guilds.Lookup(guildID)
	resolve := func(name string, id snowflake.ID) *platform.Channel {
		if id == 0 {
			return nil
		}
		ch, err := l.client.FetchChannel(ctx, id)
		if err != nil {
			l.log.Warn().Err(err).
				Str("guild_id", guildID.String()).
				Str("channel_id", id.String()).
				Msgf("%s channel unavailable", name)
			return nil
		}
		return ch
	}

	channels := Channels{
		Forum:           resolve("forum", cfg.ForumChannel),
		AskHere:         resolve("ask-here", cfg.AskHereChannel),
		ActiveQuestions: resolve("active-questions", cfg.ActiveQuestionsChannel),
	}

	l.mu.Lock()
	l.channels[guildID] = channels
	l.mu.Unlock()
}

// GuildChannels returns the channels registered for guildID.
func (l *Lifecycle) GuildChannels(guildID snowflake.ID) Channels {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.channels[guildID]
}

// LoadGuild replaces the guild's part of the active index with its open
// questions from the store. Creations and closures of the guild's questions
// wait until the load is done.
func (l *Lifecycle) LoadGuild(ctx context.Context, guildID snowflake.ID) error {
	unlock := l.guildLocks.Lock(guildID)
	defer unlock()

	open, err := l.store.Questions().Fetch(ctx, types.Filter{
		types.FilterGuildID:  guildID,
		types.FilterIsClosed: false,
	})
	if err != nil {
		return fmt.Errorf("loading questions of guild %s: %w", guildID, err)
	}

	l.mu.Lock()
	for thread, q := range l.active {
		if q.GuildID == guildID {
			delete(l.active, thread)
		}
	}
	for _, q := range open {
		l.active[q.ThreadID] = q
	}
	l.mu.Unlock()

	l.log.Info().
		Str("guild_id", guildID.String()).
		Int("count", len(open)).
		Msg("active questions loaded")
	return nil
}

// ActiveQuestions returns copies of the guild's open questions.
func (l *Lifecycle) ActiveQuestions(guildID snowflake.ID) []*types.Question {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*types.Question
	for _, q := range l.active {
		if q.GuildID == guildID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out
}

// Create opens a question for member in category. It validates the title,
// provisions a thread under the guild's forum channel, persists the
// question and indexes it as active; then it adds the member to the
// thread, locks it, and posts the intro and guidance messages.
//
// When persisting fails the new thread is archived and the error returned.
// Failures after persistence are not rolled back: the question is returned
// together with an error wrapping ErrIncomplete.
func (l *Lifecycle) Create(ctx context.Context, member platform.Member, category *types.Category, title string) (*types.Question, error) {
	if category == nil {
		return nil, fmt.Errorf("creating question: no category: %w", types.ErrNotFound)
	}
	if err := types.ValidateTitle(title); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)

	forum := l.GuildChannels(member.GuildID).Forum
	if forum == nil {
		return nil, types.ErrForumNotConfigured
	}

	thread, err := l.client.CreateThread(ctx, forum.ID, ThreadName(category.Name, title), AutoArchive)
	if err != nil {
		return nil, fmt.Errorf("creating thread: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		l.archiveOrphan(ctx, thread.ID)
		return nil, fmt.Errorf("generating UUID v7: %w", err)
	}
	q := &types.Question{
		ID:         id,
		GuildID:    member.GuildID,
		CategoryID: category.ID,
		AuthorID:   member.UserID,
		Title:      title,
		Tags:       []string{},
		ThreadID:   thread.ID,
		CreatedAt:  l.clock.Now().UTC(),
	}
	if err := l.persist(ctx, q); err != nil {
		l.archiveOrphan(ctx, thread.ID)
		return nil, err
	}

	metrics.QuestionsCreated.Inc()
	l.log.Info().
		Str("guild_id", q.GuildID.String()).
		Str("question_id", q.ID.String()).
		Str("thread_id", q.ThreadID.String()).
		Str("category", category.Name).
		Str("author_id", q.AuthorID.String()).
		Msg("question created")

	cfg := l.guilds.Lookup(member.GuildID)
	locked := true
	var errs []error
	if err := l.client.AddThreadMember(ctx, thread.ID, member.UserID); err != nil {
		errs = append(errs, fmt.Errorf("adding member: %w", err))
	}
	if err := l.client.ModifyThread(ctx, thread.ID, platform.ThreadEdit{Locked: &locked}); err != nil {
		errs = append(errs, fmt.Errorf("locking thread: %w", err))
	}
	if _, err := l.client.SendMessage(ctx, thread.ID, platform.MessageContent{
		Embeds: []platform.Embed{introEmbed(member, category, title, cfg.Primary())},
	}); err != nil {
		errs = append(errs, fmt.Errorf("posting intro: %w", err))
	}
	if _, err := l.client.SendMessage(ctx, thread.ID, guidance(member, cfg.Secondary())); err != nil {
		errs = append(errs, fmt.Errorf("posting guidance: %w", err))
	}
	if len(errs) > 0 {
		err := errors.Join(append([]error{types.ErrIncomplete}, errs...)...)
		l.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("question setup incomplete")
		return q, err
	}
	return q, nil
}

// persist stores q and indexes it as active. The category must still exist;
// the check and the write happen under the guild lock so a concurrent
// category deletion either sees the question or removes the category first.
func (l *Lifecycle) persist(ctx context.Context, q *types.Question) error {
	unlock := l.guildLocks.Lock(q.GuildID)
	defer unlock()

	if _, err := l.store.Categories().Get(ctx, q.CategoryID); err != nil {
		return fmt.Errorf("persisting question: category %s: %w", q.CategoryID, err)
	}
	if err := l.store.Questions().Set(ctx, q); err != nil {
		return fmt.Errorf("persisting question: %w", err)
	}

	indexed := *q
	l.mu.Lock()
	l.active[q.ThreadID] = &indexed
	l.mu.Unlock()
	return nil
}

func (l *Lifecycle) archiveOrphan(ctx context.Context, threadID snowflake.ID) {
	archived := true
	if err := l.client.ModifyThread(ctx, threadID, platform.ThreadEdit{Archived: &archived}); err != nil {
		l.log.Warn().Err(err).Str("thread_id", threadID.String()).Msg("archiving orphan thread")
	}
}

// Close closes q for reason on behalf of closer. Closing a closed question
// is a no-op. If the thread still exists, a closure notice is posted and the
// thread archived; failures there are reported with ErrIncomplete after the
// closure has been persisted. On return q reflects the stored state.
func (l *Lifecycle) Close(ctx context.Context, q *types.Question, reason types.CloseReason, closer platform.Member) error {
	if q == nil {
		return types.ErrInvalidID
	}
	if !reason.Valid() {
		return types.ErrInvalidCloseReason
	}
	if q.IsClosed {
		return nil
	}

	unlock := l.locks.Lock(q.ID)
	defer unlock()

	closed, err := l.markClosed(ctx, q, reason, closer)
	if err != nil || !closed {
		return err
	}

	metrics.QuestionsClosed.WithLabelValues(string(reason)).Inc()
	l.log.Info().
		Str("question_id", q.ID.String()).
		Str("thread_id", q.ThreadID.String()).
		Str("closer_id", closer.UserID.String()).
		Str("reason", string(reason)).
		Msg("question closed")

	if _, err := l.client.FetchChannel(ctx, q.ThreadID); err != nil {
		if platform.IsGone(err) {
			return nil
		}
		return errors.Join(types.ErrIncomplete, fmt.Errorf("fetching thread: %w", err))
	}
	var errs []error
	if _, err := l.client.SendMessage(ctx, q.ThreadID, platform.MessageContent{
		Embeds: []platform.Embed{closedEmbed(q, closer)},
	}); err != nil {
		errs = append(errs, fmt.Errorf("posting closure notice: %w", err))
	}
	archived := true
	if err := l.client.ModifyThread(ctx, q.ThreadID, platform.ThreadEdit{Archived: &archived}); err != nil {
		errs = append(errs, fmt.Errorf("archiving thread: %w", err))
	}
	if len(errs) > 0 {
		err := errors.Join(append([]error{types.ErrIncomplete}, errs...)...)
		l.log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("question closure incomplete")
		return err
	}
	return nil
}

// markClosed persists the closure of q and removes it from the active
// index. It reports false when the stored question was already closed.
func (l *Lifecycle) markClosed(ctx context.Context, q *types.Question, reason types.CloseReason, closer platform.Member) (bool, error) {
	unlock := l.guildLocks.Lock(q.GuildID)
	defer unlock()

	fresh, err := l.store.Questions().Get(ctx, q.ID)
	if err != nil {
		return false, fmt.Errorf("closing question %s: %w", q.ID, err)
	}
	if fresh.IsClosed {
		l.deactivate(fresh.ThreadID)
		*q = *fresh
		return false, nil
	}

	if err := fresh.Close(reason, closer.UserID, l.clock.Now().UTC()); err != nil {
		return false, err
	}
	if err := l.store.Questions().Set(ctx, fresh); err != nil {
		return false, fmt.Errorf("closing question %s: %w", q.ID, err)
	}
	l.deactivate(fresh.ThreadID)
	*q = *fresh
	return true, nil
}

// Rename retitles q and renames its thread with the category prefix. The
// title is validated like a new question's. A thread rename failure is
// reported with ErrIncomplete after the new title has been persisted.
func (l *Lifecycle) Rename(ctx context.Context, q *types.Question, categoryName, title string) error {
	if q == nil {
		return types.ErrInvalidID
	}
	if err := types.ValidateTitle(title); err != nil {
		return err
	}
	title = strings.TrimSpace(title)

	unlock := l.locks.Lock(q.ID)
	defer unlock()

	if err := l.retitle(ctx, q, title); err != nil {
		return err
	}

	name := ThreadName(categoryName, title)
	if err := l.client.ModifyThread(ctx, q.ThreadID, platform.ThreadEdit{Name: &name}); err != nil {
		return errors.Join(types.ErrIncomplete, fmt.Errorf("renaming thread: %w", err))
	}
	l.log.Info().
		Str("question_id", q.ID.String()).
		Str("thread_id", q.ThreadID.String()).
		Msg("question renamed")
	return nil
}

func (l *Lifecycle) retitle(ctx context.Context, q *types.Question, title string) error {
	unlock := l.guildLocks.Lock(q.GuildID)
	defer unlock()

	fresh, err := l.store.Questions().Get(ctx, q.ID)
	if err != nil {
		return fmt.Errorf("renaming question %s: %w", q.ID, err)
	}
	fresh.Title = title
	if err := l.store.Questions().Set(ctx, fresh); err != nil {
		return fmt.Errorf("renaming question %s: %w", q.ID, err)
	}
	*q = *fresh

	l.mu.Lock()
	if _, ok := l.active[fresh.ThreadID]; ok {
		indexed := *fresh
		l.active[fresh.ThreadID] = &indexed
	}
	l.mu.Unlock()
	return nil
}

func (l *Lifecycle) deactivate(threadID snowflake.ID) {
	l.mu.Lock()
	delete(l.active, threadID)
	l.mu.Unlock()
}

// QuestionFromThread returns the question bound to ch, open or closed.
// Returns ErrNotThread when ch is not a thread and (nil, nil) when no
// question uses it.
func (l *Lifecycle) QuestionFromThread(ctx context.Context, ch platform.Channel) (*types.Question, error) {
	if !ch.IsThread {
		return nil, types.ErrNotThread
	}
	found, err := l.store.Questions().Fetch(ctx, types.Filter{
		types.FilterThreadID: ch.ID,
		types.FilterLimit:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("looking up question of thread %s: %w", ch.ID, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// IsQuestionChannel reports whether ch is the thread of an open question.
// Only the active index is consulted.
func (l *Lifecycle) IsQuestionChannel(ch platform.Channel) bool {
	if !ch.IsThread {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.active[ch.ID]
	return ok
}

// IsArchivedQuestionChannel reports whether ch is or ever was a question
// thread, consulting the store for closed questions.
func (l *Lifecycle) IsArchivedQuestionChannel(ctx context.Context, ch platform.Channel) (bool, error) {
	if l.IsQuestionChannel(ch) {
		return true, nil
	}
	found, err := l.store.Questions().Fetch(ctx, types.Filter{
		types.FilterThreadID: ch.ID,
		types.FilterLimit:    1,
	})
	if err != nil {
		return false, fmt.Errorf("looking up question of channel %s: %w", ch.ID, err)
	}
	return len(found) > 0, nil
}
