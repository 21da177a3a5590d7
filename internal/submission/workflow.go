// Package submission runs the two-phase ask-here flow: a member picks a
// category from the entry prompt, then submits a title through a modal
// form, and a question is opened for them.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/clock"
	"github.com/mesh-intelligence/heapoverflow/internal/keylock"
	"github.com/mesh-intelligence/heapoverflow/internal/metrics"
	"github.com/mesh-intelligence/heapoverflow/internal/pending"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Categories lists and resolves a guild's categories.
type Categories interface {
	Categories(guildID snowflake.ID) []*types.Category
	CategoryByID(guildID snowflake.ID, id uuid.UUID) (*types.Category, bool)
}

// Creator opens questions.
type Creator interface {
	Create(ctx context.Context, member platform.Member, category *types.Category, title string) (*types.Question, error)
}

// Slots resolves and records cached messages.
type Slots interface {
	Get(ctx context.Context, guildID snowflake.ID, key string) (*platform.Message, bool)
	Cache(ctx context.Context, key string, msg *platform.Message) error
}

// Workflow is the submission service.
type Workflow struct {
	categories Categories
	questions  Creator
	slots      Slots
	pending    pending.Store
	client     platform.Client
	guilds     types.Guilds
	clock      clock.Clock
	log        zerolog.Logger

	prompts keylock.Map[snowflake.ID] // serializes prompt refreshes per guild
}

// New creates a Workflow.
func New(categories Categories, questions Creator, slots Slots, selections pending.Store, client platform.Client,
	guilds types.Guilds, clk clock.Clock, log zerolog.Logger) *Workflow {
	return &Workflow{
		categories: categories,
		questions:  questions,
		slots:      slots,
		pending:    selections,
		client:     client,
		guilds:     guilds,
		clock:      clk,
		log:        log.With().Str("component", "submission").Logger(),
	}
}

// PostPrompt ensures the guild's entry prompt shows the current categories.
// The target is msg when given, else the message cached in the prompt slot,
// else a new message sent to channel and cached. An existing target is
// edited in place.
func (w *Workflow) PostPrompt(ctx context.Context, channel platform.Channel, msg *platform.Message) (*platform.Message, error) {
	if channel.GuildID == 0 {
		return nil, types.ErrNotGuildChannel
	}
	guildID := channel.GuildID

	unlock := w.prompts.Lock(guildID)
	defer unlock()

	content := Prompt(w.categories.Categories(guildID), w.guilds.Lookup(guildID).Primary())

	if msg == nil {
		if cached, ok := w.slots.Get(ctx, guildID, PromptSlot); ok {
			msg = cached
		}
	}
	if msg != nil {
		edited, err := w.client.EditMessage(ctx, msg.ChannelID, msg.ID, content)
		if err == nil {
			w.log.Debug().
				Str("guild_id", guildID.String()).
				Str("message_id", edited.ID.String()).
				Msg("prompt refreshed")
			return edited, nil
		}
		if !platform.IsGone(err) {
			return nil, fmt.Errorf("editing prompt: %w", err)
		}
		w.log.Info().Err(err).Str("guild_id", guildID.String()).Msg("prompt message gone, sending a new one")
	}

	sent, err := w.client.SendMessage(ctx, channel.ID, content)
	if err != nil {
		return nil, fmt.Errorf("sending prompt: %w", err)
	}
	if err := w.slots.Cache(ctx, PromptSlot, sent); err != nil {
		return sent, fmt.Errorf("caching prompt: %w", err)
	}
	w.log.Info().
		Str("guild_id", guildID.String()).
		Str("channel_id", channel.ID.String()).
		Str("message_id", sent.ID.String()).
		Msg("prompt posted")
	return sent, nil
}

// HandleSelect answers a category pick by remembering the choice and
// opening the title form. Other components are ignored.
func (w *Workflow) HandleSelect(ctx context.Context, e platform.ComponentInteraction) error {
	if e.CustomID != SelectID {
		return nil
	}
	var category *types.Category
	if len(e.Values) > 0 {
		if id, err := uuid.Parse(e.Values[0]); err == nil {
			category, _ = w.categories.CategoryByID(e.GuildID, id)
		}
	}
	if category == nil {
		return w.client.Respond(ctx, e.Interaction, platform.Response{
			Content:   "That category is no longer available. Please pick another one.",
			Ephemeral: true,
		})
	}

	if err := w.pending.Put(ctx, pending.Selection{
		GuildID:    e.GuildID,
		UserID:     e.Member.UserID,
		CategoryID: category.ID,
		SelectedAt: w.clock.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("recording selection: %w", err)
	}
	if err := w.client.RespondModal(ctx, e.Interaction, titleModal(e.Member)); err != nil {
		return fmt.Errorf("opening title form: %w", err)
	}
	w.log.Debug().
		Str("guild_id", e.GuildID.String()).
		Str("user_id", e.Member.UserID.String()).
		Str("category_id", category.ID.String()).
		Msg("category selected")
	return nil
}

// HandleModal answers a title form. The pending selection is consumed
// whether or not a question results. The member always gets an ephemeral
// reply.
func (w *Workflow) HandleModal(ctx context.Context, e platform.ModalSubmit) error {
	if !IsModalID(e.CustomID) {
		return nil
	}
	if err := w.client.DeferResponse(ctx, e.Interaction, true); err != nil {
		w.log.Warn().Err(err).Msg("deferring modal response")
	}

	notice, err := w.submit(ctx, e)
	if replyErr := w.client.EditResponse(ctx, e.Interaction, platform.Response{Content: notice, Ephemeral: true}); replyErr != nil {
		err = errors.Join(err, fmt.Errorf("answering submission: %w", replyErr))
	}
	return err
}

func (w *Workflow) submit(ctx context.Context, e platform.ModalSubmit) (string, error) {
	log := w.log.With().
		Str("guild_id", e.GuildID.String()).
		Str("user_id", e.Member.UserID.String()).
		Logger()

	if e.CustomID != ModalID(e.Member) {
		metrics.Submissions.WithLabelValues(metrics.SubmissionMismatch).Inc()
		log.Debug().Str("custom_id", e.CustomID).Msg("submission for another member dropped")
		return expiredNotice, nil
	}
	sel, ok, err := w.pending.Take(ctx, e.GuildID, e.Member.UserID)
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.SubmissionFailed).Inc()
		return failureNotice(err), fmt.Errorf("taking selection: %w", err)
	}
	if !ok {
		metrics.Submissions.WithLabelValues(metrics.SubmissionNoPending).Inc()
		log.Debug().Msg("submission without pending selection dropped")
		return expiredNotice, nil
	}

	title := e.Fields[TitleInput]
	if strings.TrimSpace(title) == "" {
		metrics.Submissions.WithLabelValues(metrics.SubmissionBlank).Inc()
		log.Debug().Msg("blank submission dropped")
		return "Your question was not opened because the title was blank.", nil
	}

	category, ok := w.categories.CategoryByID(e.GuildID, sel.CategoryID)
	if !ok {
		metrics.Submissions.WithLabelValues(metrics.SubmissionFailed).Inc()
		return "The category you picked no longer exists. Please pick another one.", nil
	}

	q, err := w.questions.Create(ctx, e.Member, category, title)
	switch {
	case err == nil:
		metrics.Submissions.WithLabelValues(metrics.SubmissionCreated).Inc()
		return createdNotice(q), nil
	case q != nil && errors.Is(err, types.ErrIncomplete):
		metrics.Submissions.WithLabelValues(metrics.SubmissionIncomplete).Inc()
		log.Warn().Err(err).Str("question_id", q.ID.String()).Msg("question opened with errors")
		return createdNotice(q), nil
	default:
		metrics.Submissions.WithLabelValues(metrics.SubmissionFailed).Inc()
		return failureNotice(err), fmt.Errorf("creating question: %w", err)
	}
}

const expiredNotice = "Your category selection has expired. Please pick a category again."

func createdNotice(q *types.Question) string {
	return "Your question has been opened in " + platform.ChannelMention(q.ThreadID) + "."
}

func failureNotice(err error) string {
	switch types.Classify(err) {
	case types.KindValidation:
		return "Your question could not be opened: " + err.Error() + "."
	case types.KindNotFound:
		return "The category you picked no longer exists. Please pick another one."
	case types.KindConfiguration:
		return "Questions cannot be opened here yet: " + err.Error() + ". Please tell a staff member."
	default:
		return "Something went wrong while opening your question. Please try again later."
	}
}
