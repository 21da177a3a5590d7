// Package command answers the bot's slash commands by mapping each one onto
// a category registry or question lifecycle operation. Every reply is
// ephemeral and tells bad input, missing things and configuration problems
// apart.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/heapoverflow/internal/metrics"
	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Categories is the part of the category registry commands use.
type Categories interface {
	Categories(guildID snowflake.ID) []*types.Category
	Lookup(guildID snowflake.ID, ref string) (*types.Category, bool)
	CategoryByID(guildID snowflake.ID, id uuid.UUID) (*types.Category, bool)
	CategoryByName(guildID snowflake.ID, name string) (*types.Category, bool)
	CreateCategory(ctx context.Context, guildID snowflake.ID, staff platform.Member, name, description string) (*types.Category, error)
	ModifyCategory(ctx context.Context, c *types.Category, mutate func(*types.Category), staff platform.Member) error
	DeleteCategory(ctx context.Context, c *types.Category, staff platform.Member) error
}

// Questions is the part of the question lifecycle commands use.
type Questions interface {
	QuestionFromThread(ctx context.Context, ch platform.Channel) (*types.Question, error)
	IsArchivedQuestionChannel(ctx context.Context, ch platform.Channel) (bool, error)
	Close(ctx context.Context, q *types.Question, reason types.CloseReason, closer platform.Member) error
	Rename(ctx context.Context, q *types.Question, categoryName, title string) error
}

// Prompts posts the ask-here entry prompt.
type Prompts interface {
	PostPrompt(ctx context.Context, channel platform.Channel, msg *platform.Message) (*platform.Message, error)
}

// Router dispatches command invocations.
type Router struct {
	categories Categories
	questions  Questions
	prompts    Prompts
	client     platform.Client
	log        zerolog.Logger
}

// New creates a Router.
func New(categories Categories, questions Questions, prompts Prompts, client platform.Client, log zerolog.Logger) *Router {
	return &Router{
		categories: categories,
		questions:  questions,
		prompts:    prompts,
		client:     client,
		log:        log.With().Str("component", "command").Logger(),
	}
}

// reply is what a handler answers with. kind labels the outcome in metrics:
// an error kind, or forbidden.
type reply struct {
	platform.Response
	kind string
}

const forbidden = "forbidden"

func ok(content string, embeds ...platform.Embed) reply {
	return reply{Response: platform.Response{Content: content, Embeds: embeds}, kind: types.KindNone.String()}
}

func rejected(kind, content string) reply {
	return reply{Response: platform.Response{Content: content}, kind: kind}
}

func failed(err error) reply {
	return reply{Response: platform.Response{Content: Explain(err)}, kind: types.Classify(err).String()}
}

// Handle answers e. Unknown commands are ignored.
func (r *Router) Handle(ctx context.Context, e platform.CommandInvocation) error {
	handler := r.handler(e.Name, e.Subcommand)
	if handler == nil {
		return nil
	}
	if err := r.client.DeferResponse(ctx, e.Interaction, true); err != nil {
		r.log.Warn().Err(err).Str("command", commandLabel(e)).Msg("deferring command response")
	}

	res := handler(ctx, e)
	metrics.Commands.WithLabelValues(commandLabel(e), res.kind).Inc()
	r.log.Debug().
		Str("guild_id", e.GuildID.String()).
		Str("user_id", e.Member.UserID.String()).
		Str("command", commandLabel(e)).
		Str("result", res.kind).
		Msg("command handled")

	res.Ephemeral = true
	if err := r.client.EditResponse(ctx, e.Interaction, res.Response); err != nil {
		return fmt.Errorf("answering %s: %w", commandLabel(e), err)
	}
	return nil
}

type handlerFunc func(ctx context.Context, e platform.CommandInvocation) reply

func (r *Router) handler(name, sub string) handlerFunc {
	switch name {
	case AskHere:
		return r.staffOnly(r.askHere)
	case HelpSection:
		switch sub {
		case AddCategory:
			return r.staffOnly(r.addCategory)
		case RemoveCategory:
			return r.staffOnly(r.removeCategory)
		case RenameCategory:
			return r.staffOnly(r.renameCategory)
		case SetDescription:
			return r.staffOnly(r.setDescription)
		case ClearDescription:
			return r.staffOnly(r.clearDescription)
		}
	case QuestionGroup:
		switch sub {
		case CloseQuestion:
			return r.closeQuestion
		case RenameQuestion:
			return r.renameQuestion
		}
	}
	return nil
}

func commandLabel(e platform.CommandInvocation) string {
	if e.Subcommand == "" {
		return e.Name
	}
	return e.Name + " " + e.Subcommand
}

func (r *Router) staffOnly(h handlerFunc) handlerFunc {
	return func(ctx context.Context, e platform.CommandInvocation) reply {
		if !e.Member.IsStaff {
			return rejected(forbidden, "Only staff members can run this command.")
		}
		return h(ctx, e)
	}
}

// Explain turns err into a sentence for the member who caused it.
func Explain(err error) string {
	switch types.Classify(err) {
	case types.KindNone:
		return ""
	case types.KindValidation:
		return "Invalid input: " + rootMessage(err) + "."
	case types.KindNotFound:
		return "Not found: " + rootMessage(err) + "."
	case types.KindConfiguration:
		return "This server is not set up for that yet: " + rootMessage(err) + "."
	default:
		return "Something went wrong. Please try again later."
	}
}

// rootMessage returns the message of the innermost known sentinel in err,
// or err's own message.
func rootMessage(err error) string {
	for _, target := range []error{
		types.ErrInvalidName, types.ErrDuplicateName, types.ErrCategoryInUse,
		types.ErrEmptyTitle, types.ErrTitleTooShort, types.ErrInvalidCloseReason,
		types.ErrNotThread, types.ErrNotFound, types.ErrForumNotConfigured,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return strings.TrimSuffix(err.Error(), ".")
}
