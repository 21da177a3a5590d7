package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/heapoverflow/internal/platform"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// questionInChannel resolves the question whose thread the command runs in
// and checks the member may act on it.
func (r *Router) questionInChannel(ctx context.Context, e platform.CommandInvocation) (*types.Question, *reply) {
	if !e.Channel.IsThread {
		res := rejected(types.KindValidation.String(), "You can only run this command from a thread.")
		return nil, &res
	}
	isQuestion, err := r.questions.IsArchivedQuestionChannel(ctx, e.Channel)
	if err != nil {
		res := failed(err)
		return nil, &res
	}
	var q *types.Question
	if isQuestion {
		q, err = r.questions.QuestionFromThread(ctx, e.Channel)
		if err != nil {
			res := failed(err)
			return nil, &res
		}
	}
	if q == nil {
		res := rejected(types.KindValidation.String(), "You can only run this command from a question thread.")
		return nil, &res
	}
	if !e.Member.IsStaff && e.Member.UserID != q.AuthorID {
		res := rejected(forbidden, "Only the asker or a staff member can do that.")
		return nil, &res
	}
	return q, nil
}

func (r *Router) closeQuestion(ctx context.Context, e platform.CommandInvocation) reply {
	reason, err := types.ParseCloseReason(e.Option(optionReason))
	if err != nil {
		return failed(err)
	}
	q, res := r.questionInChannel(ctx, e)
	if res != nil {
		return *res
	}
	if q.IsClosed {
		return ok(fmt.Sprintf("Question %s is already closed.", q.ID))
	}
	if err := r.questions.Close(ctx, q, reason, e.Member); err != nil && !errors.Is(err, types.ErrIncomplete) {
		return failed(err)
	}
	return ok(fmt.Sprintf("Question %s has been closed.", q.ID))
}

func (r *Router) renameQuestion(ctx context.Context, e platform.CommandInvocation) reply {
	q, res := r.questionInChannel(ctx, e)
	if res != nil {
		return *res
	}
	categoryName := ""
	if c, found := r.categories.CategoryByID(q.GuildID, q.CategoryID); found {
		categoryName = c.Name
	}
	err := r.questions.Rename(ctx, q, categoryName, e.Option(optionTitle))
	switch {
	case errors.Is(err, types.ErrIncomplete):
		return ok(fmt.Sprintf("Question retitled to **%s**, but the thread could not be renamed.", q.Title))
	case err != nil:
		return failed(err)
	}
	return ok(fmt.Sprintf("Question retitled to **%s**.", q.Title))
}
