package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizfunnel/internal/cache"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizService_CreateAndSlug(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quiz, err := f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "Find Your Plan", Slug: "Find Your Plan!"})
	require.NoError(t, err)
	assert.Equal(t, "find-your-plan", quiz.Slug)
	assert.Equal(t, model.QuizStatusDraft, quiz.Status)
	assert.Equal(t, testOwner, quiz.OwnerID)

	_, err = f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "Other", Slug: "find-your-plan"})
	assert.ErrorIs(t, err, ErrConflict)

	generated, err := f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "Skin Type"})
	require.NoError(t, err)
	assert.Regexp(t, `^skin-type-[0-9a-f]{6}$`, generated.Slug)

	_, err = f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuizService_Ownership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz := f.seedQuiz(t, model.QuizStatusDraft, textStep("a"))

	_, err := f.quizzes.GetOwnedQuiz(ctx, "author_mallory", quiz.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.quizzes.GetOwnedQuiz(ctx, testOwner, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.quizzes.DeleteQuiz(ctx, "author_mallory", quiz.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestQuizService_StepsAndReorder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, err := f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "Quiz"})
	require.NoError(t, err)

	first, err := f.quizzes.AddStep(ctx, testOwner, quiz.ID, questionStep(""))
	require.NoError(t, err)
	second, err := f.quizzes.AddStep(ctx, testOwner, quiz.ID, textStep(""))
	require.NoError(t, err)
	third, err := f.quizzes.AddStep(ctx, testOwner, quiz.ID, resultStep(""))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{first.Order, second.Order, third.Order})

	_, err = f.quizzes.AddStep(ctx, testOwner, quiz.ID, &model.Step{Type: "VIDEO"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.quizzes.AddStep(ctx, testOwner, quiz.ID, &model.Step{Type: model.StepTypeQuestion})
	assert.ErrorIs(t, err, ErrInvalidInput)

	ordered, err := f.quizzes.ReorderSteps(ctx, testOwner, quiz.ID, []string{third.ID, first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, ordered, 3)

	steps, err := f.quizzes.ListSteps(ctx, testOwner, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, first.ID, second.ID}, []string{steps[0].ID, steps[1].ID, steps[2].ID})

	_, err = f.quizzes.ReorderSteps(ctx, testOwner, quiz.ID, []string{first.ID, first.ID, second.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.quizzes.DeleteStep(ctx, testOwner, quiz.ID, second.ID))
	steps, err = f.quizzes.ListSteps(ctx, testOwner, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestQuizService_PublishAndPublicView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiz, err := f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "Quiz", Slug: "quiz"})
	require.NoError(t, err)

	_, err = f.quizzes.SetPublished(ctx, testOwner, quiz.ID, true)
	assert.ErrorIs(t, err, ErrInvalidInput)

	rule := model.Rule{ID: "r", Actions: []model.Action{{Type: model.ActionEnd}}}
	_, err = f.quizzes.AddStep(ctx, testOwner, quiz.ID, questionStep("", rule))
	require.NoError(t, err)

	_, err = f.quizzes.GetPublicQuiz(ctx, "quiz")
	assert.ErrorIs(t, err, ErrQuizNotPublished)

	published, err := f.quizzes.SetPublished(ctx, testOwner, quiz.ID, true)
	require.NoError(t, err)
	assert.True(t, published.IsPublished())

	public, err := f.quizzes.GetPublicQuiz(ctx, "quiz")
	require.NoError(t, err)
	require.Len(t, public.Steps, 1)
	assert.Empty(t, public.Steps[0].Metadata.Rules)

	steps, err := f.quizzes.ListSteps(ctx, testOwner, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, steps[0].Metadata.Rules, 1)
}

func TestQuizService_UpdateQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "A", Slug: "a"})
	require.NoError(t, err)
	_, err = f.quizzes.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "B", Slug: "b"})
	require.NoError(t, err)

	title := "Renamed"
	updated, err := f.quizzes.UpdateQuiz(ctx, testOwner, a.ID, &QuizUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "a", updated.Slug)

	taken := "b"
	_, err = f.quizzes.UpdateQuiz(ctx, testOwner, a.ID, &QuizUpdate{Slug: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	same := "a"
	_, err = f.quizzes.UpdateQuiz(ctx, testOwner, a.ID, &QuizUpdate{Slug: &same})
	assert.NoError(t, err)
}

func TestLintSteps(t *testing.T) {
	steps := catalog(
		questionStep("q1", model.Rule{
			ID: "broken",
			Conditions: []model.Condition{
				{Type: model.ConditionAnswer, Source: "gone", Operator: model.OpEq, Value: "x"},
				{Type: model.ConditionVariable, Source: "tier", Operator: "~=", Value: "x"},
				{Type: model.ConditionVariable, Source: "tier", Operator: model.OpIn, Value: "gold"},
			},
			Actions: []model.Action{
				{Type: model.ActionGoto, Target: "nowhere"},
				{Type: model.ActionSkip, Value: 5},
				{Type: "teleport"},
			},
		}),
		textStep("t1", model.Rule{ID: "ok", Actions: []model.Action{{Type: model.ActionGoto, Target: "res"}}}),
		&model.Step{ID: "res", Type: model.StepTypeResult, Metadata: model.StepMetadata{
			Rules: []model.Rule{{ID: "late", Actions: []model.Action{{Type: model.ActionEnd}}}},
		}},
	)
	steps[1].Order = 1

	issues := LintSteps(steps)

	var messages []string
	for _, is := range issues {
		messages = append(messages, is.StepID+": "+is.Message)
	}
	assert.Contains(t, messages, "q1: condition reads answer of missing step gone")
	assert.Contains(t, messages, `q1: condition on tier uses unknown operator "~="`)
	assert.Contains(t, messages, "q1: in condition on tier needs an array value")
	assert.Contains(t, messages, "q1: goto target nowhere does not exist")
	assert.Contains(t, messages, "q1: skip by 5 leaves the quiz")
	assert.Contains(t, messages, `q1: unknown action type "teleport"`)
	assert.Contains(t, messages, "t1: order 1 is shared with step q1")
	assert.Contains(t, messages, "res: result step has rules")
	assert.Len(t, issues, 8)
}

// flakyStepRepo fails every Update after the first okUpdates calls
type flakyStepRepo struct {
	repository.StepRepo
	okUpdates int
}

func (r *flakyStepRepo) Update(ctx context.Context, step *model.Step) error {
	if r.okUpdates == 0 {
		return errors.New("write failed")
	}
	r.okUpdates--
	return r.StepRepo.Update(ctx, step)
}

func TestQuizService_ReorderFailureInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	steps := &flakyStepRepo{StepRepo: store.Steps, okUpdates: 1}
	svc := NewQuizService(store.Quizzes, steps, logger.Nop())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	stepCache := cache.NewStepCache(client, time.Minute)
	svc.SetStepCache(stepCache)

	quiz, err := svc.CreateQuiz(ctx, testOwner, &model.Quiz{Title: "Quiz"})
	require.NoError(t, err)
	first, err := svc.AddStep(ctx, testOwner, quiz.ID, textStep(""))
	require.NoError(t, err)
	second, err := svc.AddStep(ctx, testOwner, quiz.ID, textStep(""))
	require.NoError(t, err)
	third, err := svc.AddStep(ctx, testOwner, quiz.ID, resultStep(""))
	require.NoError(t, err)

	current, err := svc.ListSteps(ctx, testOwner, quiz.ID)
	require.NoError(t, err)
	require.NoError(t, stepCache.Set(ctx, quiz.ID, current))

	_, err = svc.ReorderSteps(ctx, testOwner, quiz.ID, []string{third.ID, second.ID, first.ID})
	require.Error(t, err)

	cached, err := stepCache.Get(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
