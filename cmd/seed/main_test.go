package main

import (
	"context"
	"testing"

	"quizfunnel/internal/app"
	"quizfunnel/internal/config"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.Store = config.StoreMemory
	cfg.RedisAddr = ""
	a, err := app.New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestSeedDemo_PublishesLintFreeQuiz(t *testing.T) {
	ctx := context.Background()
	a := newMemoryApp(t)
	owner := service.AuthorID("admin")

	quiz, err := seedDemo(ctx, a.QuizService, owner)
	require.NoError(t, err)
	assert.True(t, quiz.IsPublished())
	assert.Equal(t, demoSlug, quiz.Slug)

	issues, err := a.QuizService.Lint(ctx, owner, quiz.ID)
	require.NoError(t, err)
	assert.Empty(t, issues)

	_, err = seedDemo(ctx, a.QuizService, owner)
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestSeedDemo_Branches(t *testing.T) {
	ctx := context.Background()
	a := newMemoryApp(t)
	owner := service.AuthorID("admin")

	quiz, err := seedDemo(ctx, a.QuizService, owner)
	require.NoError(t, err)
	steps, err := a.QuizService.ListSteps(ctx, owner, quiz.ID)
	require.NoError(t, err)
	require.Len(t, steps, 4)
	goal, age, capture := steps[0], steps[1], steps[2]

	t.Run("gain jumps to capture", func(t *testing.T) {
		started, err := a.SessionService.StartSessionBySlug(ctx, demoSlug, nil)
		require.NoError(t, err)
		sid := started.Session.ID

		_, err = a.SessionService.SubmitAnswer(ctx, sid, goal.ID, "gain")
		require.NoError(t, err)
		res, err := a.SessionService.GetNextStep(ctx, sid, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, capture.ID, res.StepID)
		require.NotNil(t, res.Score)
		assert.Equal(t, 10, *res.Score)
		assert.Equal(t, "Great, let's build strength", res.Message)
	})

	t.Run("underage is redirected", func(t *testing.T) {
		started, err := a.SessionService.StartSessionBySlug(ctx, demoSlug, nil)
		require.NoError(t, err)
		sid := started.Session.ID

		_, err = a.SessionService.SubmitAnswer(ctx, sid, goal.ID, "lose")
		require.NoError(t, err)
		res, err := a.SessionService.GetNextStep(ctx, sid, goal.ID)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, age.ID, res.StepID)

		sess, err := a.SessionService.SubmitAnswer(ctx, sid, age.ID, "16")
		require.NoError(t, err)
		assert.Equal(t, "cardio", sess.Variables()["track"])

		res, err = a.SessionService.GetNextStep(ctx, sid, age.ID)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.IsTerminal())
		assert.Equal(t, "https://example.com/teens", res.Redirect)

		sess, err = a.SessionService.GetSession(ctx, sid)
		require.NoError(t, err)
		assert.True(t, sess.IsCompleted())
		assert.Equal(t, 5, sess.Score)
	})

	t.Run("adults continue to capture", func(t *testing.T) {
		started, err := a.SessionService.StartSession(ctx, quiz.ID, &model.LeadInput{Email: "a@b.co"})
		require.NoError(t, err)
		sid := started.Session.ID

		_, err = a.SessionService.SubmitAnswer(ctx, sid, age.ID, 30)
		require.NoError(t, err)
		res, err := a.SessionService.GetNextStep(ctx, sid, age.ID)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, capture.ID, res.StepID)
	})
}
