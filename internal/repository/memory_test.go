package repository

import (
	"context"
	"testing"

	"quizfunnel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_MissingRecordsAreNil(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	q, err := store.Quizzes.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, q)

	st, err := store.Steps.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, st)

	sess, err := store.Sessions.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, sess)

	lead, err := store.Leads.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, lead)
}

func TestMemoryStore_StepsListedByOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, st := range []*model.Step{
		{ID: "c", QuizID: "q1", Order: 3},
		{ID: "a", QuizID: "q1", Order: 1},
		{ID: "x", QuizID: "q2", Order: 1},
		{ID: "b", QuizID: "q1", Order: 2},
	} {
		require.NoError(t, store.Steps.Create(ctx, st))
	}

	steps, err := store.Steps.ListByQuiz(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "a", steps[0].ID)
	assert.Equal(t, "b", steps[1].ID)
	assert.Equal(t, "c", steps[2].ID)

	require.NoError(t, store.Steps.DeleteByQuiz(ctx, "q1"))
	steps, err = store.Steps.ListByQuiz(ctx, "q1")
	require.NoError(t, err)
	assert.Empty(t, steps)

	other, err := store.Steps.ListByQuiz(ctx, "q2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestMemoryStore_SessionsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	sess := &model.Session{ID: "s1", QuizID: "q1", Answers: map[string]any{}}
	require.NoError(t, store.Sessions.Create(ctx, sess))

	loaded, err := store.Sessions.GetByID(ctx, "s1")
	require.NoError(t, err)
	loaded.SetAnswer("step-1", "yes")
	loaded.Score = 5

	fresh, err := store.Sessions.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, fresh.Answers)
	assert.Equal(t, 0, fresh.Score)

	require.NoError(t, store.Sessions.Save(ctx, loaded))
	fresh, err = store.Sessions.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "yes", fresh.Answers["step-1"])
	assert.Equal(t, 5, fresh.Score)
}

func TestMemoryStore_SlugIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Quizzes.Create(ctx, &model.Quiz{ID: "q1", Slug: "fit"}))
	assert.Error(t, store.Quizzes.Create(ctx, &model.Quiz{ID: "q2", Slug: "fit"}))

	q, err := store.Quizzes.GetBySlug(ctx, "fit")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "q1", q.ID)
}
