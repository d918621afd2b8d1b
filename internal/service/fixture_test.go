package service

import (
	"context"
	"sync"
	"testing"

	"quizfunnel/internal/config"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/repository"

	"github.com/stretchr/testify/require"
)

const testOwner = "author_admin"

type event struct {
	QuizID  string
	Type    string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (b *recordingBroadcaster) BroadcastToQuiz(quizID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{QuizID: quizID, Type: msgType, Payload: payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store    *repository.MemoryStore
	auth     *AuthService
	quizzes  *QuizService
	sessions *SessionService
	reports  *ReportService
	events   *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	store := repository.NewMemoryStore()
	auth := NewAuthService(config.Default())
	quizzes := NewQuizService(store.Quizzes, store.Steps, log)
	sessions := NewSessionService(store.Quizzes, store.Steps, store.Sessions, store.Leads, auth, log)
	events := &recordingBroadcaster{}
	sessions.SetBroadcaster(events)

	return &fixture{
		store:    store,
		auth:     auth,
		quizzes:  quizzes,
		sessions: sessions,
		reports:  NewReportService(quizzes, store.Sessions, store.Leads),
		events:   events,
	}
}

// seedQuiz stores a quiz with the given steps, numbering them 1..n
func (f *fixture) seedQuiz(t *testing.T, status model.QuizStatus, steps ...*model.Step) *model.Quiz {
	t.Helper()
	ctx := context.Background()
	quiz := &model.Quiz{ID: "quiz-1", OwnerID: testOwner, Title: "Quiz", Slug: "quiz", Status: status}
	require.NoError(t, f.store.Quizzes.Create(ctx, quiz))
	for i, st := range steps {
		st.QuizID = quiz.ID
		st.Order = i + 1
		require.NoError(t, f.store.Steps.Create(ctx, st))
	}
	return quiz
}

// startSession starts a session and returns its id
func (f *fixture) startSession(t *testing.T, quizID string) string {
	t.Helper()
	resp, err := f.sessions.StartSession(context.Background(), quizID, nil)
	require.NoError(t, err)
	return resp.Session.ID
}

func questionStep(id string, rules ...model.Rule) *model.Step {
	return &model.Step{
		ID:   id,
		Type: model.StepTypeQuestion,
		Question: &model.Question{
			Text:    id,
			Options: []model.Option{{Text: "Yes", Value: "yes"}, {Text: "No", Value: "no"}},
		},
		Metadata: model.StepMetadata{Rules: rules},
	}
}

func textStep(id string, rules ...model.Rule) *model.Step {
	return &model.Step{ID: id, Type: model.StepTypeText, Metadata: model.StepMetadata{Rules: rules}}
}

func resultStep(id string) *model.Step {
	return &model.Step{ID: id, Type: model.StepTypeResult}
}

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
