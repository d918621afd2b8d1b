package service

import (
	"context"
	"fmt"
	"quizfunnel/internal/cache"
	"quizfunnel/internal/engine"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionService drives respondents through a quiz
type SessionService struct {
	quizRepo    repository.QuizRepo
	stepRepo    repository.StepRepo
	sessionRepo repository.SessionRepo
	leadRepo    repository.LeadRepo
	authSvc     *AuthService
	navigator   *Navigator
	log         *logger.Logger
	now         func() time.Time

	// optional, set after construction
	stepCache   cache.StepCache
	funnel      cache.FunnelCache
	scores      cache.ScoreBoard
	broadcaster Broadcaster
}

// NewSessionService creates a new session service
func NewSessionService(
	quizRepo repository.QuizRepo,
	stepRepo repository.StepRepo,
	sessionRepo repository.SessionRepo,
	leadRepo repository.LeadRepo,
	authSvc *AuthService,
	log *logger.Logger,
) *SessionService {
	return &SessionService{
		quizRepo:    quizRepo,
		stepRepo:    stepRepo,
		sessionRepo: sessionRepo,
		leadRepo:    leadRepo,
		authSvc:     authSvc,
		navigator:   NewNavigator(log),
		log:         log,
		now:         time.Now,
	}
}

// SetStepCache enables read-through caching of step catalogs
func (s *SessionService) SetStepCache(c cache.StepCache) {
	s.stepCache = c
}

// SetFunnelCache enables funnel counters
func (s *SessionService) SetFunnelCache(c cache.FunnelCache) {
	s.funnel = c
}

// SetScoreBoard enables the per-quiz score board
func (s *SessionService) SetScoreBoard(b cache.ScoreBoard) {
	s.scores = b
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartSessionBySlug starts a session on the published quiz with the given slug
func (s *SessionService) StartSessionBySlug(ctx context.Context, slug string, lead *model.LeadInput) (*model.StartSessionResponse, error) {
	quiz, err := s.quizRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %s: %w", slug, ErrNotFound)
	}
	return s.start(ctx, quiz, lead)
}

// StartSession creates a fresh session on a published quiz and issues the
// respondent token that authorizes the rest of the run
func (s *SessionService) StartSession(ctx context.Context, quizID string, lead *model.LeadInput) (*model.StartSessionResponse, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %s: %w", quizID, ErrNotFound)
	}
	return s.start(ctx, quiz, lead)
}

func (s *SessionService) start(ctx context.Context, quiz *model.Quiz, lead *model.LeadInput) (*model.StartSessionResponse, error) {
	if !quiz.IsPublished() {
		return nil, ErrQuizNotPublished
	}

	steps, err := s.loadSteps(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	sess := &model.Session{
		ID:      uuid.New().String(),
		QuizID:  quiz.ID,
		Answers: map[string]any{},
	}
	if len(steps) > 0 {
		sess.CurrentStepID = steps[0].ID
	}

	if !lead.IsEmpty() {
		l := &model.Lead{
			ID:        uuid.New().String(),
			QuizID:    quiz.ID,
			SessionID: sess.ID,
			Name:      strings.TrimSpace(lead.Name),
			Email:     strings.TrimSpace(lead.Email),
			Phone:     strings.TrimSpace(lead.Phone),
		}
		if err := s.leadRepo.Create(ctx, l); err != nil {
			return nil, fmt.Errorf("failed to create lead: %w", err)
		}
		sess.LeadID = &l.ID
	}

	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.authSvc.GenerateRespondentToken(sess.ID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.count(ctx, quiz.ID, cache.FieldStarts)
	if sess.CurrentStepID != "" {
		s.countView(ctx, quiz.ID, sess.CurrentStepID)
	}
	s.broadcast(quiz.ID, EventSessionStarted, map[string]interface{}{
		"sessionId": sess.ID,
		"hasLead":   sess.LeadID != nil,
	})

	return &model.StartSessionResponse{
		Session:     sess,
		Token:       token,
		FirstStepID: sess.CurrentStepID,
	}, nil
}

// GetSession retrieves a session by ID
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return sess, nil
}

// SubmitAnswer validates value against the step's constraints and records it.
// A rejected answer leaves the session untouched.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, stepID string, value any) (*model.Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return nil, ErrSessionCompleted
	}

	step, err := s.stepRepo.GetByID(ctx, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	if step == nil || step.QuizID != sess.QuizID {
		return nil, fmt.Errorf("step %s: %w", stepID, ErrNotFound)
	}

	if err := engine.ValidateAnswer(step, value); err != nil {
		return nil, err
	}

	sess.SetAnswer(step.ID, value)
	if step.Type == model.StepTypeInput && step.Metadata.VariableName != "" {
		sess.SetVariable(step.Metadata.VariableName, value)
	}

	if err := s.sessionRepo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.countAnswer(ctx, sess.QuizID, step.ID)
	s.broadcast(sess.QuizID, EventAnswerSubmitted, map[string]interface{}{
		"sessionId": sess.ID,
		"stepId":    step.ID,
		"stepType":  step.Type,
	})
	return sess, nil
}

// GetNextStep resolves what follows currentStepID. A nil result with a nil
// error means the quiz has no further step.
func (s *SessionService) GetNextStep(ctx context.Context, sessionID, currentStepID string) (*model.NavigationResult, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return nil, ErrSessionCompleted
	}

	quiz, err := s.quizRepo.GetByID(ctx, sess.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %s: %w", sess.QuizID, ErrNotFound)
	}

	steps, err := s.loadSteps(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	nav, err := s.navigator.Next(sess, steps, currentStepID)
	if err != nil {
		return nil, err
	}

	if nav.Dirty {
		if err := s.sessionRepo.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	switch nav.Outcome {
	case OutcomeAdvance:
		s.countView(ctx, quiz.ID, nav.Result.StepID)
	case OutcomeRedirect:
		s.count(ctx, quiz.ID, cache.FieldRedirects)
		s.count(ctx, quiz.ID, cache.FieldCompletions)
	case OutcomeEnd:
		s.count(ctx, quiz.ID, cache.FieldEnds)
		s.count(ctx, quiz.ID, cache.FieldCompletions)
	}
	if nav.Dirty {
		s.recordScore(ctx, sess)
	}

	payload := map[string]interface{}{
		"sessionId": sess.ID,
		"from":      currentStepID,
		"outcome":   nav.Outcome,
		"score":     sess.Score,
	}
	if nav.RuleID != "" {
		payload["ruleId"] = nav.RuleID
	}
	if nav.Result != nil && nav.Result.StepID != "" {
		payload["to"] = nav.Result.StepID
	}
	s.broadcast(quiz.ID, EventNavigated, payload)

	return nav.Result, nil
}

// CompleteSession marks the session completed. Completing twice is a no-op.
// When no lead is attached yet, one is created from the latest capture answer.
func (s *SessionService) CompleteSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted() {
		return sess, nil
	}

	if sess.LeadID == nil {
		steps, err := s.loadSteps(ctx, sess.QuizID)
		if err != nil {
			return nil, err
		}
		if input := latestCapture(sess, steps); !input.IsEmpty() {
			lead := &model.Lead{
				ID:        uuid.New().String(),
				QuizID:    sess.QuizID,
				SessionID: sess.ID,
				Name:      input.Name,
				Email:     input.Email,
				Phone:     input.Phone,
			}
			if err := s.leadRepo.Create(ctx, lead); err != nil {
				return nil, fmt.Errorf("failed to create lead: %w", err)
			}
			sess.LeadID = &lead.ID
		}
	}

	sess.Complete(s.now())
	if err := s.sessionRepo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.count(ctx, sess.QuizID, cache.FieldCompletions)
	s.recordScore(ctx, sess)
	s.broadcast(sess.QuizID, EventSessionCompleted, map[string]interface{}{
		"sessionId": sess.ID,
		"score":     sess.Score,
		"hasLead":   sess.LeadID != nil,
	})
	return sess, nil
}

// loadSteps returns the ordered step catalog, reading through the step cache
func (s *SessionService) loadSteps(ctx context.Context, quizID string) ([]*model.Step, error) {
	if s.stepCache != nil {
		steps, err := s.stepCache.Get(ctx, quizID)
		if err != nil {
			s.log.Warn("step cache read failed", "quiz_id", quizID, "error", err)
		} else if steps != nil {
			return steps, nil
		}
	}

	steps, err := s.stepRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}

	if s.stepCache != nil {
		if err := s.stepCache.Set(ctx, quizID, steps); err != nil {
			s.log.Warn("step cache write failed", "quiz_id", quizID, "error", err)
		}
	}
	return steps, nil
}

// latestCapture pulls lead fields from the last CAPTURE step that has any
func latestCapture(sess *model.Session, steps []*model.Step) *model.LeadInput {
	var found *model.LeadInput
	for _, step := range steps {
		if step.Type != model.StepTypeCapture {
			continue
		}
		answer, ok := model.AsMap(sess.Answers[step.ID])
		if !ok {
			continue
		}
		in := &model.LeadInput{
			Name:  captureText(answer, "name"),
			Email: captureText(answer, "email"),
			Phone: captureText(answer, "phone"),
		}
		if !in.IsEmpty() {
			found = in
		}
	}
	return found
}

func captureText(answer map[string]any, field string) string {
	v, _ := answer[field].(string)
	return strings.TrimSpace(v)
}

func (s *SessionService) count(ctx context.Context, quizID, field string) {
	if s.funnel == nil {
		return
	}
	if err := s.funnel.Incr(ctx, quizID, field); err != nil {
		s.log.Warn("funnel counter failed", "quiz_id", quizID, "field", field, "error", err)
	}
}

func (s *SessionService) countView(ctx context.Context, quizID, stepID string) {
	if s.funnel == nil {
		return
	}
	if err := s.funnel.RecordView(ctx, quizID, stepID); err != nil {
		s.log.Warn("funnel view failed", "quiz_id", quizID, "step_id", stepID, "error", err)
	}
}

func (s *SessionService) countAnswer(ctx context.Context, quizID, stepID string) {
	if s.funnel == nil {
		return
	}
	if err := s.funnel.RecordAnswer(ctx, quizID, stepID); err != nil {
		s.log.Warn("funnel answer failed", "quiz_id", quizID, "step_id", stepID, "error", err)
	}
}

func (s *SessionService) recordScore(ctx context.Context, sess *model.Session) {
	if s.scores == nil {
		return
	}
	if err := s.scores.Record(ctx, sess.QuizID, sess.ID, sess.Score); err != nil {
		s.log.Warn("score board update failed", "quiz_id", sess.QuizID, "session_id", sess.ID, "error", err)
	}
}

func (s *SessionService) broadcast(quizID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToQuiz(quizID, msgType, payload)
	}
}
