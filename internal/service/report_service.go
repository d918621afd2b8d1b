package service

import (
	"context"
	"fmt"
	"quizfunnel/internal/cache"
	"quizfunnel/internal/model"
	"quizfunnel/internal/repository"
)

// ReportService serves the author's read-side views of a quiz
type ReportService struct {
	quizSvc     *QuizService
	sessionRepo repository.SessionRepo
	leadRepo    repository.LeadRepo
	funnel      cache.FunnelCache
	scores      cache.ScoreBoard
}

// NewReportService creates a new report service
func NewReportService(quizSvc *QuizService, sessionRepo repository.SessionRepo, leadRepo repository.LeadRepo) *ReportService {
	return &ReportService{
		quizSvc:     quizSvc,
		sessionRepo: sessionRepo,
		leadRepo:    leadRepo,
	}
}

// SetAnalytics wires the redis-backed funnel counters and score board
func (s *ReportService) SetAnalytics(funnel cache.FunnelCache, scores cache.ScoreBoard) {
	s.funnel = funnel
	s.scores = scores
}

// Funnel returns the quiz's funnel counters. Without redis the funnel is
// rebuilt from stored sessions, which has no per-step view counts.
func (s *ReportService) Funnel(ctx context.Context, ownerID, quizID string) (*cache.Funnel, error) {
	if _, err := s.quizSvc.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	if s.funnel != nil {
		return s.funnel.GetFunnel(ctx, quizID)
	}

	sessions, err := s.sessionRepo.ListByQuiz(ctx, quizID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	f := &cache.Funnel{
		QuizID:  quizID,
		Views:   map[string]int64{},
		Answers: map[string]int64{},
	}
	for _, sess := range sessions {
		f.Starts++
		if sess.IsCompleted() {
			f.Completions++
		}
		for stepID := range sess.Answers {
			if stepID != model.VariablesKey {
				f.Answers[stepID]++
			}
		}
	}
	return f, nil
}

// Leaderboard returns the top scoring sessions of the quiz
func (s *ReportService) Leaderboard(ctx context.Context, ownerID, quizID string, limit int) ([]cache.ScoreEntry, error) {
	if _, err := s.quizSvc.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if s.scores == nil {
		return []cache.ScoreEntry{}, nil
	}
	return s.scores.Top(ctx, quizID, limit)
}

// Leads returns the leads captured by the quiz, newest first
func (s *ReportService) Leads(ctx context.Context, ownerID, quizID string) ([]*model.Lead, error) {
	if _, err := s.quizSvc.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	return s.leadRepo.ListByQuiz(ctx, quizID)
}

// Sessions returns the quiz's most recent sessions
func (s *ReportService) Sessions(ctx context.Context, ownerID, quizID string, limit int64) ([]*model.Session, error) {
	if _, err := s.quizSvc.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.sessionRepo.ListByQuiz(ctx, quizID, limit)
}
