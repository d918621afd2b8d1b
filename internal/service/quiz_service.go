package service

import (
	"context"
	"fmt"
	"quizfunnel/internal/cache"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/repository"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// QuizUpdate carries the editable quiz fields; nil fields are left alone
type QuizUpdate struct {
	Title       *string `json:"title,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
}

// QuizService handles quiz and step authoring
type QuizService struct {
	quizRepo  repository.QuizRepo
	stepRepo  repository.StepRepo
	stepCache cache.StepCache
	log       *logger.Logger
}

// NewQuizService creates a new quiz service
func NewQuizService(quizRepo repository.QuizRepo, stepRepo repository.StepRepo, log *logger.Logger) *QuizService {
	return &QuizService{
		quizRepo: quizRepo,
		stepRepo: stepRepo,
		log:      log,
	}
}

// SetStepCache lets step edits invalidate cached catalogs
func (s *QuizService) SetStepCache(c cache.StepCache) {
	s.stepCache = c
}

// CreateQuiz creates a draft quiz owned by ownerID
func (s *QuizService) CreateQuiz(ctx context.Context, ownerID string, quiz *model.Quiz) (*model.Quiz, error) {
	quiz.Title = strings.TrimSpace(quiz.Title)
	if quiz.Title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}

	slug := slugify(quiz.Slug)
	if slug == "" {
		slug = slugify(quiz.Title) + "-" + uuid.New().String()[:6]
	}
	if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
		return nil, err
	}

	quiz.ID = uuid.New().String()
	quiz.OwnerID = ownerID
	quiz.Slug = slug
	quiz.Status = model.QuizStatusDraft
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	s.log.Info("quiz created", "quiz_id", quiz.ID, "owner_id", ownerID, "slug", slug)
	return quiz, nil
}

// GetOwnedQuiz loads a quiz and checks that ownerID authored it
func (s *QuizService) GetOwnedQuiz(ctx context.Context, ownerID, quizID string) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %s: %w", quizID, ErrNotFound)
	}
	if quiz.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return quiz, nil
}

// ListQuizzes returns the author's quizzes, newest first
func (s *QuizService) ListQuizzes(ctx context.Context, ownerID string) ([]*model.Quiz, error) {
	return s.quizRepo.GetByOwner(ctx, ownerID)
}

// UpdateQuiz applies a partial update
func (s *QuizService) UpdateQuiz(ctx context.Context, ownerID, quizID string, upd *QuizUpdate) (*model.Quiz, error) {
	quiz, err := s.GetOwnedQuiz(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
		}
		quiz.Title = title
	}
	if upd.Slug != nil {
		slug := slugify(*upd.Slug)
		if slug == "" {
			return nil, fmt.Errorf("slug is empty: %w", ErrInvalidInput)
		}
		if err := s.ensureSlugFree(ctx, slug, quiz.ID); err != nil {
			return nil, err
		}
		quiz.Slug = slug
	}
	if upd.Description != nil {
		quiz.Description = *upd.Description
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	return quiz, nil
}

// DeleteQuiz removes a quiz and all of its steps
func (s *QuizService) DeleteQuiz(ctx context.Context, ownerID, quizID string) error {
	if _, err := s.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return err
	}
	if err := s.stepRepo.DeleteByQuiz(ctx, quizID); err != nil {
		return fmt.Errorf("failed to delete steps: %w", err)
	}
	if err := s.quizRepo.Delete(ctx, quizID); err != nil {
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	s.invalidate(ctx, quizID)
	s.log.Info("quiz deleted", "quiz_id", quizID)
	return nil
}

// SetPublished publishes or unpublishes a quiz. Publishing needs at least one step.
func (s *QuizService) SetPublished(ctx context.Context, ownerID, quizID string, published bool) (*model.Quiz, error) {
	quiz, err := s.GetOwnedQuiz(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}

	status := model.QuizStatusDraft
	if published {
		steps, err := s.stepRepo.ListByQuiz(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to list steps: %w", err)
		}
		if len(steps) == 0 {
			return nil, fmt.Errorf("quiz has no steps: %w", ErrInvalidInput)
		}
		status = model.QuizStatusPublished
	}
	if quiz.Status == status {
		return quiz, nil
	}

	quiz.Status = status
	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	s.invalidate(ctx, quizID)
	s.log.Info("quiz status changed", "quiz_id", quizID, "status", status)
	return quiz, nil
}

// GetPublicQuiz returns a published quiz with its steps. Rules are stripped
// so respondents cannot read the branching logic.
func (s *QuizService) GetPublicQuiz(ctx context.Context, slug string) (*model.QuizWithSteps, error) {
	quiz, err := s.quizRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, fmt.Errorf("quiz %s: %w", slug, ErrNotFound)
	}
	if !quiz.IsPublished() {
		return nil, ErrQuizNotPublished
	}

	steps, err := s.stepRepo.ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	for _, step := range steps {
		step.Metadata.Rules = nil
	}
	return &model.QuizWithSteps{Quiz: quiz, Steps: steps}, nil
}

// ListSteps returns the quiz's steps in order
func (s *QuizService) ListSteps(ctx context.Context, ownerID, quizID string) ([]*model.Step, error) {
	if _, err := s.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	return s.stepRepo.ListByQuiz(ctx, quizID)
}

// AddStep appends a step. A zero order places it after the current last step.
func (s *QuizService) AddStep(ctx context.Context, ownerID, quizID string, step *model.Step) (*model.Step, error) {
	if _, err := s.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	if err := checkStep(step); err != nil {
		return nil, err
	}

	if step.Order == 0 {
		steps, err := s.stepRepo.ListByQuiz(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to list steps: %w", err)
		}
		step.Order = 1
		if n := len(steps); n > 0 {
			step.Order = steps[n-1].Order + 1
		}
	}

	step.ID = uuid.New().String()
	step.QuizID = quizID
	if err := s.stepRepo.Create(ctx, step); err != nil {
		return nil, fmt.Errorf("failed to create step: %w", err)
	}
	s.invalidate(ctx, quizID)
	return step, nil
}

// UpdateStep replaces a step's content. Its id and quiz never change.
func (s *QuizService) UpdateStep(ctx context.Context, ownerID, quizID, stepID string, in *model.Step) (*model.Step, error) {
	step, err := s.ownedStep(ctx, ownerID, quizID, stepID)
	if err != nil {
		return nil, err
	}
	if err := checkStep(in); err != nil {
		return nil, err
	}

	step.Type = in.Type
	step.Title = in.Title
	step.Metadata = in.Metadata
	step.Question = in.Question
	if in.Order != 0 {
		step.Order = in.Order
	}
	if err := s.stepRepo.Update(ctx, step); err != nil {
		return nil, fmt.Errorf("failed to update step: %w", err)
	}
	s.invalidate(ctx, quizID)
	return step, nil
}

// DeleteStep removes one step
func (s *QuizService) DeleteStep(ctx context.Context, ownerID, quizID, stepID string) error {
	if _, err := s.ownedStep(ctx, ownerID, quizID, stepID); err != nil {
		return err
	}
	if err := s.stepRepo.Delete(ctx, stepID); err != nil {
		return fmt.Errorf("failed to delete step: %w", err)
	}
	s.invalidate(ctx, quizID)
	return nil
}

// ReorderSteps renumbers the quiz's steps 1..n in the given id order. The ids
// must be exactly the quiz's current steps.
func (s *QuizService) ReorderSteps(ctx context.Context, ownerID, quizID string, stepIDs []string) ([]*model.Step, error) {
	steps, err := s.ListSteps(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}
	if len(stepIDs) != len(steps) {
		return nil, fmt.Errorf("expected %d step ids, got %d: %w", len(steps), len(stepIDs), ErrInvalidInput)
	}

	byID := make(map[string]*model.Step, len(steps))
	for _, st := range steps {
		byID[st.ID] = st
	}
	ordered := make([]*model.Step, 0, len(stepIDs))
	for _, id := range stepIDs {
		st, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("step %s is not part of the quiz or is listed twice: %w", id, ErrInvalidInput)
		}
		delete(byID, id)
		ordered = append(ordered, st)
	}

	// also runs when an update fails partway
	defer s.invalidate(ctx, quizID)
	for i, st := range ordered {
		if st.Order == i+1 {
			continue
		}
		st.Order = i + 1
		if err := s.stepRepo.Update(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to update step: %w", err)
		}
	}
	return ordered, nil
}

// Lint reports structural problems in the quiz's rules. Nothing it finds is
// enforced at runtime.
func (s *QuizService) Lint(ctx context.Context, ownerID, quizID string) ([]LintIssue, error) {
	steps, err := s.ListSteps(ctx, ownerID, quizID)
	if err != nil {
		return nil, err
	}
	return LintSteps(steps), nil
}

func (s *QuizService) ownedStep(ctx context.Context, ownerID, quizID, stepID string) (*model.Step, error) {
	if _, err := s.GetOwnedQuiz(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	step, err := s.stepRepo.GetByID(ctx, stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to get step: %w", err)
	}
	if step == nil || step.QuizID != quizID {
		return nil, fmt.Errorf("step %s: %w", stepID, ErrNotFound)
	}
	return step, nil
}

func (s *QuizService) ensureSlugFree(ctx context.Context, slug, quizID string) error {
	existing, err := s.quizRepo.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if existing != nil && existing.ID != quizID {
		return fmt.Errorf("slug %q already taken: %w", slug, ErrConflict)
	}
	return nil
}

func (s *QuizService) invalidate(ctx context.Context, quizID string) {
	if s.stepCache == nil {
		return
	}
	if err := s.stepCache.Invalidate(ctx, quizID); err != nil {
		s.log.Warn("step cache invalidation failed", "quiz_id", quizID, "error", err)
	}
}

func checkStep(step *model.Step) error {
	if !step.Type.Valid() {
		return fmt.Errorf("unknown step type %q: %w", step.Type, ErrInvalidInput)
	}
	if step.Type == model.StepTypeQuestion && (step.Question == nil || len(step.Question.Options) == 0) {
		return fmt.Errorf("question step needs options: %w", ErrInvalidInput)
	}
	if step.Order < 0 {
		return fmt.Errorf("order must not be negative: %w", ErrInvalidInput)
	}
	return nil
}

func slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}
