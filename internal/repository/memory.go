package repository

import (
	"context"
	"fmt"
	"quizfunnel/internal/model"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps every record in process memory. It backs the "memory"
// store mode and the service tests. Records are copied on the way in and out
// so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]*model.Quiz
	steps    map[string]*model.Step
	sessions map[string]*model.Session
	leads    map[string]*model.Lead

	Quizzes  QuizRepo
	Steps    StepRepo
	Sessions SessionRepo
	Leads    LeadRepo
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		quizzes:  make(map[string]*model.Quiz),
		steps:    make(map[string]*model.Step),
		sessions: make(map[string]*model.Session),
		leads:    make(map[string]*model.Lead),
	}
	s.Quizzes = &memQuizRepo{s}
	s.Steps = &memStepRepo{s}
	s.Sessions = &memSessionRepo{s}
	s.Leads = &memLeadRepo{s}
	return s
}

func copySession(s *model.Session) *model.Session {
	out := *s
	if s.Answers != nil {
		out.Answers = make(map[string]any, len(s.Answers))
		for k, v := range s.Answers {
			out.Answers[k] = v
		}
	}
	return &out
}

type memQuizRepo struct{ s *MemoryStore }

func (r *memQuizRepo) Create(ctx context.Context, quiz *model.Quiz) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.quizzes[quiz.ID]; ok {
		return fmt.Errorf("quiz %s already exists", quiz.ID)
	}
	for _, q := range r.s.quizzes {
		if q.Slug == quiz.Slug {
			return fmt.Errorf("slug %s already taken", quiz.Slug)
		}
	}
	now := time.Now()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	cp := *quiz
	r.s.quizzes[quiz.ID] = &cp
	return nil
}

func (r *memQuizRepo) GetByID(ctx context.Context, id string) (*model.Quiz, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q, ok := r.s.quizzes[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (r *memQuizRepo) GetBySlug(ctx context.Context, slug string) (*model.Quiz, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, q := range r.s.quizzes {
		if q.Slug == slug {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memQuizRepo) GetByOwner(ctx context.Context, ownerID string) ([]*model.Quiz, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	quizzes := []*model.Quiz{}
	for _, q := range r.s.quizzes {
		if q.OwnerID == ownerID {
			cp := *q
			quizzes = append(quizzes, &cp)
		}
	}
	sort.Slice(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

func (r *memQuizRepo) Update(ctx context.Context, quiz *model.Quiz) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.quizzes[quiz.ID]; !ok {
		return nil
	}
	quiz.UpdatedAt = time.Now()
	cp := *quiz
	r.s.quizzes[quiz.ID] = &cp
	return nil
}

func (r *memQuizRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.quizzes, id)
	return nil
}

type memStepRepo struct{ s *MemoryStore }

func (r *memStepRepo) Create(ctx context.Context, step *model.Step) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.steps[step.ID]; ok {
		return fmt.Errorf("step %s already exists", step.ID)
	}
	now := time.Now()
	step.CreatedAt = now
	step.UpdatedAt = now
	cp := *step
	r.s.steps[step.ID] = &cp
	return nil
}

func (r *memStepRepo) GetByID(ctx context.Context, id string) (*model.Step, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.steps[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (r *memStepRepo) ListByQuiz(ctx context.Context, quizID string) ([]*model.Step, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	steps := []*model.Step{}
	for _, st := range r.s.steps {
		if st.QuizID == quizID {
			cp := *st
			steps = append(steps, &cp)
		}
	}
	// map iteration is random; break order ties on creation time then id
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Order != steps[j].Order {
			return steps[i].Order < steps[j].Order
		}
		if !steps[i].CreatedAt.Equal(steps[j].CreatedAt) {
			return steps[i].CreatedAt.Before(steps[j].CreatedAt)
		}
		return steps[i].ID < steps[j].ID
	})
	return steps, nil
}

func (r *memStepRepo) Update(ctx context.Context, step *model.Step) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.steps[step.ID]; !ok {
		return nil
	}
	step.UpdatedAt = time.Now()
	cp := *step
	r.s.steps[step.ID] = &cp
	return nil
}

func (r *memStepRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.steps, id)
	return nil
}

func (r *memStepRepo) DeleteByQuiz(ctx context.Context, quizID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, st := range r.s.steps {
		if st.QuizID == quizID {
			delete(r.s.steps, id)
		}
	}
	return nil
}

type memSessionRepo struct{ s *MemoryStore }

func (r *memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[session.ID]; ok {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	now := time.Now()
	session.StartedAt = now
	session.UpdatedAt = now
	r.s.sessions[session.ID] = copySession(session)
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(sess), nil
}

func (r *memSessionRepo) Save(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session.UpdatedAt = time.Now()
	r.s.sessions[session.ID] = copySession(session)
	return nil
}

func (r *memSessionRepo) ListByQuiz(ctx context.Context, quizID string, limit int64) ([]*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sessions := []*model.Session{}
	for _, sess := range r.s.sessions {
		if sess.QuizID == quizID {
			sessions = append(sessions, copySession(sess))
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	if limit > 0 && int64(len(sessions)) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

type memLeadRepo struct{ s *MemoryStore }

func (r *memLeadRepo) Create(ctx context.Context, lead *model.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	cp := *lead
	r.s.leads[lead.ID] = &cp
	return nil
}

func (r *memLeadRepo) GetByID(ctx context.Context, id string) (*model.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leads[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *memLeadRepo) ListByQuiz(ctx context.Context, quizID string) ([]*model.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	leads := []*model.Lead{}
	for _, l := range r.s.leads {
		if l.QuizID == quizID {
			cp := *l
			leads = append(leads, &cp)
		}
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads, nil
}
