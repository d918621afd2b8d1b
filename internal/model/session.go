package model

import "time"

// VariablesKey is the reserved answers key holding the variable map
const VariablesKey = "__variables__"

// Session is one respondent's run through a quiz
type Session struct {
	ID            string         `json:"id" bson:"_id"`
	QuizID        string         `json:"quizId" bson:"quizId"`
	LeadID        *string        `json:"leadId" bson:"leadId"`
	Answers       map[string]any `json:"answers" bson:"answers"`
	Score         int            `json:"score" bson:"score"`
	CurrentStepID string         `json:"currentStepId,omitempty" bson:"currentStepId,omitempty"`
	StartedAt     time.Time      `json:"startedAt" bson:"startedAt"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updatedAt"`
	CompletedAt   *time.Time     `json:"completedAt" bson:"completedAt"`
}

// IsCompleted reports whether the session has terminated
func (s *Session) IsCompleted() bool {
	return s.CompletedAt != nil
}

// Answer returns the recorded answer for a step
func (s *Session) Answer(stepID string) (any, bool) {
	v, ok := s.Answers[stepID]
	return v, ok
}

// SetAnswer records the value submitted for a step
func (s *Session) SetAnswer(stepID string, value any) {
	if s.Answers == nil {
		s.Answers = map[string]any{}
	}
	s.Answers[stepID] = value
}

// Variables returns a copy of the explicit variable map stored under VariablesKey
func (s *Session) Variables() map[string]any {
	out := map[string]any{}
	if vars, ok := AsMap(s.Answers[VariablesKey]); ok {
		for k, v := range vars {
			out[k] = v
		}
	}
	return out
}

// SetVariable writes name into the reserved variable map
func (s *Session) SetVariable(name string, value any) {
	vars := s.Variables()
	vars[name] = value
	if s.Answers == nil {
		s.Answers = map[string]any{}
	}
	s.Answers[VariablesKey] = vars
}

// Complete stamps CompletedAt once
func (s *Session) Complete(at time.Time) {
	if s.CompletedAt == nil {
		s.CompletedAt = &at
	}
}
