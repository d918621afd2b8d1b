package model

import "time"

// Lead is contact data captured from a respondent
type Lead struct {
	ID        string    `json:"id" bson:"_id"`
	QuizID    string    `json:"quizId" bson:"quizId"`
	SessionID string    `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// LeadInput is the optional lead data supplied when a session starts
type LeadInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// IsEmpty reports whether no contact field was supplied
func (l *LeadInput) IsEmpty() bool {
	return l == nil || (l.Name == "" && l.Email == "" && l.Phone == "")
}
