package model

import "time"

// QuizStatus controls whether respondents can start sessions
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
)

// Quiz is a funnel authored by an owner and completed by anonymous respondents
type Quiz struct {
	ID          string     `json:"id" bson:"_id"`
	OwnerID     string     `json:"ownerId" bson:"ownerId"`
	Title       string     `json:"title" bson:"title"`
	Slug        string     `json:"slug" bson:"slug"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Status      QuizStatus `json:"status" bson:"status"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// IsPublished reports whether respondents may start the quiz
func (q *Quiz) IsPublished() bool {
	return q.Status == QuizStatusPublished
}

// QuizWithSteps is the public view of a quiz and its ordered steps
type QuizWithSteps struct {
	Quiz  *Quiz   `json:"quiz"`
	Steps []*Step `json:"steps"`
}
