package service

// Live events pushed to authors watching a quiz
const (
	EventSessionStarted   = "session_started"
	EventAnswerSubmitted  = "answer_submitted"
	EventNavigated        = "navigated"
	EventSessionCompleted = "session_completed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToQuiz(quizID string, msgType string, payload interface{})
}
