package model

// NavigationResult tells the client what happens after a step.
// An empty StepID with Redirect set means redirect and terminate; an empty
// StepID without Redirect means the quiz was ended by a rule.
type NavigationResult struct {
	StepID    string   `json:"stepId"`
	StepIndex *int     `json:"stepIndex,omitempty"`
	Score     *int     `json:"score,omitempty"`
	Message   string   `json:"message,omitempty"`
	Redirect  string   `json:"redirect,omitempty"`
	Actions   []Action `json:"actions,omitempty"`
}

// IsTerminal reports whether the result ends the quiz
func (r *NavigationResult) IsTerminal() bool {
	return r.StepID == ""
}

// SubmitAnswerRequest is the body of an answer submission
type SubmitAnswerRequest struct {
	StepID string `json:"stepId"`
	Value  any    `json:"value"`
}

// NextStepRequest is the body of a navigation request
type NextStepRequest struct {
	CurrentStepID string `json:"currentStepId"`
}

// StartSessionRequest is the body of a session start
type StartSessionRequest struct {
	Lead *LeadInput `json:"lead,omitempty"`
}

// StartSessionResponse carries the new session and its respondent token
type StartSessionResponse struct {
	Session     *Session `json:"session"`
	Token       string   `json:"token"`
	FirstStepID string   `json:"firstStepId,omitempty"`
}
