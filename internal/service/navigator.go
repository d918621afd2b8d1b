package service

import (
	"fmt"
	"quizfunnel/internal/engine"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"time"
)

// Outcome is how a navigation request resolved
type Outcome string

const (
	OutcomeAdvance    Outcome = "advance"
	OutcomeRedirect   Outcome = "redirect"
	OutcomeEnd        Outcome = "end"
	OutcomeNoNextStep Outcome = "none"
)

// Navigation is the navigator's verdict for one request. Result is nil for
// OutcomeNoNextStep. Dirty is set when the session was changed in place and
// needs to be persisted.
type Navigation struct {
	Outcome Outcome
	Result  *model.NavigationResult
	RuleID  string
	Dirty   bool
}

// Navigator decides what follows a step and applies the matched rule's
// effects to the session
type Navigator struct {
	log *logger.Logger
	now func() time.Time
}

// NewNavigator creates a new navigator
func NewNavigator(log *logger.Logger) *Navigator {
	return &Navigator{
		log: log,
		now: time.Now,
	}
}

// Next runs the rule pipeline for currentStepID. steps must be the quiz's
// full catalog ordered by order.
func (n *Navigator) Next(sess *model.Session, steps []*model.Step, currentStepID string) (*Navigation, error) {
	idx := engine.IndexOfStep(steps, currentStepID)
	if idx < 0 {
		return nil, fmt.Errorf("step %s: %w", currentStepID, ErrNotFound)
	}
	current := steps[idx]

	if !current.HasRules() {
		return n.advance(sess, steps, nextSequential(steps, idx), "", nil, false), nil
	}

	evalCtx := engine.BuildContext(sess.Answers, steps, current.ID)
	match := engine.EvaluateRules(current.Metadata.Rules, evalCtx)
	if !match.Matched {
		return n.advance(sess, steps, nextSequential(steps, idx), "", nil, false), nil
	}

	plan := engine.ExecuteActions(match.Actions, steps, idx)
	for _, issue := range plan.Issues {
		n.log.Warn("skipping rule action",
			"quiz_id", sess.QuizID,
			"session_id", sess.ID,
			"step_id", current.ID,
			"rule_id", match.Rule.ID,
			"issue", issue,
		)
	}

	switch plan.Kind {
	case engine.OutcomeRedirect:
		sess.Complete(n.now())
		return &Navigation{
			Outcome: OutcomeRedirect,
			RuleID:  match.Rule.ID,
			Dirty:   true,
			Result: &model.NavigationResult{
				Redirect: plan.RedirectURL,
				Actions:  match.Actions,
			},
		}, nil
	case engine.OutcomeEnd:
		sess.Complete(n.now())
		return &Navigation{
			Outcome: OutcomeEnd,
			RuleID:  match.Rule.ID,
			Dirty:   true,
			Result:  &model.NavigationResult{Actions: match.Actions},
		}, nil
	}

	dirty := false
	for _, m := range plan.Mutations {
		sess.SetVariable(m.Name, m.Value)
		dirty = true
	}
	if plan.ScoreDelta != 0 {
		sess.Score += plan.ScoreDelta
		dirty = true
	}

	target := plan.TargetStepID
	if target == "" {
		target = nextSequential(steps, idx)
	}
	nav := n.advance(sess, steps, target, plan.Message, match.Actions, dirty)
	nav.RuleID = match.Rule.ID
	return nav, nil
}

func (n *Navigator) advance(sess *model.Session, steps []*model.Step, target, message string, actions []model.Action, dirty bool) *Navigation {
	if target == "" {
		return &Navigation{Outcome: OutcomeNoNextStep, Dirty: dirty}
	}
	if sess.CurrentStepID != target {
		sess.CurrentStepID = target
		dirty = true
	}

	index := engine.IndexOfStep(steps, target)
	score := sess.Score
	return &Navigation{
		Outcome: OutcomeAdvance,
		Dirty:   dirty,
		Result: &model.NavigationResult{
			StepID:    target,
			StepIndex: &index,
			Score:     &score,
			Message:   message,
			Actions:   actions,
		},
	}
}

// nextSequential returns the id of the step after idx, or "" at the end
func nextSequential(steps []*model.Step, idx int) string {
	if idx < 0 || idx+1 >= len(steps) {
		return ""
	}
	return steps[idx+1].ID
}
