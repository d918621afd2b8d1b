package service

import (
	"fmt"
	"quizfunnel/internal/engine"
	"quizfunnel/internal/model"
)

// LintIssue is one authoring problem found in a quiz
type LintIssue struct {
	StepID  string `json:"stepId"`
	RuleID  string `json:"ruleId,omitempty"`
	Message string `json:"message"`
}

// LintSteps checks an ordered catalog for rules that would be skipped or
// misbehave at runtime
func LintSteps(steps []*model.Step) []LintIssue {
	issues := []LintIssue{}

	seenOrder := map[int]string{}
	for _, step := range steps {
		if other, dup := seenOrder[step.Order]; dup {
			issues = append(issues, LintIssue{
				StepID:  step.ID,
				Message: fmt.Sprintf("order %d is shared with step %s", step.Order, other),
			})
		} else {
			seenOrder[step.Order] = step.ID
		}

		if step.Type == model.StepTypeResult && step.HasRules() {
			issues = append(issues, LintIssue{StepID: step.ID, Message: "result step has rules"})
		}

		for _, rule := range step.Metadata.Rules {
			issues = append(issues, lintRule(step, rule, steps)...)
		}
	}
	return issues
}

func lintRule(step *model.Step, rule model.Rule, steps []*model.Step) []LintIssue {
	var issues []LintIssue
	add := func(format string, args ...interface{}) {
		issues = append(issues, LintIssue{StepID: step.ID, RuleID: rule.ID, Message: fmt.Sprintf(format, args...)})
	}

	if rule.Logic != "" && rule.Logic != model.LogicAnd && rule.Logic != model.LogicOr {
		add("logic %q is treated as AND", rule.Logic)
	}
	for _, cond := range rule.Conditions {
		if !cond.Operator.Valid() {
			add("condition on %s uses unknown operator %q", cond.Source, cond.Operator)
		}
		switch cond.Type {
		case model.ConditionAnswer:
			if engine.IndexOfStep(steps, cond.Source) < 0 {
				add("condition reads answer of missing step %s", cond.Source)
			}
		case model.ConditionVariable:
		default:
			add("condition type %q never matches", cond.Type)
		}
		if cond.Operator == model.OpIn || cond.Operator == model.OpNotIn {
			if _, ok := model.AsSlice(cond.Value); !ok {
				add("%s condition on %s needs an array value", cond.Operator, cond.Source)
			}
		}
	}

	for _, raw := range rule.Actions {
		a, err := engine.DecodeAction(raw)
		if err != nil {
			add("%v", err)
			continue
		}
		switch act := a.(type) {
		case engine.Goto:
			if engine.IndexOfStep(steps, act.Target) < 0 {
				add("goto target %s does not exist", act.Target)
			}
		case engine.Skip:
			if act.ByID && engine.IndexOfStep(steps, act.StepID) < 0 {
				add("skip target %s does not exist", act.StepID)
			}
			if !act.ByID {
				idx := engine.IndexOfStep(steps, step.ID) + act.Offset
				if idx < 0 || idx >= len(steps) {
					add("skip by %d leaves the quiz", act.Offset)
				}
			}
		case engine.Redirect:
			if act.URL == "" {
				add("redirect without url is ignored")
			}
		}
	}
	return issues
}
