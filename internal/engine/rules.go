package engine

import (
	"sort"

	"quizfunnel/internal/model"
)

// Match is the outcome of evaluating a step's rules
type Match struct {
	Matched bool
	Rule    *model.Rule
	Actions []model.Action
}

// EvaluateConditions combines conditions with the rule logic. An empty list
// is vacuously true under both AND and OR.
func EvaluateConditions(conditions []model.Condition, logic model.RuleLogic, ctx *EvaluationContext) bool {
	if len(conditions) == 0 {
		return true
	}
	if logic == model.LogicOr {
		for _, c := range conditions {
			if EvaluateCondition(c, ctx) {
				return true
			}
		}
		return false
	}
	for _, c := range conditions {
		if !EvaluateCondition(c, ctx) {
			return false
		}
	}
	return true
}

// SortRules returns a copy of rules stably ordered by ascending priority
func SortRules(rules []model.Rule) []model.Rule {
	sorted := make([]model.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectivePriority() < sorted[j].EffectivePriority()
	})
	return sorted
}

// EvaluateRules returns the first rule, in priority order, whose conditions
// hold. Rules after the winner are not evaluated.
func EvaluateRules(rules []model.Rule, ctx *EvaluationContext) Match {
	for _, rule := range SortRules(rules) {
		if EvaluateConditions(rule.Conditions, rule.Logic, ctx) {
			r := rule
			return Match{Matched: true, Rule: &r, Actions: r.Actions}
		}
	}
	return Match{}
}
