package model

// DefaultRulePriority is used for rules that declare no priority; they sort last
const DefaultRulePriority = 999

// RuleLogic combines a rule's conditions
type RuleLogic string

const (
	LogicAnd RuleLogic = "AND"
	LogicOr  RuleLogic = "OR"
)

// ConditionType selects where a condition reads its value from
type ConditionType string

const (
	ConditionAnswer   ConditionType = "answer"   // source is a step id
	ConditionVariable ConditionType = "variable" // source is a variable name
)

// Operator compares a resolved value to a condition literal
type Operator string

const (
	OpEq    Operator = "=="
	OpNeq   Operator = "!="
	OpGt    Operator = ">"
	OpLt    Operator = "<"
	OpGte   Operator = ">="
	OpLte   Operator = "<="
	OpIn    Operator = "in"
	OpNotIn Operator = "notIn"
)

// Valid reports whether op is a known operator
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpIn, OpNotIn:
		return true
	}
	return false
}

// ActionType names an effect applied when a rule matches
type ActionType string

const (
	ActionGoto        ActionType = "goto"
	ActionSkip        ActionType = "skip"
	ActionScore       ActionType = "score"
	ActionSetVariable ActionType = "setVariable"
	ActionMessage     ActionType = "message"
	ActionRedirect    ActionType = "redirect"
	ActionEnd         ActionType = "end"
)

// Valid reports whether t is a known action type
func (t ActionType) Valid() bool {
	switch t {
	case ActionGoto, ActionSkip, ActionScore, ActionSetVariable, ActionMessage, ActionRedirect, ActionEnd:
		return true
	}
	return false
}

// Condition is an atomic predicate over an answer or a variable
type Condition struct {
	Type     ConditionType `json:"type" bson:"type"`
	Source   string        `json:"source" bson:"source"`
	Operator Operator      `json:"operator" bson:"operator"`
	Value    any           `json:"value" bson:"value"`
}

// Action is the stored form of a rule effect. The engine decodes it into a
// typed variant before executing it.
type Action struct {
	Type   ActionType `json:"type" bson:"type"`
	Target string     `json:"target,omitempty" bson:"target,omitempty"`
	Value  any        `json:"value,omitempty" bson:"value,omitempty"`
}

// Rule is a prioritized branch attached to a step
type Rule struct {
	ID         string      `json:"id" bson:"id"`
	Name       string      `json:"name,omitempty" bson:"name,omitempty"`
	Priority   *int        `json:"priority,omitempty" bson:"priority,omitempty"`
	Logic      RuleLogic   `json:"logic,omitempty" bson:"logic,omitempty"`
	Conditions []Condition `json:"conditions" bson:"conditions"`
	Actions    []Action    `json:"actions" bson:"actions"`
}

// EffectivePriority returns the declared priority or DefaultRulePriority
func (r *Rule) EffectivePriority() int {
	if r.Priority == nil {
		return DefaultRulePriority
	}
	return *r.Priority
}
