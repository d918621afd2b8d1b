package engine

import (
	"fmt"
	"math"

	"quizfunnel/internal/model"
)

// Action is a decoded rule effect. The set of variants is closed.
type Action interface {
	isAction()
}

type Goto struct{ Target string }

// Skip moves by Offset steps, or straight to StepID when ByID is set
type Skip struct {
	Offset int
	StepID string
	ByID   bool
}

type Score struct{ Delta int }

type SetVariable struct {
	Name  string
	Value any
}

type Message struct{ Text string }

type Redirect struct{ URL string }

type End struct{}

func (Goto) isAction() {}
func (Skip) isAction() {}
func (Score) isAction() {}
func (SetVariable) isAction() {}
func (Message) isAction() {}
func (Redirect) isAction() {}
func (End) isAction() {}

// DecodeAction converts a stored action into its typed variant
func DecodeAction(a model.Action) (Action, error) {
	switch a.Type {
	case model.ActionGoto:
		if a.Target == "" {
			return nil, fmt.Errorf("goto without target")
		}
		return Goto{Target: a.Target}, nil

	case model.ActionSkip:
		if s, ok := a.Value.(string); ok {
			return Skip{StepID: s, ByID: true}, nil
		}
		if n, ok := model.AsFloat(a.Value); ok {
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return nil, fmt.Errorf("skip with non-finite value")
			}
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("skip offset %v is not a whole number", n)
			}
			return Skip{Offset: int(n)}, nil
		}
		if a.Value == nil && a.Target != "" {
			return Skip{StepID: a.Target, ByID: true}, nil
		}
		return nil, fmt.Errorf("skip value must be a number or a step id")

	case model.ActionScore:
		n := toNumber(a.Value)
		if a.Value == nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("score value %v is not a number", a.Value)
		}
		return Score{Delta: int(math.Round(n))}, nil

	case model.ActionSetVariable:
		if a.Target == "" || a.Value == nil {
			return nil, fmt.Errorf("setVariable needs a target and a value")
		}
		return SetVariable{Name: a.Target, Value: a.Value}, nil

	case model.ActionMessage:
		if a.Value == nil {
			return nil, fmt.Errorf("message without value")
		}
		return Message{Text: toString(a.Value)}, nil

	case model.ActionRedirect:
		url, _ := a.Value.(string)
		return Redirect{URL: url}, nil

	case model.ActionEnd:
		return End{}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", a.Type)
}

// OutcomeKind is the navigational verdict of a matched rule
type OutcomeKind int

const (
	// OutcomeFallthrough means no explicit destination; use sequential order
	OutcomeFallthrough OutcomeKind = iota
	OutcomeAdvance
	OutcomeRedirect
	OutcomeEnd
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAdvance:
		return "advance"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeEnd:
		return "end"
	}
	return "fallthrough"
}

// VariableMutation is a setVariable effect to apply to the session
type VariableMutation struct {
	Name  string
	Value any
}

// Plan is everything a matched rule asks for. Nothing in it has been applied.
type Plan struct {
	Kind         OutcomeKind
	TargetStepID string
	RedirectURL  string
	ScoreDelta   int
	Message      string
	Mutations    []VariableMutation
	// Issues lists actions that were skipped because they were malformed or
	// pointed at steps that do not exist
	Issues []string
}

// ExecuteActions interprets a matched rule's actions against the ordered step
// catalog. A redirect with a URL, then an end, anywhere in the list wins over
// every other action, and in that case nothing else is collected.
func ExecuteActions(actions []model.Action, steps []*model.Step, currentIndex int) Plan {
	var plan Plan
	decoded := make([]Action, 0, len(actions))
	for i, raw := range actions {
		a, err := DecodeAction(raw)
		if err != nil {
			plan.Issues = append(plan.Issues, fmt.Sprintf("action %d: %v", i, err))
			continue
		}
		decoded = append(decoded, a)
	}

	for _, a := range decoded {
		if r, ok := a.(Redirect); ok && r.URL != "" {
			return Plan{Kind: OutcomeRedirect, RedirectURL: r.URL, Issues: plan.Issues}
		}
	}
	for _, a := range decoded {
		if _, ok := a.(End); ok {
			return Plan{Kind: OutcomeEnd, Issues: plan.Issues}
		}
	}

	for _, a := range decoded {
		switch act := a.(type) {
		case Goto:
			if IndexOfStep(steps, act.Target) < 0 {
				plan.Issues = append(plan.Issues, fmt.Sprintf("goto target %s does not exist", act.Target))
				continue
			}
			plan.TargetStepID = act.Target
		case Skip:
			if act.ByID {
				if IndexOfStep(steps, act.StepID) < 0 {
					plan.Issues = append(plan.Issues, fmt.Sprintf("skip target %s does not exist", act.StepID))
					continue
				}
				plan.TargetStepID = act.StepID
				continue
			}
			idx := currentIndex + act.Offset
			if currentIndex < 0 || idx < 0 || idx >= len(steps) {
				plan.Issues = append(plan.Issues, fmt.Sprintf("skip by %d from index %d is out of range", act.Offset, currentIndex))
				continue
			}
			plan.TargetStepID = steps[idx].ID
		case Score:
			plan.ScoreDelta += act.Delta
		case SetVariable:
			plan.Mutations = append(plan.Mutations, VariableMutation{Name: act.Name, Value: act.Value})
		case Message:
			plan.Message = act.Text
		case Redirect, End:
			// empty-URL redirects are inert
		}
	}

	if plan.TargetStepID != "" {
		plan.Kind = OutcomeAdvance
	}
	return plan
}

// IndexOfStep returns the position of id in the ordered catalog, or -1
func IndexOfStep(steps []*model.Step, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}
