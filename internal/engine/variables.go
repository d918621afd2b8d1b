package engine

import "quizfunnel/internal/model"

var captureVariableFields = []string{"name", "email", "phone"}

// ExtractVariables derives the variable map for rule evaluation. Explicit
// variables go first; CAPTURE answers are overlaid in step order, so a
// captured field shadows an explicit variable of the same name.
func ExtractVariables(answers map[string]any, steps []*model.Step) map[string]any {
	vars := map[string]any{}
	if explicit, ok := model.AsMap(answers[model.VariablesKey]); ok {
		for k, v := range explicit {
			vars[k] = v
		}
	}

	for _, step := range steps {
		if step.Type != model.StepTypeCapture {
			continue
		}
		answer, ok := model.AsMap(answers[step.ID])
		if !ok {
			continue
		}
		for _, field := range captureVariableFields {
			if v, ok := answer[field]; ok && !isBlank(v) {
				vars[field] = v
			}
		}
	}
	return vars
}

// BuildContext assembles the evaluation context for one navigation request
func BuildContext(answers map[string]any, steps []*model.Step, currentStepID string) *EvaluationContext {
	if answers == nil {
		answers = map[string]any{}
	}
	return &EvaluationContext{
		Answers:       answers,
		Variables:     ExtractVariables(answers, steps),
		CurrentStepID: currentStepID,
	}
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}
