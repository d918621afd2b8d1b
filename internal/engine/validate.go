package engine

import (
	"fmt"
	"regexp"
	"strings"

	"quizfunnel/internal/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// capture fields are checked in this order so violations read naturally
var captureFieldOrder = []string{"name", "email", "phone"}

// Violation is one broken answer constraint
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violated constraint of one submission
type ValidationError struct {
	StepID     string      `json:"stepId"`
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("answer for step %s is invalid: %s", e.StepID, strings.Join(msgs, "; "))
}

// ValidateAnswer checks value against the step-type constraints. It returns
// a *ValidationError listing all violations, or nil.
func ValidateAnswer(step *model.Step, value any) error {
	var violations []Violation

	if list, ok := model.AsSlice(value); ok && step.Metadata.MultipleChoice {
		violations = append(violations, checkSelections(step.Metadata, len(list))...)
	}
	if step.Type == model.StepTypeCapture {
		violations = append(violations, checkCapture(step.Metadata.CaptureFields, value)...)
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{StepID: step.ID, Violations: violations}
}

func checkSelections(meta model.StepMetadata, selected int) []Violation {
	minSel := 1
	if meta.MinSelections != nil {
		minSel = *meta.MinSelections
	}
	if selected < minSel {
		return []Violation{{
			Field:   "minSelections",
			Message: fmt.Sprintf("select at least %d option(s), got %d", minSel, selected),
		}}
	}
	if meta.MaxSelections != nil && selected > *meta.MaxSelections {
		return []Violation{{
			Field:   "maxSelections",
			Message: fmt.Sprintf("select at most %d option(s), got %d", *meta.MaxSelections, selected),
		}}
	}
	return nil
}

func checkCapture(fields *model.CaptureFields, value any) []Violation {
	required := fields.Required()
	answer, _ := model.AsMap(value)

	var violations []Violation
	for _, field := range captureFieldOrder {
		if !required[field] {
			continue
		}
		text, present := fieldText(answer, field)
		if !present || strings.TrimSpace(text) == "" {
			violations = append(violations, Violation{
				Field:   field,
				Message: fmt.Sprintf("%s is required", field),
			})
			continue
		}
		if field == "email" && !emailPattern.MatchString(strings.TrimSpace(text)) {
			violations = append(violations, Violation{
				Field:   field,
				Message: "email is not a valid address",
			})
		}
	}
	return violations
}

func fieldText(answer map[string]any, field string) (string, bool) {
	v, ok := answer[field]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return toString(v), true
}
