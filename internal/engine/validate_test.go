package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizfunnel/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func violationsOf(t *testing.T, err error) []Violation {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Violations
}

func TestValidateAnswer_MultiSelect(t *testing.T) {
	step := &model.Step{
		ID:   "q",
		Type: model.StepTypeQuestion,
		Metadata: model.StepMetadata{
			MultipleChoice: true,
			MinSelections:  intPtr(2),
			MaxSelections:  intPtr(3),
		},
	}

	tests := []struct {
		name      string
		value     any
		wantField string
	}{
		{"one is too few", []any{"a"}, "minSelections"},
		{"two ok", []any{"a", "b"}, ""},
		{"three ok", []string{"a", "b", "c"}, ""},
		{"four is too many", []any{"a", "b", "c", "d"}, "maxSelections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswer(step, tt.value)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			v := violationsOf(t, err)
			require.Len(t, v, 1)
			assert.Equal(t, tt.wantField, v[0].Field)
		})
	}
}

func TestValidateAnswer_MultiSelectDefaults(t *testing.T) {
	step := &model.Step{ID: "q", Type: model.StepTypeQuestion, Metadata: model.StepMetadata{MultipleChoice: true}}
	assert.Error(t, ValidateAnswer(step, []any{}))
	assert.NoError(t, ValidateAnswer(step, []any{"a", "b", "c", "d", "e"}))

	single := &model.Step{ID: "q", Type: model.StepTypeQuestion}
	assert.NoError(t, ValidateAnswer(single, []any{}), "arrays are not checked unless multipleChoice is set")
}

func TestValidateAnswer_Capture(t *testing.T) {
	explicit := &model.Step{
		ID:   "c",
		Type: model.StepTypeCapture,
		Metadata: model.StepMetadata{CaptureFields: &model.CaptureFields{
			Name: boolPtr(true), Email: boolPtr(true), Phone: boolPtr(false),
		}},
	}

	t.Run("empty name rejected", func(t *testing.T) {
		v := violationsOf(t, ValidateAnswer(explicit, map[string]any{"name": "", "email": "a@b.com"}))
		require.Len(t, v, 1)
		assert.Equal(t, "name", v[0].Field)
	})

	t.Run("all violations collected", func(t *testing.T) {
		v := violationsOf(t, ValidateAnswer(explicit, map[string]any{"name": "  ", "email": "not-an-email"}))
		require.Len(t, v, 2)
		assert.Equal(t, "name", v[0].Field)
		assert.Equal(t, "email", v[1].Field)
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateAnswer(explicit, map[string]any{"name": "Ana", "email": "ana@example.com"}))
	})

	t.Run("non object value misses every required field", func(t *testing.T) {
		v := violationsOf(t, ValidateAnswer(explicit, "Ana"))
		assert.Len(t, v, 2)
	})

	t.Run("defaults apply when nothing declared", func(t *testing.T) {
		step := &model.Step{ID: "c", Type: model.StepTypeCapture}
		assert.NoError(t, ValidateAnswer(step, map[string]any{"name": "Ana", "email": "a@b.co"}))
		v := violationsOf(t, ValidateAnswer(step, map[string]any{"name": "Ana"}))
		assert.Equal(t, "email", v[0].Field)
	})

	t.Run("partial declaration requires absent flags", func(t *testing.T) {
		step := &model.Step{ID: "c", Type: model.StepTypeCapture, Metadata: model.StepMetadata{
			CaptureFields: &model.CaptureFields{Name: boolPtr(true), Email: boolPtr(true)},
		}}
		v := violationsOf(t, ValidateAnswer(step, map[string]any{"name": "Ann", "email": "a@b.com"}))
		require.Len(t, v, 1)
		assert.Equal(t, "phone", v[0].Field)
		assert.Equal(t, "phone is required", v[0].Message)
	})

	t.Run("phone required when flagged", func(t *testing.T) {
		step := &model.Step{ID: "c", Type: model.StepTypeCapture, Metadata: model.StepMetadata{
			CaptureFields: &model.CaptureFields{Email: boolPtr(false), Phone: boolPtr(true)},
		}}
		v := violationsOf(t, ValidateAnswer(step, map[string]any{"name": "Ana", "email": "garbage"}))
		require.Len(t, v, 1)
		assert.Equal(t, "phone", v[0].Field)
	})
}

func TestValidateAnswer_OtherStepTypesAcceptAnything(t *testing.T) {
	for _, st := range []model.StepType{model.StepTypeText, model.StepTypeInput, model.StepTypeResult, model.StepTypeQuestion} {
		assert.NoError(t, ValidateAnswer(&model.Step{ID: "s", Type: st}, "anything"))
	}
}
