package model

import (
	"encoding/json"
	"time"
)

// StepType defines what a step renders and how its answer is validated
type StepType string

const (
	StepTypeQuestion StepType = "QUESTION" // Options to pick from
	StepTypeText     StepType = "TEXT"     // Informational page, no answer
	StepTypeCapture  StepType = "CAPTURE"  // Lead form (name/email/phone)
	StepTypeResult   StepType = "RESULT"   // Terminal page
	StepTypeInput    StepType = "INPUT"    // Free-text input, may bind a variable
)

// Valid reports whether t is a known step type
func (t StepType) Valid() bool {
	switch t {
	case StepTypeQuestion, StepTypeText, StepTypeCapture, StepTypeResult, StepTypeInput:
		return true
	}
	return false
}

// Option is one selectable answer of a QUESTION step
type Option struct {
	Text  string `json:"text" bson:"text"`
	Value string `json:"value" bson:"value"`
}

// Question is present only on QUESTION steps
type Question struct {
	Text    string   `json:"text" bson:"text"`
	Options []Option `json:"options" bson:"options"`
}

// Step is an ordered node in a quiz
type Step struct {
	ID        string       `json:"id" bson:"_id"`
	QuizID    string       `json:"quizId" bson:"quizId"`
	Order     int          `json:"order" bson:"order"`
	Type      StepType     `json:"type" bson:"type"`
	Title     string       `json:"title,omitempty" bson:"title,omitempty"`
	Metadata  StepMetadata `json:"metadata" bson:"metadata"`
	Question  *Question    `json:"question,omitempty" bson:"question,omitempty"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// HasRules reports whether the step carries any branching rules
func (s *Step) HasRules() bool {
	return len(s.Metadata.Rules) > 0
}

// CaptureFields flags which lead fields a CAPTURE step asks for.
// Once declared, any flag that is not explicitly false is required.
type CaptureFields struct {
	Name  *bool `json:"name,omitempty" bson:"name,omitempty"`
	Email *bool `json:"email,omitempty" bson:"email,omitempty"`
	Phone *bool `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Default capture requirements when a CAPTURE step declares nothing
var DefaultCaptureFields = map[string]bool{
	"name":  true,
	"email": true,
	"phone": false,
}

// Required returns the effective required flag for each capture field.
// DefaultCaptureFields applies only when nothing is declared.
func (c *CaptureFields) Required() map[string]bool {
	if c == nil {
		out := make(map[string]bool, len(DefaultCaptureFields))
		for k, v := range DefaultCaptureFields {
			out[k] = v
		}
		return out
	}
	return map[string]bool{
		"name":  notFalse(c.Name),
		"email": notFalse(c.Email),
		"phone": notFalse(c.Phone),
	}
}

func notFalse(flag *bool) bool {
	return flag == nil || *flag
}

// StepMetadata is the typed view of a step's metadata bag. Keys the engine
// does not understand are kept in Extra and round-trip untouched.
type StepMetadata struct {
	Rules          []Rule         `json:"rules,omitempty" bson:"rules,omitempty"`
	MultipleChoice bool           `json:"multipleChoice,omitempty" bson:"multipleChoice,omitempty"`
	MinSelections  *int           `json:"minSelections,omitempty" bson:"minSelections,omitempty"`
	MaxSelections  *int           `json:"maxSelections,omitempty" bson:"maxSelections,omitempty"`
	CaptureFields  *CaptureFields `json:"captureFields,omitempty" bson:"captureFields,omitempty"`
	VariableName   string         `json:"variableName,omitempty" bson:"variableName,omitempty"`
	Extra          map[string]any `json:"-" bson:",inline"`
}

var metadataKeys = map[string]bool{
	"rules":          true,
	"multipleChoice": true,
	"minSelections":  true,
	"maxSelections":  true,
	"captureFields":  true,
	"variableName":   true,
}

type stepMetadataJSON struct {
	Rules          []Rule         `json:"rules,omitempty"`
	MultipleChoice bool           `json:"multipleChoice,omitempty"`
	MinSelections  *int           `json:"minSelections,omitempty"`
	MaxSelections  *int           `json:"maxSelections,omitempty"`
	CaptureFields  *CaptureFields `json:"captureFields,omitempty"`
	VariableName   string         `json:"variableName,omitempty"`
}

// UnmarshalJSON decodes the known keys and keeps the rest in Extra
func (m *StepMetadata) UnmarshalJSON(data []byte) error {
	var known stepMetadataJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*m = StepMetadata{
		Rules:          known.Rules,
		MultipleChoice: known.MultipleChoice,
		MinSelections:  known.MinSelections,
		MaxSelections:  known.MaxSelections,
		CaptureFields:  known.CaptureFields,
		VariableName:   known.VariableName,
	}
	for k, v := range all {
		if metadataKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = map[string]any{}
		}
		m.Extra[k] = v
	}
	return nil
}

// MarshalJSON flattens Extra back next to the known keys
func (m StepMetadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(stepMetadataJSON{
		Rules:          m.Rules,
		MultipleChoice: m.MultipleChoice,
		MinSelections:  m.MinSelections,
		MaxSelections:  m.MaxSelections,
		CaptureFields:  m.CaptureFields,
		VariableName:   m.VariableName,
	})
	if err != nil || len(m.Extra) == 0 {
		return known, err
	}

	out := map[string]any{}
	if err := json.Unmarshal(known, &out); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, ok := out[k]; !ok && !metadataKeys[k] {
			out[k] = v
		}
	}
	return json.Marshal(out)
}
