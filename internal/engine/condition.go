package engine

import (
	"math"
	"strconv"
	"strings"

	"quizfunnel/internal/model"
)

// EvaluationContext is rebuilt from the session and step catalog on every
// navigation request
type EvaluationContext struct {
	Answers       map[string]any
	Variables     map[string]any
	CurrentStepID string
}

// EvaluateCondition resolves the condition's source in ctx and compares it to
// the condition literal. Missing data never satisfies a condition.
func EvaluateCondition(cond model.Condition, ctx *EvaluationContext) bool {
	var resolved any
	switch cond.Type {
	case model.ConditionAnswer:
		resolved = ctx.Answers[cond.Source]
	case model.ConditionVariable:
		resolved = ctx.Variables[cond.Source]
	default:
		return false
	}
	if resolved == nil {
		return false
	}

	switch cond.Operator {
	case model.OpEq:
		return looseEqual(resolved, cond.Value)
	case model.OpNeq:
		return !looseEqual(resolved, cond.Value)
	case model.OpGt:
		return compareNumbers(resolved, cond.Value, func(a, b float64) bool { return a > b })
	case model.OpLt:
		return compareNumbers(resolved, cond.Value, func(a, b float64) bool { return a < b })
	case model.OpGte:
		return compareNumbers(resolved, cond.Value, func(a, b float64) bool { return a >= b })
	case model.OpLte:
		return compareNumbers(resolved, cond.Value, func(a, b float64) bool { return a <= b })
	case model.OpIn:
		list, ok := model.AsSlice(cond.Value)
		return ok && contains(list, resolved)
	case model.OpNotIn:
		list, ok := model.AsSlice(cond.Value)
		return ok && !contains(list, resolved)
	}
	return false
}

func compareNumbers(a, b any, cmp func(a, b float64) bool) bool {
	x, y := toNumber(a), toNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return cmp(x, y)
}

func contains(list []any, v any) bool {
	for _, item := range list {
		if strictEqual(item, v) {
			return true
		}
	}
	return false
}

type valueKind int

const (
	kindNil valueKind = iota
	kindNumber
	kindString
	kindBool
	kindObject
)

func kindOf(v any) valueKind {
	switch v.(type) {
	case nil:
		return kindNil
	case string:
		return kindString
	case bool:
		return kindBool
	}
	if _, ok := model.AsFloat(v); ok {
		return kindNumber
	}
	return kindObject
}

// strictEqual compares without coercion; lists and maps never match
func strictEqual(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case kindNil:
		return true
	case kindNumber:
		x, _ := model.AsFloat(a)
		y, _ := model.AsFloat(b)
		return x == y
	case kindString:
		return a.(string) == b.(string)
	case kindBool:
		return a.(bool) == b.(bool)
	}
	return false
}

// looseEqual follows the coercive equality answers are usually compared with:
// "10" equals 10, true equals 1, ["a"] equals "a".
func looseEqual(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka == kindNil || kb == kindNil {
		return ka == kb
	}
	if ka == kb {
		return strictEqual(a, b)
	}
	switch {
	case ka == kindBool:
		return looseEqual(toNumber(a), b)
	case kb == kindBool:
		return looseEqual(a, toNumber(b))
	case ka == kindNumber && kb == kindString:
		x, _ := model.AsFloat(a)
		return x == toNumber(b)
	case ka == kindString && kb == kindNumber:
		y, _ := model.AsFloat(b)
		return toNumber(a) == y
	case ka == kindObject:
		return looseEqual(toPrimitive(a), b)
	case kb == kindObject:
		return looseEqual(a, toPrimitive(b))
	}
	return false
}

// toPrimitive flattens lists to their comma-joined text and maps to an opaque
// marker that equals nothing but itself as a string
func toPrimitive(v any) any {
	if kindOf(v) != kindObject {
		return v
	}
	if list, ok := model.AsSlice(v); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			if item == nil {
				continue
			}
			parts[i] = toString(toPrimitive(item))
		}
		return strings.Join(parts, ",")
	}
	return "[object Object]"
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := model.AsFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return toString(toPrimitive(v))
}

// toNumber converts v to a number; unparseable text becomes NaN and blank
// text becomes 0. Of the non-finite spellings only "Infinity" with an
// optional sign is accepted.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		lower := strings.ToLower(s)
		if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	if f, ok := model.AsFloat(v); ok {
		return f
	}
	return toNumber(toPrimitive(v))
}
