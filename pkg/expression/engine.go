// Package expression implements the condition grammar used to gate workflow
// steps: a single binary comparison of the form "field OP value".
//
// Supported operators, in matching priority order: >=, <=, !=, >, <, ==.
// The expression is split at the first occurrence of the highest-priority
// operator found, which keeps ">=" from being misread as ">".
package expression

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/docuflow/backend/pkg/errors"
)

// operators in priority order; two-character operators first so that
// ">=" is never split as ">" + "="
var operators = []string{">=", "<=", "!=", ">", "<", "=="}

// Condition is a parsed "field OP value" comparison.
// Value is float64 when the right-hand side looks numeric, else string.
type Condition struct {
	Field    string
	Operator string
	Value    interface{}
}

// Parse splits an expression into field, operator and typed value.
// Returns a MalformedExpressionError when no operator is present or either
// side is empty after trimming.
func Parse(expr string) (*Condition, error) {
	for _, op := range operators {
		idx := strings.Index(expr, op)
		if idx < 0 {
			continue
		}

		field := strings.TrimSpace(expr[:idx])
		raw := strings.TrimSpace(expr[idx+len(op):])

		if field == "" {
			return nil, appErrors.NewMalformedExpressionError(expr, "missing field before operator")
		}
		if raw == "" {
			return nil, appErrors.NewMalformedExpressionError(expr, "missing value after operator")
		}

		return &Condition{Field: field, Operator: op, Value: coerceValue(raw)}, nil
	}

	return nil, appErrors.NewMalformedExpressionError(expr, "no comparison operator found")
}

// Evaluate parses the expression and evaluates it against the context.
// The only possible error is a parse failure; evaluation itself never
// errors (an absent field simply yields false).
func Evaluate(expr string, context map[string]interface{}) (bool, error) {
	cond, err := Parse(expr)
	if err != nil {
		return false, err
	}
	return cond.Eval(context), nil
}

// Eval evaluates the parsed condition against a context map.
// A nil or absent context value is always false, regardless of operator.
func (c *Condition) Eval(context map[string]interface{}) bool {
	if context == nil {
		return false
	}

	actual, ok := context[c.Field]
	if !ok || actual == nil {
		return false
	}

	// Numeric comparison when both sides coerce to numbers
	actualNum, actualIsNum := toFloat(actual)
	expectedNum, expectedIsNum := toFloat(c.Value)
	if actualIsNum && expectedIsNum {
		return compareFloats(actualNum, c.Operator, expectedNum)
	}

	// Non-numeric operands: only equality operators are meaningful
	actualStr := fmt.Sprintf("%v", actual)
	expectedStr := fmt.Sprintf("%v", c.Value)
	switch c.Operator {
	case "==":
		return actualStr == expectedStr
	case "!=":
		return actualStr != expectedStr
	default:
		return false
	}
}

func compareFloats(a float64, op string, b float64) bool {
	switch op {
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	case "!=":
		return a != b
	case ">":
		return a > b
	case "<":
		return a < b
	case "==":
		return a == b
	default:
		return false
	}
}

// coerceValue converts the raw right-hand side to float64 when it parses as
// a number, otherwise keeps it as a string (surrounding quotes stripped)
func coerceValue(raw string) interface{} {
	if num, err := strconv.ParseFloat(raw, 64); err == nil {
		return num
	}
	return strings.Trim(raw, `"'`)
}

// toFloat attempts to interpret a value as a number
func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		num, err := strconv.ParseFloat(val, 64)
		return num, err == nil
	default:
		return 0, false
	}
}
