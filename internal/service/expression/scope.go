package expression

import (
	"math"
	"strconv"
	"strings"

	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

// Scope predicate names and the variable ops that derive their scope value
// from a comma separated test string.
const (
	FuncIsIn    = "isIn"
	FuncBetween = "between"

	OpIn      = "in"
	OpBetween = "between"
)

// malformedRange is the scope value of a "between" variable whose test
// string is not a numeric pair.
const malformedRange = -1.0

// BuildScope turns the variable palette into an evaluation scope.
// The isIn and between predicates are always bound and cannot be shadowed.
func BuildScope(variables models.Variables) mathexpr.Scope {
	scope := make(mathexpr.Scope, len(variables)+2)
	for _, v := range variables {
		scope[v.VariableName()] = scopeValue(v)
	}
	scope[FuncIsIn] = mathexpr.Function(isIn)
	scope[FuncBetween] = mathexpr.Function(between)
	return scope
}

func scopeValue(v models.Variable) any {
	cmp, ok := v.(models.ComparisonVariable)
	if !ok {
		return v.TestValue()
	}

	switch cmp.Op {
	case OpIn:
		items := splitList(mathexpr.FormatValue(cmp.Test))
		if len(items) == 0 {
			return ""
		}
		return ParseConstant(items[0])
	case OpBetween:
		lo, _, ok := parseRange(mathexpr.FormatValue(cmp.Test))
		if !ok {
			return malformedRange
		}
		return lo
	}
	return cmp.Test
}

// isIn(value, "a,b,c") reports whether value, as text, is one of the items.
func isIn(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, argumentCount(FuncIsIn, len(args))
	}
	value := mathexpr.FormatValue(args[0])
	for _, item := range splitList(mathexpr.FormatValue(args[1])) {
		if item == value {
			return true, nil
		}
	}
	return false, nil
}

// between(value, "min,max") reports whether value lies in the inclusive range.
// A malformed range yields false.
func between(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, argumentCount(FuncBetween, len(args))
	}
	n, err := mathexpr.ToNumber(args[0])
	if err != nil {
		return nil, err
	}
	lo, hi, ok := parseRange(mathexpr.FormatValue(args[1]))
	if !ok {
		return false, nil
	}
	return n >= lo && n <= hi, nil
}

func argumentCount(name string, got int) error {
	return mathexpr.NewError(mathexpr.ErrArgumentCount,
		"Wrong number of arguments in function "+name+" ("+strconv.Itoa(got)+" provided, 2 expected)", -1)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseRange parses "a,b" into ordered bounds.
func parseRange(s string) (lo, hi float64, ok bool) {
	parts := splitList(s)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || math.IsNaN(a) {
		return 0, 0, false
	}
	b, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(b) {
		return 0, 0, false
	}
	return math.Min(a, b), math.Max(a, b), true
}

// ParseConstant interprets constant text: "true" and "false" become booleans,
// finite numeric text becomes a number, anything else stays a string.
func ParseConstant(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n
		}
	}
	return raw
}
