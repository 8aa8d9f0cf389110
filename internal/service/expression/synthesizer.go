package expression

import (
	"math"

	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

// Synthesize derives the expression text and value of a forest.
//
// Only a forest with exactly one complete root produces text. Evaluation
// failures are reported in Evaluation.Error with an empty result; they are
// never returned.
func Synthesize(forest models.Forest, lib Library, scope mathexpr.Scope) models.Evaluation {
	root := forest.Single()
	if root == nil {
		return models.Evaluation{}
	}

	node := Recompose(root)
	if node == nil {
		return models.Evaluation{}
	}

	text := node.String()
	if text == "" {
		return models.Evaluation{}
	}

	result, err := lib.Evaluate(text, scope)
	if err != nil {
		return models.Evaluation{Expression: text, Error: err.Error()}
	}
	return models.Evaluation{Expression: text, Result: jsonSafe(result)}
}

// jsonSafe replaces values encoding/json cannot represent with their text.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return mathexpr.FormatValue(x)
		}
	case mathexpr.Function, func(args ...any) (any, error):
		return "function"
	}
	return v
}
