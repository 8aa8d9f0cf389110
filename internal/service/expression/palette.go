package expression

import (
	"fmt"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

// SupportedOperators lists the operator buttons the editor can place, in
// palette order.
var SupportedOperators = []string{
	"+", "-", "*", "/", ">",
	"<", ">=", "<=", "==", "!=",
	"and", "or", "xor", "not",
}

// SupportedFunctions maps placeable function names to their arity.
var SupportedFunctions = map[string]int{
	"equalText": 2,
	FuncIsIn:    2,
	FuncBetween: 2,
}

// OperatorNot is the only unary operator in the palette.
const OperatorNot = "not"

// LookupOperator returns the library identifier and arity of a palette operator.
func LookupOperator(op string) (fn string, arity int, ok bool) {
	supported := false
	for _, s := range SupportedOperators {
		if s == op {
			supported = true
			break
		}
	}
	if !supported {
		return "", 0, false
	}

	fn, ok = mathexpr.OperatorFn(op, op == OperatorNot)
	if !ok {
		return "", 0, false
	}
	arity, _ = mathexpr.OperatorArity(fn)
	return fn, arity, true
}

// FilterOperators keeps the palette items the editor can place.
func FilterOperators(items []models.PaletteItem) []models.PaletteItem {
	out := make([]models.PaletteItem, 0, len(items))
	for _, item := range items {
		if _, _, ok := LookupOperator(item.Name); ok {
			out = append(out, item)
		}
	}
	return out
}

// FilterFunctions keeps the palette items the editor can place.
func FilterFunctions(items []models.PaletteItem) []models.PaletteItem {
	out := make([]models.PaletteItem, 0, len(items))
	for _, item := range items {
		if _, ok := SupportedFunctions[item.Name]; ok {
			out = append(out, item)
		}
	}
	return out
}

// operatorBlock creates a root operator block with placeholder operands.
func operatorBlock(op string) (*models.Block, error) {
	fn, arity, ok := LookupOperator(op)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownOperator, op)
	}
	return models.NewOperatorBlock(op, fn, arity), nil
}

// functionBlock creates a root function block with placeholder operands.
func functionBlock(name string) (*models.Block, error) {
	arity, ok := SupportedFunctions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFunction, name)
	}
	return models.NewFunctionBlock(name, arity), nil
}

// fill puts operands into the block's slots.
func fill(block *models.Block, operands ...*models.Block) *models.Block {
	for i, operand := range operands {
		if i >= len(block.Args) {
			break
		}
		operand.SetAddress(i)
		block.Args[i] = operand
	}
	return block
}

// variableBlock builds what adding a variable puts on the canvas in mode.
func variableBlock(v models.Variable, mode models.OperatorMode) (*models.Block, error) {
	symbol := models.NewSymbolBlock(v.VariableName())
	if mode != models.OperatorModeVariable && mode != models.OperatorModeVariableExpression {
		return symbol, nil
	}

	switch x := v.(type) {
	case models.ComparisonVariable:
		name := x.Fn
		switch {
		case name == "" && x.Op == OpIn:
			name = FuncIsIn
		case name == "" && x.Op == OpBetween:
			name = FuncBetween
		}
		if name != "" {
			block, err := functionBlock(name)
			if err != nil {
				return nil, err
			}
			return fill(block, symbol, testBlock(x.Test, true)), nil
		}
		block, err := binaryOperatorBlock(x.Op)
		if err != nil {
			return nil, err
		}
		return fill(block, symbol, testBlock(x.Test, false)), nil

	case models.ReferenceVariable:
		block, err := binaryOperatorBlock(x.Op)
		if err != nil {
			return nil, err
		}
		if mode == models.OperatorModeVariableExpression {
			return fill(block, symbol, models.NewSymbolBlock(x.Other)), nil
		}
		return fill(block, symbol, testBlock(x.Test, false)), nil
	}

	return symbol, nil
}

func binaryOperatorBlock(op string) (*models.Block, error) {
	if op == OperatorNot {
		return nil, fmt.Errorf("%w: %q is not a comparison", domain.ErrUnknownOperator, op)
	}
	return operatorBlock(op)
}

// testBlock turns a variable test value into a constant. List and range
// predicates take the test as text.
func testBlock(test any, asText bool) *models.Block {
	if asText {
		return models.NewConstantBlock(mathexpr.FormatValue(test))
	}
	return models.NewConstantBlock(mathexpr.NewConstant(test).Value)
}
