package mathexpr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scope maps symbol names to values. Values are float64, bool, string or Function.
type Scope map[string]any

// Function is a callable scope value.
type Function func(args ...any) (any, error)

const epsilon = 1e-12

var builtins = map[string]Function{
	"equalText": equalText,
}

// Evaluate parses and evaluates text against scope.
func Evaluate(text string, scope Scope) (any, error) {
	node, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return Eval(node, scope)
}

// Eval evaluates a node tree against scope.
func Eval(node Node, scope Scope) (any, error) {
	switch n := node.(type) {
	case *ConstantNode:
		return normalizeValue(n.Value), nil

	case *SymbolNode:
		v, ok := scope[n.Name]
		if !ok {
			return nil, NewError(ErrUndefinedSymbol, "Undefined symbol "+n.Name, -1)
		}
		return normalizeValue(v), nil

	case *ParenthesisNode:
		return Eval(n.Content, scope)

	case *OperatorNode:
		args, err := evalArgs(n.Args, scope)
		if err != nil {
			return nil, err
		}
		return applyOperator(n.Fn, args)

	case *FunctionNode:
		fn, err := lookupFunction(n.Name, scope)
		if err != nil {
			return nil, err
		}
		args, err := evalArgs(n.Args, scope)
		if err != nil {
			return nil, err
		}
		v, err := fn(args...)
		if err != nil {
			return nil, err
		}
		return normalizeValue(v), nil
	}

	return nil, NewError(ErrInvalidOperation, fmt.Sprintf("Cannot evaluate node of type %T", node), -1)
}

func evalArgs(nodes []Node, scope Scope) ([]any, error) {
	args := make([]any, len(nodes))
	for i, arg := range nodes {
		v, err := Eval(arg, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func lookupFunction(name string, scope Scope) (Function, error) {
	if fn, ok := builtins[name]; ok {
		return fn, nil
	}
	v, ok := scope[name]
	if !ok {
		return nil, NewError(ErrUndefinedFunc, "Undefined function "+name, -1)
	}
	switch fn := v.(type) {
	case Function:
		return fn, nil
	case func(args ...any) (any, error):
		return fn, nil
	}
	return nil, NewError(ErrInvalidOperation, name+" is not a function", -1)
}

func applyOperator(fn string, args []any) (any, error) {
	arity, ok := OperatorArity(fn)
	if !ok {
		return nil, NewError(ErrUndefinedFunc, "Undefined operator "+fn, -1)
	}
	if len(args) != arity {
		return nil, NewError(ErrArgumentCount,
			fmt.Sprintf("Wrong number of arguments in function %s (%d provided, %d expected)", fn, len(args), arity), -1)
	}

	switch fn {
	case "and", "or", "xor":
		x, err := ToBoolean(args[0])
		if err != nil {
			return nil, err
		}
		y, err := ToBoolean(args[1])
		if err != nil {
			return nil, err
		}
		switch fn {
		case "and":
			return x && y, nil
		case "or":
			return x || y, nil
		}
		return x != y, nil

	case "not":
		x, err := ToBoolean(args[0])
		if err != nil {
			return nil, err
		}
		return !x, nil

	case "unaryMinus", "unaryPlus":
		x, err := ToNumber(args[0])
		if err != nil {
			return nil, err
		}
		if fn == "unaryMinus" {
			return -x, nil
		}
		return x, nil
	}

	x, err := ToNumber(args[0])
	if err != nil {
		return nil, err
	}
	y, err := ToNumber(args[1])
	if err != nil {
		return nil, err
	}

	switch fn {
	case "add":
		return x + y, nil
	case "subtract":
		return x - y, nil
	case "multiply":
		return x * y, nil
	case "divide":
		return x / y, nil
	case "mod":
		if y == 0 {
			return x, nil
		}
		return x - y*math.Floor(x/y), nil
	case "equal":
		return nearlyEqual(x, y), nil
	case "unequal":
		return !nearlyEqual(x, y), nil
	case "larger":
		return x > y && !nearlyEqual(x, y), nil
	case "smaller":
		return x < y && !nearlyEqual(x, y), nil
	case "largerEq":
		return x > y || nearlyEqual(x, y), nil
	case "smallerEq":
		return x < y || nearlyEqual(x, y), nil
	}

	return nil, NewError(ErrUndefinedFunc, "Undefined operator "+fn, -1)
}

// ToNumber converts an evaluation value to a number. Booleans become 1 or 0
// and numeric strings are parsed.
func ToNumber(v any) (float64, error) {
	switch x := normalizeValue(v).(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, NewError(ErrCannotConvert, fmt.Sprintf("Cannot convert %q to a number", x), -1)
		}
		return f, nil
	}
	return 0, NewError(ErrCannotConvert, fmt.Sprintf("Cannot convert %v to a number", v), -1)
}

// ToBoolean converts an evaluation value to a boolean. Numbers are true when
// non-zero and not NaN.
func ToBoolean(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	n, err := ToNumber(v)
	if err != nil {
		return false, err
	}
	return n != 0 && !math.IsNaN(n), nil
}

func nearlyEqual(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	if x == y {
		return true
	}
	if math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	diff := math.Abs(x - y)
	if diff < math.SmallestNonzeroFloat64 {
		return true
	}
	return diff <= math.Max(math.Abs(x), math.Abs(y))*epsilon
}

func equalText(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, NewError(ErrArgumentCount,
			fmt.Sprintf("Wrong number of arguments in function equalText (%d provided, 2 expected)", len(args)), -1)
	}
	return FormatValue(args[0]) == FormatValue(args[1]), nil
}
