package mathexpr

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// String returns the literal text of the constant.
func (n *ConstantNode) String() string {
	if s, ok := n.Value.(string); ok {
		return quoteString(s)
	}
	return FormatValue(n.Value)
}

// String returns the symbol name.
func (n *SymbolNode) String() string {
	return n.Name
}

// String renders the call as name(arg1, arg2).
func (n *FunctionNode) String() string {
	return n.Name + "(" + joinArgs(n.Args) + ")"
}

// String renders the content inside parentheses.
func (n *ParenthesisNode) String() string {
	return "(" + n.Content.String() + ")"
}

// String renders the operator with the minimal parentheses its operands
// need: an operand is wrapped when it binds weaker than the operator, or
// equally on the non-associative side.
func (n *OperatorNode) String() string {
	info, known := operatorsByFn[n.Fn]

	switch {
	case len(n.Args) == 1:
		operand := n.Args[0].String()
		if !known || needsUnaryParens(info, n.Args[0]) {
			operand = "(" + operand + ")"
		}
		if isNamedOperator(n.Op) {
			return n.Op + " " + operand
		}
		return n.Op + operand

	case len(n.Args) == 2:
		lhs := n.Args[0].String()
		rhs := n.Args[1].String()
		if !known {
			if precedenceOf(n.Args[0]) != precNone {
				lhs = "(" + lhs + ")"
			}
			if precedenceOf(n.Args[1]) != precNone {
				rhs = "(" + rhs + ")"
			}
			return lhs + " " + n.Op + " " + rhs
		}
		lhsParens, rhsParens := binaryParens(info, n.Args[0], n.Args[1])
		if lhsParens {
			lhs = "(" + lhs + ")"
		}
		if rhsParens {
			rhs = "(" + rhs + ")"
		}
		return lhs + " " + n.Op + " " + rhs
	}

	return n.Fn + "(" + joinArgs(n.Args) + ")"
}

func needsUnaryParens(info *operatorInfo, operand Node) bool {
	p := precedenceOf(operand)
	if p == precNone {
		return false
	}
	return p <= info.precedence
}

func binaryParens(info *operatorInfo, lhs, rhs Node) (bool, bool) {
	var lhsParens, rhsParens bool

	lp := precedenceOf(lhs)
	switch {
	case lp == precNone:
	case lp == info.precedence && info.assoc == assocRight && !isAssociativeWith(info, lhs):
		lhsParens = true
	case lp < info.precedence:
		lhsParens = true
	}

	rp := precedenceOf(rhs)
	switch {
	case rp == precNone:
	case rp == info.precedence && info.assoc == assocLeft && !isAssociativeWith(info, rhs):
		rhsParens = true
	case rp < info.precedence:
		rhsParens = true
	}

	return lhsParens, rhsParens
}

func isNamedOperator(op string) bool {
	for _, r := range op {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func joinArgs(args []Node) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, ", ")
}

// FormatValue renders an evaluation value as text. Strings are returned
// unquoted; numbers use the shortest representation that round-trips.
func FormatValue(v any) string {
	switch x := normalizeValue(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(x)
	case Function:
		return "function"
	}
	return ""
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	s = strings.Replace(s, "e-0", "e-", 1)
	return strings.Replace(s, "e+0", "e+", 1)
}

func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
