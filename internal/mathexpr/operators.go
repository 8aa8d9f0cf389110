package mathexpr

// Precedence levels, lowest binding first.
const (
	precNone = iota - 1
	precOr
	precXor
	precAnd
	precRelational
	precAdditive
	precMultiplicative
	precUnary
)

type associativity uint8

const (
	assocLeft associativity = iota
	assocRight
)

type operatorInfo struct {
	op              string
	fn              string
	precedence      int
	assoc           associativity
	unary           bool
	associativeWith []string
}

var operatorTable = []operatorInfo{
	{op: "or", fn: "or", precedence: precOr},
	{op: "xor", fn: "xor", precedence: precXor},
	{op: "and", fn: "and", precedence: precAnd},
	{op: "==", fn: "equal", precedence: precRelational},
	{op: "!=", fn: "unequal", precedence: precRelational},
	{op: "<", fn: "smaller", precedence: precRelational},
	{op: ">", fn: "larger", precedence: precRelational},
	{op: "<=", fn: "smallerEq", precedence: precRelational},
	{op: ">=", fn: "largerEq", precedence: precRelational},
	{op: "+", fn: "add", precedence: precAdditive, associativeWith: []string{"add", "subtract"}},
	{op: "-", fn: "subtract", precedence: precAdditive},
	{op: "*", fn: "multiply", precedence: precMultiplicative, associativeWith: []string{"multiply", "divide"}},
	{op: "/", fn: "divide", precedence: precMultiplicative},
	{op: "%", fn: "mod", precedence: precMultiplicative},
	{op: "-", fn: "unaryMinus", precedence: precUnary, assoc: assocRight, unary: true},
	{op: "+", fn: "unaryPlus", precedence: precUnary, assoc: assocRight, unary: true},
	{op: "not", fn: "not", precedence: precUnary, assoc: assocRight, unary: true},
}

var (
	operatorsByFn     = make(map[string]*operatorInfo, len(operatorTable))
	binaryOperatorsOp = make(map[string]*operatorInfo)
	unaryOperatorsOp  = make(map[string]*operatorInfo)
)

func init() {
	for i := range operatorTable {
		info := &operatorTable[i]
		operatorsByFn[info.fn] = info
		if info.unary {
			unaryOperatorsOp[info.op] = info
		} else {
			binaryOperatorsOp[info.op] = info
		}
	}
}

// OperatorFn returns the operator identifier for a printed operator symbol.
// Unary and binary forms of "-" and "+" have different identifiers.
func OperatorFn(op string, unary bool) (string, bool) {
	table := binaryOperatorsOp
	if unary {
		table = unaryOperatorsOp
	}
	info, ok := table[op]
	if !ok {
		return "", false
	}
	return info.fn, true
}

// OperatorArity returns the number of operands an operator identifier takes.
func OperatorArity(fn string) (int, bool) {
	info, ok := operatorsByFn[fn]
	if !ok {
		return 0, false
	}
	if info.unary {
		return 1, true
	}
	return 2, true
}

// precedenceOf returns the binding strength of a node when it appears as an
// operand. Leaves, calls and explicit parentheses never need extra parentheses.
func precedenceOf(n Node) int {
	op, ok := n.(*OperatorNode)
	if !ok {
		return precNone
	}
	info, ok := operatorsByFn[op.Fn]
	if !ok {
		return precOr
	}
	return info.precedence
}

func isAssociativeWith(parent *operatorInfo, child Node) bool {
	op, ok := child.(*OperatorNode)
	if !ok {
		return false
	}
	for _, fn := range parent.associativeWith {
		if fn == op.Fn {
			return true
		}
	}
	return false
}
