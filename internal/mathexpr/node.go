// Package mathexpr implements a small math/boolean expression language:
// parsing text into a node tree, printing a tree back to text and evaluating
// expressions against a scope of named values and functions.
//
// The tree model follows the classic math-library shape used by block
// editors: constants, symbols, operators, function calls and explicit
// parentheses. Trees can be walked with Traverse, which reports every node
// together with its path inside the parent ("args[0]", "content") and the
// parent itself.
//
// # Example
//
//	node, err := mathexpr.Parse(`(1)*(2+3) > 0 and equalText(name, "abc")`)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(node.String()) // (1) * (2 + 3) > 0 and equalText(name, "abc")
//
//	v, err := mathexpr.Evaluate("1 + x", mathexpr.Scope{"x": 2.0})
package mathexpr

import (
	"fmt"
	"strings"
)

// NodeType identifies the kind of a node.
type NodeType string

// Node types. The string values are part of the wire format of block trees.
const (
	ConstantNodeType    NodeType = "ConstantNode"
	SymbolNodeType      NodeType = "SymbolNode"
	OperatorNodeType    NodeType = "OperatorNode"
	FunctionNodeType    NodeType = "FunctionNode"
	ParenthesisNodeType NodeType = "ParenthesisNode"
)

// TraverseFunc is called for every node visited by Traverse.
// path is empty and parent is nil for the node Traverse started from.
type TraverseFunc func(node Node, path string, parent Node)

// Node is an expression sub-tree.
type Node interface {
	// Type returns the node kind.
	Type() NodeType

	// String renders the sub-tree as expression text.
	String() string

	// ForEach calls fn for every direct child with its path.
	ForEach(fn func(child Node, path string))

	// Traverse walks the sub-tree in pre-order.
	Traverse(fn TraverseFunc)
}

// ConstantNode is a literal number, boolean or string.
type ConstantNode struct {
	Value any
}

// SymbolNode references a scope variable.
type SymbolNode struct {
	Name string
}

// OperatorNode applies a unary or binary operator.
// Op is the printed symbol ("+", "and"), Fn the operator identifier ("add").
type OperatorNode struct {
	Op   string
	Fn   string
	Args []Node
}

// FunctionNode calls a named function.
type FunctionNode struct {
	Name string
	Args []Node
}

// ParenthesisNode keeps explicit parentheses from the source text.
type ParenthesisNode struct {
	Content Node
}

// NewConstant creates a constant node. Integer values are stored as float64.
func NewConstant(value any) *ConstantNode {
	return &ConstantNode{Value: normalizeValue(value)}
}

// NewSymbol creates a symbol node.
func NewSymbol(name string) *SymbolNode {
	return &SymbolNode{Name: name}
}

// NewOperator creates an operator node.
func NewOperator(op, fn string, args []Node) *OperatorNode {
	return &OperatorNode{Op: op, Fn: fn, Args: args}
}

// NewFunction creates a function call node.
func NewFunction(name string, args []Node) *FunctionNode {
	return &FunctionNode{Name: name, Args: args}
}

// NewParenthesis wraps content in explicit parentheses.
func NewParenthesis(content Node) *ParenthesisNode {
	return &ParenthesisNode{Content: content}
}

func (n *ConstantNode) Type() NodeType    { return ConstantNodeType }
func (n *SymbolNode) Type() NodeType      { return SymbolNodeType }
func (n *OperatorNode) Type() NodeType    { return OperatorNodeType }
func (n *FunctionNode) Type() NodeType    { return FunctionNodeType }
func (n *ParenthesisNode) Type() NodeType { return ParenthesisNodeType }

func (n *ConstantNode) ForEach(fn func(Node, string)) {}
func (n *SymbolNode) ForEach(fn func(Node, string))   {}

func (n *OperatorNode) ForEach(fn func(Node, string)) {
	forEachArg(n.Args, fn)
}

func (n *FunctionNode) ForEach(fn func(Node, string)) {
	forEachArg(n.Args, fn)
}

func (n *ParenthesisNode) ForEach(fn func(Node, string)) {
	fn(n.Content, "content")
}

func (n *ConstantNode) Traverse(fn TraverseFunc)    { traverse(n, "", nil, fn) }
func (n *SymbolNode) Traverse(fn TraverseFunc)      { traverse(n, "", nil, fn) }
func (n *OperatorNode) Traverse(fn TraverseFunc)    { traverse(n, "", nil, fn) }
func (n *FunctionNode) Traverse(fn TraverseFunc)    { traverse(n, "", nil, fn) }
func (n *ParenthesisNode) Traverse(fn TraverseFunc) { traverse(n, "", nil, fn) }

// ArgPath returns the traversal path of the i-th argument.
func ArgPath(i int) string {
	return fmt.Sprintf("args[%d]", i)
}

// ParseArgPath extracts the index from an "args[<n>]" path.
func ParseArgPath(path string) (int, bool) {
	if !strings.HasPrefix(path, "args[") || !strings.HasSuffix(path, "]") {
		return 0, false
	}
	var idx int
	digits := path[len("args[") : len(path)-1]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
		idx = idx*10 + int(r-'0')
	}
	return idx, true
}

func forEachArg(args []Node, fn func(Node, string)) {
	for i, arg := range args {
		fn(arg, ArgPath(i))
	}
}

func traverse(node Node, path string, parent Node, fn TraverseFunc) {
	fn(node, path, parent)
	node.ForEach(func(child Node, childPath string) {
		traverse(child, childPath, node, fn)
	})
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}
