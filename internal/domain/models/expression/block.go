package expression

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"visualexpr/internal/mathexpr"
)

// Kind identifies the variant of a block.
type Kind string

// Block kinds
const (
	KindConstant    Kind = "constant"
	KindSymbol      Kind = "symbol"
	KindOperator    Kind = "operator"
	KindFunction    Kind = "function"
	KindParenthesis Kind = "parenthesis"
)

// PlaceholderValue is the value carried by an unfilled operand slot.
const PlaceholderValue = "U"

// Block is one node of the editable forest.
//
// Which fields are meaningful depends on Kind:
//   - constant: Value (bool, float64 or string), Placeholder
//   - symbol: Name
//   - operator: Op (printed symbol), Fn (library identifier), Args
//   - function: Fn (function name), Args
//   - parenthesis: Content (only while decomposing, never stored in a forest)
//
// Path and Index address a non-root block inside its parent ("args[1]", 1).
type Block struct {
	ID          string
	Kind        Kind
	Value       any
	Placeholder bool
	Name        string
	Op          string
	Fn          string
	Args        []*Block
	Content     *Block
	Path        string
	Index       int
}

// NewConstantBlock creates a root constant block.
func NewConstantBlock(value any) *Block {
	return &Block{ID: uuid.NewString(), Kind: KindConstant, Value: value}
}

// NewSymbolBlock creates a root symbol block.
func NewSymbolBlock(name string) *Block {
	return &Block{ID: uuid.NewString(), Kind: KindSymbol, Name: name}
}

// NewOperatorBlock creates an operator block whose arity slots hold placeholders.
func NewOperatorBlock(op, fn string, arity int) *Block {
	return &Block{ID: uuid.NewString(), Kind: KindOperator, Op: op, Fn: fn, Args: placeholders(arity)}
}

// NewFunctionBlock creates a function block whose arity slots hold placeholders.
func NewFunctionBlock(name string, arity int) *Block {
	return &Block{ID: uuid.NewString(), Kind: KindFunction, Fn: name, Args: placeholders(arity)}
}

// NewPlaceholder creates an unfilled operand.
func NewPlaceholder() *Block {
	return &Block{ID: uuid.NewString(), Kind: KindConstant, Value: PlaceholderValue, Placeholder: true}
}

func placeholders(n int) []*Block {
	args := make([]*Block, n)
	for i := range args {
		p := NewPlaceholder()
		p.SetAddress(i)
		args[i] = p
	}
	return args
}

// SetAddress records the block's slot inside its parent.
func (b *Block) SetAddress(index int) {
	b.Index = index
	b.Path = mathexpr.ArgPath(index)
}

// ClearAddress turns the block back into a root.
func (b *Block) ClearAddress() {
	b.Index = 0
	b.Path = ""
}

// HasChildren reports whether the block kind owns operand slots.
func (b *Block) HasChildren() bool {
	return b.Kind == KindOperator || b.Kind == KindFunction
}

// Contains reports whether id names this block or one of its descendants.
func (b *Block) Contains(id string) bool {
	if b == nil {
		return false
	}
	if b.ID == id {
		return true
	}
	for _, arg := range b.Args {
		if arg.Contains(id) {
			return true
		}
	}
	return b.Content.Contains(id)
}

// Clone deep-copies the block and its subtree. Identities are preserved.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := *b
	if b.Args != nil {
		c.Args = make([]*Block, len(b.Args))
		for i, arg := range b.Args {
			c.Args[i] = arg.Clone()
		}
	}
	c.Content = b.Content.Clone()
	return &c
}

// Walk calls fn for the block and every descendant in pre-order.
func (b *Block) Walk(fn func(*Block)) {
	if b == nil {
		return
	}
	fn(b)
	for _, arg := range b.Args {
		arg.Walk(fn)
	}
	b.Content.Walk(fn)
}

var kindToType = map[Kind]mathexpr.NodeType{
	KindConstant:    mathexpr.ConstantNodeType,
	KindSymbol:      mathexpr.SymbolNodeType,
	KindOperator:    mathexpr.OperatorNodeType,
	KindFunction:    mathexpr.FunctionNodeType,
	KindParenthesis: mathexpr.ParenthesisNodeType,
}

var typeToKind = map[mathexpr.NodeType]Kind{
	mathexpr.ConstantNodeType:    KindConstant,
	mathexpr.SymbolNodeType:      KindSymbol,
	mathexpr.OperatorNodeType:    KindOperator,
	mathexpr.FunctionNodeType:    KindFunction,
	mathexpr.ParenthesisNodeType: KindParenthesis,
}

// KindOf maps a library node type to the block kind.
func KindOf(t mathexpr.NodeType) (Kind, bool) {
	k, ok := typeToKind[t]
	return k, ok
}

// blockJSON is the wire form shared by the API, the event stream and storage.
type blockJSON struct {
	ID        string            `json:"id"`
	Type      mathexpr.NodeType `json:"type"`
	Value     any               `json:"value,omitempty"`
	IsUnknown bool              `json:"isUnknown,omitempty"`
	Name      string            `json:"name,omitempty"`
	Op        string            `json:"op,omitempty"`
	Fn        string            `json:"fn,omitempty"`
	Args      []*Block          `json:"args,omitempty"`
	Content   *Block            `json:"content,omitempty"`
	Path      string            `json:"path,omitempty"`
	Index     *int              `json:"index,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (b *Block) MarshalJSON() ([]byte, error) {
	t, ok := kindToType[b.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown block kind %q", b.Kind)
	}
	w := blockJSON{
		ID:        b.ID,
		Type:      t,
		IsUnknown: b.Placeholder,
		Name:      b.Name,
		Op:        b.Op,
		Fn:        b.Fn,
		Args:      b.Args,
		Content:   b.Content,
		Path:      b.Path,
	}
	if b.Kind == KindConstant {
		w.Value = b.Value
	}
	if b.Path != "" {
		idx := b.Index
		w.Index = &idx
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, ok := typeToKind[w.Type]
	if !ok {
		return fmt.Errorf("unknown block type %q", w.Type)
	}
	*b = Block{
		ID:          w.ID,
		Kind:        kind,
		Value:       w.Value,
		Placeholder: w.IsUnknown,
		Name:        w.Name,
		Op:          w.Op,
		Fn:          w.Fn,
		Args:        w.Args,
		Content:     w.Content,
		Path:        w.Path,
	}
	if w.Index != nil {
		b.Index = *w.Index
	}
	return nil
}
