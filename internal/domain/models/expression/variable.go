package expression

import (
	"encoding/json"
	"fmt"
)

// Variable is a named test value offered in the variable palette.
// It is one of PlainVariable, ComparisonVariable or ReferenceVariable.
type Variable interface {
	VariableName() string
	TestValue() any
	Hidden() bool
	isVariable()
}

// PlainVariable contributes its test value to the scope and is added to the
// canvas as a bare symbol.
type PlainVariable struct {
	Name     string
	Test     any
	IsHidden bool
}

// ComparisonVariable is added as "name <op> test", or as "fn(name, test)"
// when Fn is set. The ops "in" and "between" derive the scope value from the
// comma separated test string.
type ComparisonVariable struct {
	Name     string
	Test     any
	Op       string
	Fn       string
	IsHidden bool
}

// ReferenceVariable compares the variable against another variable: "name <op> other".
type ReferenceVariable struct {
	Name     string
	Test     any
	Op       string
	Other    string
	IsHidden bool
}

func (v PlainVariable) VariableName() string      { return v.Name }
func (v ComparisonVariable) VariableName() string { return v.Name }
func (v ReferenceVariable) VariableName() string  { return v.Name }

func (v PlainVariable) TestValue() any      { return v.Test }
func (v ComparisonVariable) TestValue() any { return v.Test }
func (v ReferenceVariable) TestValue() any  { return v.Test }

func (v PlainVariable) Hidden() bool      { return v.IsHidden }
func (v ComparisonVariable) Hidden() bool { return v.IsHidden }
func (v ReferenceVariable) Hidden() bool  { return v.IsHidden }

func (PlainVariable) isVariable()      {}
func (ComparisonVariable) isVariable() {}
func (ReferenceVariable) isVariable()  {}

// variableJSON is the descriptor shape hosts send.
type variableJSON struct {
	Name         string          `json:"name"`
	Test         any             `json:"test"`
	Op           string          `json:"op,omitempty"`
	IsFn         json.RawMessage `json:"isFn,omitempty"`
	IsExpression bool            `json:"isExpression,omitempty"`
	Varib        any             `json:"varib,omitempty"`
	IsHidden     bool            `json:"isHidden,omitempty"`
}

// DecodeVariable turns a host descriptor into its variant.
// isExpression selects a reference variable, a non-empty op a comparison
// variable, anything else a plain one.
func DecodeVariable(data []byte) (Variable, error) {
	var w variableJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if w.Name == "" {
		return nil, fmt.Errorf("variable name is required")
	}

	if w.IsExpression {
		other, ok := w.Varib.(string)
		if !ok || other == "" {
			return nil, fmt.Errorf("variable %q: varib must name another variable", w.Name)
		}
		op := w.Op
		if op == "" {
			op = "=="
		}
		return ReferenceVariable{Name: w.Name, Test: w.Test, Op: op, Other: other, IsHidden: w.IsHidden}, nil
	}

	if w.Op != "" {
		fn, err := decodeIsFn(w.IsFn, w.Op)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", w.Name, err)
		}
		return ComparisonVariable{Name: w.Name, Test: w.Test, Op: w.Op, Fn: fn, IsHidden: w.IsHidden}, nil
	}

	return PlainVariable{Name: w.Name, Test: w.Test, IsHidden: w.IsHidden}, nil
}

// decodeIsFn accepts a function name, or true meaning the op itself names a function.
func decodeIsFn(raw json.RawMessage, op string) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name, nil
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err != nil {
		return "", fmt.Errorf("isFn must be a string or boolean")
	}
	if flag {
		return op, nil
	}
	return "", nil
}

// MarshalJSON implements json.Marshaler.
func (v PlainVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(variableJSON{Name: v.Name, Test: v.Test, IsHidden: v.IsHidden})
}

// MarshalJSON implements json.Marshaler.
func (v ComparisonVariable) MarshalJSON() ([]byte, error) {
	w := variableJSON{Name: v.Name, Test: v.Test, Op: v.Op, IsHidden: v.IsHidden}
	if v.Fn != "" {
		raw, err := json.Marshal(v.Fn)
		if err != nil {
			return nil, err
		}
		w.IsFn = raw
	}
	return json.Marshal(w)
}

// MarshalJSON implements json.Marshaler.
func (v ReferenceVariable) MarshalJSON() ([]byte, error) {
	return json.Marshal(variableJSON{
		Name:         v.Name,
		Test:         v.Test,
		Op:           v.Op,
		IsExpression: true,
		Varib:        v.Other,
		IsHidden:     v.IsHidden,
	})
}

// Variables is a variable palette that decodes host descriptors into variants.
type Variables []Variable

// UnmarshalJSON implements json.Unmarshaler.
func (vs *Variables) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Variables, 0, len(raws))
	for _, raw := range raws {
		v, err := DecodeVariable(raw)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	*vs = out
	return nil
}

// Find returns the variable with the given name.
func (vs Variables) Find(name string) (Variable, bool) {
	for _, v := range vs {
		if v.VariableName() == name {
			return v, true
		}
	}
	return nil, false
}
