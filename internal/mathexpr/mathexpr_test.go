package mathexpr

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAndString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "keeps explicit parentheses", input: `(1)*(2+3)>0 and equalText(variable4, "abc")`, want: `(1) * (2 + 3) > 0 and equalText(variable4, "abc")`},
		{name: "precedence without parentheses", input: "1+2*3", want: "1 + 2 * 3"},
		{name: "left associative chain", input: "1-2-3", want: "1 - 2 - 3"},
		{name: "negative literal folded", input: "-3 + x", want: "-3 + x"},
		{name: "unary minus on symbol", input: "-x", want: "-x"},
		{name: "not keyword", input: "not a", want: "not a"},
		{name: "single quoted string", input: "equalText(a, 'x y')", want: `equalText(a, "x y")`},
		{name: "booleans", input: "true or false", want: "true or false"},
		{name: "decimal", input: "0.5 >= .25", want: "0.5 >= 0.25"},
		{name: "xor between and and or", input: "a or b xor c and d", want: "a or b xor c and d"},
		{name: "call without arguments", input: "now()", want: "now()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got := node.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStringMinimalParentheses(t *testing.T) {
	num := func(v float64) Node { return NewConstant(v) }
	sym := func(name string) Node { return NewSymbol(name) }
	op := func(o, fn string, args ...Node) Node { return NewOperator(o, fn, args) }

	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			name: "multiply binds tighter than add",
			node: op("*", "multiply", num(1), op("+", "add", num(2), num(3))),
			want: "1 * (2 + 3)",
		},
		{
			name: "right nested subtract",
			node: op("-", "subtract", num(1), op("-", "subtract", num(2), num(3))),
			want: "1 - (2 - 3)",
		},
		{
			name: "right nested add is associative",
			node: op("+", "add", num(1), op("+", "add", num(2), num(3))),
			want: "1 + 2 + 3",
		},
		{
			name: "right nested divide",
			node: op("/", "divide", sym("a"), op("*", "multiply", sym("b"), sym("c"))),
			want: "a / (b * c)",
		},
		{
			name: "not wraps conjunction",
			node: op("not", "not", op("and", "and", sym("a"), sym("b"))),
			want: "not (a and b)",
		},
		{
			name: "not over comparison",
			node: op("not", "not",
				op("and", "and",
					op(">", "larger", op("*", "multiply", num(1), op("+", "add", num(2), num(3))), num(0)),
					NewFunction("equalText", []Node{sym("variable4"), NewConstant("abc")}))),
			want: `not (1 * (2 + 3) > 0 and equalText(variable4, "abc"))`,
		},
		{
			name: "unary minus over sum",
			node: op("-", "unaryMinus", op("+", "add", sym("x"), num(1))),
			want: "-(x + 1)",
		},
		{
			name: "comparison of sums",
			node: op("==", "equal", op("+", "add", sym("a"), num(1)), op("-", "subtract", sym("b"), num(2))),
			want: "a + 1 == b - 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{3.0, "3"},
		{2.5, "2.5"},
		{-0.125, "-0.125"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{7, "7"},
		{true, "true"},
		{"abc", "abc"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  ErrorCode
	}{
		{name: "empty", input: "", code: ErrUnexpectedEnd},
		{name: "dangling operator", input: "1 +", code: ErrUnexpectedEnd},
		{name: "unclosed parenthesis", input: "(1", code: ErrUnexpectedEnd},
		{name: "unclosed string", input: `"abc`, code: ErrStringNotClosed},
		{name: "two operands", input: "1 2", code: ErrSyntaxError},
		{name: "single equals", input: "a = 1", code: ErrSyntaxError},
		{name: "operator keyword as operand", input: "and 1", code: ErrSyntaxError},
		{name: "missing comma", input: "f(1 2)", code: ErrExpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
			var exprErr *Error
			if !errors.As(err, &exprErr) {
				t.Fatalf("error %T is not *Error", err)
			}
			if exprErr.Code != tt.code {
				t.Errorf("code = %s, want %s (%v)", exprErr.Code, tt.code, err)
			}
		})
	}
}

func TestTraverse(t *testing.T) {
	node, err := Parse("(a + 1) * f(b, 2)")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	var visited []string
	node.Traverse(func(n Node, path string, parent Node) {
		if path == "" && parent != nil {
			t.Errorf("child %s has empty path", n.String())
		}
		visited = append(visited, string(n.Type())+"@"+path)
	})

	want := []string{
		"OperatorNode@",
		"ParenthesisNode@args[0]",
		"OperatorNode@content",
		"SymbolNode@args[0]",
		"ConstantNode@args[1]",
		"FunctionNode@args[1]",
		"SymbolNode@args[0]",
		"ConstantNode@args[1]",
	}
	if strings.Join(visited, ",") != strings.Join(want, ",") {
		t.Errorf("visited = %v, want %v", visited, want)
	}
}

func TestParseArgPath(t *testing.T) {
	tests := []struct {
		path   string
		want   int
		wantOK bool
	}{
		{"args[0]", 0, true},
		{"args[12]", 12, true},
		{"content", 0, false},
		{"args[]", 0, false},
		{"args[x]", 0, false},
		{"args[1", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseArgPath(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseArgPath(%q) = (%d, %v), want (%d, %v)", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestEvaluate(t *testing.T) {
	scope := Scope{
		"variable4": "abc",
		"x":         2.0,
		"flag":      true,
		"twice": Function(func(args ...any) (any, error) {
			n, err := ToNumber(args[0])
			if err != nil {
				return nil, err
			}
			return n * 2, nil
		}),
	}

	tests := []struct {
		input string
		want  any
	}{
		{"1 + 2 * 3", 7.0},
		{`(1)*(2+3)>0 and equalText(variable4, "abc")`, true},
		{`not (1 * (2 + 3) > 0 and equalText(variable4, "abc"))`, false},
		{"7 % 3", 1.0},
		{"-7 % 3", 2.0},
		{"0.1 + 0.2 == 0.3", true},
		{"true + 1", 2.0},
		{"x >= 2 and x <= 2", true},
		{"x > 2 or x < 2", false},
		{"flag xor true", false},
		{"twice(x) / 8", 0.5},
		{`"4" * x`, 8.0},
		{"-x + 1", -1.0},
		{`equalText(x, "2")`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Evaluate(tt.input, scope)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v (%T), want %v", tt.input, got, got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		input string
		code  ErrorCode
		msg   string
	}{
		{input: "y + 1", code: ErrUndefinedSymbol, msg: "Undefined symbol y"},
		{input: "foo(1)", code: ErrUndefinedFunc, msg: "Undefined function foo"},
		{input: `"abc" + 1`, code: ErrCannotConvert, msg: `Cannot convert "abc" to a number`},
		{input: "x(1)", code: ErrInvalidOperation, msg: "x is not a function"},
		{input: "equalText(1)", code: ErrArgumentCount},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Evaluate(tt.input, Scope{"x": 1.0})
			var exprErr *Error
			if !errors.As(err, &exprErr) {
				t.Fatalf("Evaluate(%q) error = %v, want *Error", tt.input, err)
			}
			if exprErr.Code != tt.code {
				t.Errorf("code = %s, want %s", exprErr.Code, tt.code)
			}
			if tt.msg != "" && err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestEngineCachesParses(t *testing.T) {
	engine := NewEngine(2)

	first, err := engine.Parse("a + 1")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	second, _ := engine.Parse("a + 1")
	if first != second {
		t.Error("expected cached tree to be reused")
	}

	if _, err := engine.Parse("a +"); err == nil {
		t.Error("expected parse error")
	}
	if engine.CacheLen() != 1 {
		t.Errorf("CacheLen = %d, want 1 (errors are not cached)", engine.CacheLen())
	}

	v, err := engine.Evaluate("a + 1", Scope{"a": 1.0})
	if err != nil || v != 2.0 {
		t.Errorf("Evaluate = %v, %v; want 2", v, err)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	c.Set("a", NewSymbol("a"))
	c.Set("b", NewSymbol("b"))

	// touch a so b becomes the eviction candidate
	c.Get("a")
	c.Set("c", NewSymbol("c"))

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to be kept")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}
