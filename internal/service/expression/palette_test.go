package expression

import (
	"testing"

	models "visualexpr/internal/domain/models/expression"
)

func TestLookupOperator(t *testing.T) {
	tests := []struct {
		op        string
		wantFn    string
		wantArity int
		wantOK    bool
	}{
		{op: "+", wantFn: "add", wantArity: 2, wantOK: true},
		{op: "-", wantFn: "subtract", wantArity: 2, wantOK: true},
		{op: ">=", wantFn: "largerEq", wantArity: 2, wantOK: true},
		{op: "!=", wantFn: "unequal", wantArity: 2, wantOK: true},
		{op: "xor", wantFn: "xor", wantArity: 2, wantOK: true},
		{op: "not", wantFn: "not", wantArity: 1, wantOK: true},
		{op: "%", wantOK: false},
		{op: "^", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			fn, arity, ok := LookupOperator(tt.op)
			if ok != tt.wantOK {
				t.Fatalf("LookupOperator(%q) ok = %v, want %v", tt.op, ok, tt.wantOK)
			}
			if ok && (fn != tt.wantFn || arity != tt.wantArity) {
				t.Errorf("LookupOperator(%q) = %s/%d, want %s/%d", tt.op, fn, arity, tt.wantFn, tt.wantArity)
			}
		})
	}
}

func TestFilterPalettes(t *testing.T) {
	ops := FilterOperators([]models.PaletteItem{{Name: "+"}, {Name: "^"}, {Name: "not"}, {Name: "%"}})
	if got := models.PaletteNames(ops); len(got) != 2 || got[0] != "+" || got[1] != "not" {
		t.Errorf("FilterOperators() = %v", got)
	}

	funcs := FilterFunctions([]models.PaletteItem{{Name: "sqrt"}, {Name: FuncBetween}})
	if got := models.PaletteNames(funcs); len(got) != 1 || got[0] != FuncBetween {
		t.Errorf("FilterFunctions() = %v", got)
	}
}

func TestVariableBlock(t *testing.T) {
	age := models.ComparisonVariable{Name: "age", Test: 30.0, Op: ">="}
	city := models.ComparisonVariable{Name: "city", Test: "Berlin", Op: "==", Fn: "equalText"}
	country := models.ComparisonVariable{Name: "country", Test: "DE,FR", Op: OpIn}
	score := models.ComparisonVariable{Name: "score", Test: "10,90", Op: OpBetween}
	limit := models.ReferenceVariable{Name: "limit", Test: 5.0, Op: ">", Other: "budget"}
	plain := models.PlainVariable{Name: "budget", Test: 10.0}

	tests := []struct {
		name string
		v    models.Variable
		mode models.OperatorMode
		want string
	}{
		{name: "default mode is a symbol", v: age, mode: models.OperatorModeDefault, want: "s(age)"},
		{name: "empty mode is a symbol", v: age, mode: "", want: "s(age)"},
		{name: "comparison", v: age, mode: models.OperatorModeVariable, want: "op(>=largerEq s(age) c(30))"},
		{name: "comparison via function", v: city, mode: models.OperatorModeVariable, want: "fu(equalText s(city) c(Berlin))"},
		{name: "in becomes isIn", v: country, mode: models.OperatorModeVariable, want: "fu(isIn s(country) c(DE,FR))"},
		{name: "between", v: score, mode: models.OperatorModeVariableExpression, want: "fu(between s(score) c(10,90))"},
		{name: "reference in variable mode", v: limit, mode: models.OperatorModeVariable, want: "op(>larger s(limit) c(5))"},
		{name: "reference in expression mode", v: limit, mode: models.OperatorModeVariableExpression, want: "op(>larger s(limit) s(budget))"},
		{name: "plain stays a symbol", v: plain, mode: models.OperatorModeVariable, want: "s(budget)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := variableBlock(tt.v, tt.mode)
			if err != nil {
				t.Fatalf("variableBlock() error = %v", err)
			}
			if got := shape(block); got != tt.want {
				t.Errorf("variableBlock() = %s, want %s", got, tt.want)
			}
			for i, arg := range block.Args {
				if arg.Path == "" || arg.Index != i {
					t.Errorf("operand %d has no address", i)
				}
			}
		})
	}
}

func TestVariableBlockRejectsNot(t *testing.T) {
	v := models.ComparisonVariable{Name: "x", Test: true, Op: "not"}
	if _, err := variableBlock(v, models.OperatorModeVariable); err == nil {
		t.Error("variableBlock() accepted not as a comparison")
	}
}

func TestEditorAddVariableByMode(t *testing.T) {
	settings := testSettings()
	settings.OperatorMode = models.OperatorModeVariable
	settings.Variables = models.Variables{
		models.ComparisonVariable{Name: "age", Test: 30.0, Op: ">="},
	}
	e, _ := newReadyEditor(t, settings)

	if err := e.AddVariable("age"); err != nil {
		t.Fatalf("AddVariable() error = %v", err)
	}
	ev := e.Evaluation()
	if ev.Expression != "age >= 30" || ev.Result != true {
		t.Errorf("evaluation = %+v, want age >= 30 = true", ev)
	}
}
