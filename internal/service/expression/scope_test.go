package expression

import (
	"testing"

	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

func TestParseConstant(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{raw: "true", want: true},
		{raw: "false", want: false},
		{raw: "True", want: "True"},
		{raw: "3", want: 3.0},
		{raw: " 2.5 ", want: 2.5},
		{raw: "1e3", want: 1000.0},
		{raw: "NaN", want: "NaN"},
		{raw: "Inf", want: "Inf"},
		{raw: "abc", want: "abc"},
		{raw: "12abc", want: "12abc"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseConstant(tt.raw); got != tt.want {
				t.Errorf("ParseConstant(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBuildScope(t *testing.T) {
	scope := BuildScope(models.Variables{
		models.PlainVariable{Name: "age", Test: 30.0},
		models.ComparisonVariable{Name: "country", Test: "DE, FR", Op: OpIn},
		models.ComparisonVariable{Name: "level", Test: "5,1", Op: OpBetween},
		models.ComparisonVariable{Name: "broken", Test: "x,y", Op: OpBetween},
		models.ComparisonVariable{Name: "flag", Test: true, Op: "=="},
		models.PlainVariable{Name: FuncIsIn, Test: "shadow"},
	})

	tests := []struct {
		name string
		want any
	}{
		{name: "age", want: 30.0},
		{name: "country", want: "DE"},
		{name: "level", want: 1.0},
		{name: "broken", want: malformedRange},
		{name: "flag", want: true},
	}
	for _, tt := range tests {
		if got := scope[tt.name]; got != tt.want {
			t.Errorf("scope[%q] = %#v, want %#v", tt.name, got, tt.want)
		}
	}

	if _, ok := scope[FuncIsIn].(mathexpr.Function); !ok {
		t.Errorf("isIn was shadowed by a variable")
	}
	if _, ok := scope[FuncBetween].(mathexpr.Function); !ok {
		t.Errorf("between is not bound")
	}
}

func TestScopePredicates(t *testing.T) {
	scope := BuildScope(models.Variables{
		models.ComparisonVariable{Name: "country", Test: "DE,FR", Op: OpIn},
		models.ComparisonVariable{Name: "score", Test: "10,90", Op: OpBetween},
	})

	tests := []struct {
		expr    string
		want    any
		wantErr bool
	}{
		{expr: `isIn(country, "DE,FR")`, want: true},
		{expr: `isIn("IT", "DE,FR")`, want: false},
		{expr: `isIn(2, "1, 2, 3")`, want: true},
		{expr: `between(score, "10,90")`, want: true},
		{expr: `between(50, "90,10")`, want: true},
		{expr: `between(91, "10,90")`, want: false},
		{expr: `between(10, "10,90")`, want: true},
		{expr: `between(5, "a,b")`, want: false},
		{expr: `between(5, "1")`, want: false},
		{expr: `between("abc", "1,2")`, wantErr: true},
		{expr: `isIn(1)`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := mathexpr.Evaluate(tt.expr, scope)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Evaluate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
