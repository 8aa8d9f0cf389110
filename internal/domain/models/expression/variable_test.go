package expression

import (
	"encoding/json"
	"testing"
)

func TestDecodeVariable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Variable
		wantErr bool
	}{
		{
			name:  "plain",
			input: `{"name":"age","test":30}`,
			want:  PlainVariable{Name: "age", Test: 30.0},
		},
		{
			name:  "comparison",
			input: `{"name":"age","test":30,"op":">="}`,
			want:  ComparisonVariable{Name: "age", Test: 30.0, Op: ">="},
		},
		{
			name:  "comparison with function name",
			input: `{"name":"city","test":"Berlin","op":"==","isFn":"equalText"}`,
			want:  ComparisonVariable{Name: "city", Test: "Berlin", Op: "==", Fn: "equalText"},
		},
		{
			name:  "isFn true uses the op",
			input: `{"name":"c","test":"a,b","op":"between","isFn":true}`,
			want:  ComparisonVariable{Name: "c", Test: "a,b", Op: "between", Fn: "between"},
		},
		{
			name:  "isFn false",
			input: `{"name":"c","test":1,"op":"<","isFn":false}`,
			want:  ComparisonVariable{Name: "c", Test: 1.0, Op: "<"},
		},
		{
			name:  "reference",
			input: `{"name":"limit","test":1,"op":">","isExpression":true,"varib":"budget","isHidden":true}`,
			want:  ReferenceVariable{Name: "limit", Test: 1.0, Op: ">", Other: "budget", IsHidden: true},
		},
		{
			name:  "reference defaults to equality",
			input: `{"name":"a","isExpression":true,"varib":"b"}`,
			want:  ReferenceVariable{Name: "a", Op: "==", Other: "b"},
		},
		{
			name:    "reference without other variable",
			input:   `{"name":"a","isExpression":true}`,
			wantErr: true,
		},
		{
			name:    "missing name",
			input:   `{"test":1}`,
			wantErr: true,
		},
		{
			name:    "isFn of the wrong type",
			input:   `{"name":"a","op":"<","isFn":3}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeVariable([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeVariable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("DecodeVariable() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestVariablesJSONRoundTrip(t *testing.T) {
	in := Variables{
		PlainVariable{Name: "a", Test: 1.0},
		ComparisonVariable{Name: "b", Test: "x,y", Op: "in", Fn: "isIn"},
		ReferenceVariable{Name: "c", Test: 2.0, Op: "<", Other: "a"},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out Variables
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(out) != len(in) {
		t.Fatalf("got %d variables, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("variable %d = %#v, want %#v", i, out[i], in[i])
		}
	}

	if v, ok := out.Find("c"); !ok || v.VariableName() != "c" {
		t.Errorf("Find(c) = %v, %v", v, ok)
	}
	if _, ok := out.Find("zzz"); ok {
		t.Errorf("Find(zzz) found a variable")
	}
}

func TestSettingsWithDefaults(t *testing.T) {
	defaults := Settings{
		Operators:    []PaletteItem{{Name: "+"}},
		Constants:    []string{"1"},
		OperatorMode: OperatorModeVariable,
		Locale:       "en-US",
	}

	got := Settings{Constants: []string{}}.WithDefaults(defaults)

	if len(got.Operators) != 1 || got.Operators[0].Name != "+" {
		t.Errorf("Operators = %v", got.Operators)
	}
	if len(got.Constants) != 0 {
		t.Errorf("explicit empty constants replaced: %v", got.Constants)
	}
	if got.OperatorMode != OperatorModeVariable || got.Locale != "en-US" {
		t.Errorf("mode/locale = %q/%q", got.OperatorMode, got.Locale)
	}
	if got.Theme != ThemeLight {
		t.Errorf("Theme = %q, want %q", got.Theme, ThemeLight)
	}
}

func TestSettingsMerge(t *testing.T) {
	current := Settings{
		Expression:   "x > 1",
		Operators:    []PaletteItem{{Name: "+"}, {Name: ">"}},
		Variables:    Variables{PlainVariable{Name: "x", Test: 5.0}},
		OperatorMode: OperatorModeVariable,
		Locale:       "en-US",
		Theme:        ThemeLight,
		Constants:    []string{"1"},
	}

	var patch SettingsPatch
	if err := json.Unmarshal([]byte(`{"theme":"dark","constants":[]}`), &patch); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	got := current.Merge(patch)

	if got.Theme != ThemeDark {
		t.Errorf("Theme = %q, want %q", got.Theme, ThemeDark)
	}
	if got.Constants == nil || len(got.Constants) != 0 {
		t.Errorf("Constants = %#v, want an explicit empty list", got.Constants)
	}
	if got.Expression != "x > 1" || got.OperatorMode != OperatorModeVariable || got.Locale != "en-US" {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if len(got.Operators) != 2 || len(got.Variables) != 1 || got.Variables[0] != current.Variables[0] {
		t.Errorf("untouched lists changed: %+v", got)
	}

	got.Operators[0].Name = "-"
	if current.Operators[0].Name != "+" {
		t.Error("Merge() shares slices with the receiver")
	}

	if err := json.Unmarshal([]byte(`{"variables":[{"name":"y","test":2}]}`), &patch); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got := current.Merge(patch); len(got.Variables) != 1 || got.Variables[0].VariableName() != "y" {
		t.Errorf("Variables = %v", got.Variables)
	}
}
