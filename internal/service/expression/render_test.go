package expression

import (
	"bytes"
	"strings"
	"testing"

	models "visualexpr/internal/domain/models/expression"
)

func TestRenderTree(t *testing.T) {
	forest, err := Decompose(mustParse(t, `x > 1 and equalText(name, "a")`))
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	var buf bytes.Buffer
	if err := RenderTree(&buf, forest); err != nil {
		t.Fatalf("RenderTree() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"[0] and",
		"    ├─ > (args[0])",
		"    │  ├─ x (args[0])",
		"    │  └─ 1 (args[1])",
		"    └─ equalText(,) (args[1])",
		"       ├─ name (args[0])",
		`       └─ "a" (args[1])`,
	}
	if len(lines) != len(want) {
		t.Fatalf("RenderTree() wrote %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, want[i]+"  #") {
			t.Errorf("line %d = %q, want prefix %q", i, line, want[i])
		}
	}
}

func TestBlockLabel(t *testing.T) {
	tests := []struct {
		block *models.Block
		want  string
	}{
		{block: models.NewPlaceholder(), want: "_"},
		{block: models.NewConstantBlock(2.5), want: "2.5"},
		{block: models.NewConstantBlock(true), want: "true"},
		{block: models.NewConstantBlock("DE"), want: `"DE"`},
		{block: models.NewSymbolBlock("age"), want: "age"},
		{block: models.NewOperatorBlock("+", "add", 2), want: "+"},
		{block: models.NewFunctionBlock(FuncBetween, 2), want: "between(,)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := BlockLabel(tt.block); got != tt.want {
				t.Errorf("BlockLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
