package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	models "visualexpr/internal/domain/models/expression"
	serviceExpr "visualexpr/internal/service/expression"
)

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	catalog, err := serviceExpr.NewCatalog("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	var out bytes.Buffer
	s := newSession(catalog.Defaults(), serviceExpr.NewEngineLoader(8), &out)
	if err := s.init(context.Background()); err != nil {
		t.Fatalf("init() error = %v", err)
	}
	out.Reset()
	return s, &out
}

func TestSessionExpression(t *testing.T) {
	s, out := newTestSession(t)

	if s.exec("expr 1 + 2") {
		t.Fatal("exec() ended the session")
	}
	if got := out.String(); got != "1 + 2\n  = 3\n" {
		t.Errorf("output = %q", got)
	}

	out.Reset()
	s.exec("show")
	if !strings.HasPrefix(out.String(), "[0] +  #") {
		t.Errorf("show output = %q", out.String())
	}

	out.Reset()
	s.exec("expr 1 +")
	if !strings.Contains(out.String(), "error:") {
		t.Errorf("parse failure output = %q", out.String())
	}
	if s.editor.Forest().Len() != 1 {
		t.Errorf("forest changed after a parse failure")
	}
}

func TestSessionBuildsTree(t *testing.T) {
	s, _ := newTestSession(t)

	s.exec("expr")
	s.exec("add op +")
	s.exec("add const 4")

	forest := s.editor.Forest()
	if forest.Len() != 2 {
		t.Fatalf("roots = %d, want 2", forest.Len())
	}
	constant, plus := forest.Roots[0], forest.Roots[1]

	s.exec("move " + constant.ID + " " + plus.Args[0].ID)

	forest = s.editor.Forest()
	if forest.Len() != 1 {
		t.Fatalf("roots after move = %d, want 1", forest.Len())
	}
	if got := forest.Roots[0].Args[0]; got.Kind != models.KindConstant || got.Placeholder {
		t.Errorf("args[0] = %+v, want the constant", got)
	}

	s.exec("canvas " + constant.ID[:8])
	if n := s.editor.Forest().Len(); n != 2 {
		t.Errorf("roots after canvas = %d, want 2", n)
	}

	s.exec("del 0")
	if n := s.editor.Forest().Len(); n != 1 {
		t.Errorf("roots after del = %d, want 1", n)
	}
}

func TestSessionErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: "bogus", want: `unknown command "bogus"`},
		{line: "del 5", want: "nothing changed"},
		{line: "del x", want: "usage: del"},
		{line: "add op ^", want: "error:"},
		{line: "add thing x", want: `unknown block kind "thing"`},
		{line: "add var nobody", want: "error:"},
		{line: "move abc", want: "usage: move"},
		{line: "canvas zzz", want: `no block "zzz"`},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			s, out := newTestSession(t)
			if s.exec(tt.line) {
				t.Fatal("exec() ended the session")
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestSessionAmbiguousID(t *testing.T) {
	s, _ := newTestSession(t)
	s.exec("expr 1 + 2")

	if _, err := s.resolve(""); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("resolve(\"\") error = %v, want ambiguous", err)
	}
	root := s.editor.Forest().Roots[0]
	if id, err := s.resolve("#" + root.ID); err != nil || id != root.ID {
		t.Errorf("resolve(#id) = %q, %v", id, err)
	}
}

func TestSessionEvents(t *testing.T) {
	s, out := newTestSession(t)

	s.exec("events on")
	s.exec("expr 2")
	if !strings.Contains(out.String(), "event: expression-changed\ndata: {\"expression\":\"2\"") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	s.exec("events off")
	s.exec("expr 3")
	if strings.Contains(out.String(), "event:") {
		t.Errorf("events printed after events off: %q", out.String())
	}
}

func TestSessionExit(t *testing.T) {
	s, _ := newTestSession(t)
	for _, line := range []string{"exit", "quit"} {
		if !s.exec(line) {
			t.Errorf("exec(%q) did not end the session", line)
		}
	}
}

func TestSessionComplete(t *testing.T) {
	s, _ := newTestSession(t)

	tests := []struct {
		line string
		want []string
	}{
		{line: "ad", want: []string{"add"}},
		{line: "add ", want: []string{"add const", "add fn", "add op", "add var"}},
		{line: "add fn be", want: []string{"add fn between"}},
		{line: "add var ci", want: []string{"add var city"}},
		{line: "show x", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := s.complete(tt.line); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("complete(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}
