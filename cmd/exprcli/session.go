package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	serviceExpr "visualexpr/internal/service/expression"
)

// commands lists the REPL words offered by tab completion.
var commands = []string{
	"expr", "add", "del", "move", "canvas", "not",
	"show", "palette", "vars", "events", "help", "exit",
}

var addKinds = []string{"const", "op", "fn", "var"}

const helpText = `Commands:
  expr <text>              replace the expression
  add const <value>        add a constant block
  add op <operator>        add an operator block
  add fn <name>            add a function block
  add var <name>           add a variable block
  del <index>              delete root block <index>
  move <id> <target-id>    drop block <id> into the slot <target-id>
  canvas <id>              move block <id> onto the canvas
  not                      negate the single root
  show                     print the block tree
  palette                  list operators, functions and constants
  vars                     list variables
  events on|off            toggle event printing
  exit                     quit
Block ids may be shortened to any unique prefix.`

// session drives one Editor from text commands.
type session struct {
	editor     *serviceExpr.Editor
	out        io.Writer
	showEvents bool
}

func newSession(settings models.Settings, loader serviceExpr.LibraryLoader, out io.Writer) *session {
	s := &session{out: out}
	s.editor = serviceExpr.NewEditor(settings, loader, serviceExpr.NotifierFunc(s.printEvent), nil)
	return s
}

func (s *session) init(ctx context.Context) error {
	s.editor.Init(ctx)
	if !s.editor.Ready() {
		return domain.ErrNotReady
	}
	return nil
}

func (s *session) printEvent(event models.Event) {
	if !s.showEvents {
		return
	}
	msg, err := models.FormatSSE(event)
	if err != nil {
		fmt.Fprintf(s.out, "! %v\n", err)
		return
	}
	fmt.Fprint(s.out, msg)
}

// exec runs one command line. It returns true when the session should end.
func (s *session) exec(line string) bool {
	cmd, rest := splitWord(strings.TrimSpace(line))
	if cmd == "" {
		return false
	}

	var err error
	switch cmd {
	case "exit", "quit":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
		return false
	case "expr":
		err = s.editor.SetExpression(rest)
	case "add":
		err = s.add(rest)
	case "del":
		err = s.delete(rest)
	case "move":
		err = s.move(rest)
	case "canvas":
		err = s.canvas(rest)
	case "not":
		err = s.report(s.editor.WrapNot())
	case "show":
		s.fail(serviceExpr.RenderTree(s.out, s.editor.Forest()))
		return false
	case "palette":
		s.printPalette()
		return false
	case "vars":
		s.printVariables()
		return false
	case "events":
		s.showEvents = rest != "off"
		return false
	default:
		err = fmt.Errorf("unknown command %q (try help)", cmd)
	}

	if s.fail(err) {
		return false
	}
	s.printEvaluation()
	return false
}

// fail prints err if it is set and reports whether it was.
func (s *session) fail(err error) bool {
	if err == nil {
		return false
	}
	fmt.Fprintf(s.out, "error: %v\n", err)
	return true
}

func (s *session) add(args string) error {
	kind, arg := splitWord(args)
	if arg == "" {
		return errors.New("usage: add const|op|fn|var <value>")
	}
	switch kind {
	case "const":
		return s.editor.AddConstant(arg)
	case "op":
		return s.editor.AddOperator(arg)
	case "fn":
		return s.editor.AddFunction(arg)
	case "var":
		return s.editor.AddVariable(arg)
	}
	return fmt.Errorf("unknown block kind %q", kind)
}

func (s *session) delete(args string) error {
	index, err := strconv.Atoi(args)
	if err != nil {
		return errors.New("usage: del <index>")
	}
	return s.report(s.editor.Delete(index))
}

func (s *session) move(args string) error {
	src, target := splitWord(args)
	if src == "" || target == "" {
		return errors.New("usage: move <id> <target-id>")
	}
	srcID, err := s.resolve(src)
	if err != nil {
		return err
	}
	targetID, err := s.resolve(target)
	if err != nil {
		return err
	}
	return s.report(s.editor.Move(srcID, targetID))
}

func (s *session) canvas(args string) error {
	if args == "" {
		return errors.New("usage: canvas <id>")
	}
	id, err := s.resolve(args)
	if err != nil {
		return err
	}
	return s.report(s.editor.MoveToCanvas(id))
}

// report turns an action that changed nothing into an error message.
func (s *session) report(changed bool, err error) error {
	if err != nil {
		return err
	}
	if !changed {
		return errors.New("nothing changed")
	}
	return nil
}

// resolve expands a block id prefix to the one id it matches.
func (s *session) resolve(prefix string) (string, error) {
	prefix = strings.TrimPrefix(prefix, "#")
	var matches []string
	for _, root := range s.editor.Forest().Roots {
		root.Walk(func(b *models.Block) {
			if strings.HasPrefix(b.ID, prefix) {
				matches = append(matches, b.ID)
			}
		})
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no block %q", prefix)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("block id %q is ambiguous (%d matches)", prefix, len(matches))
}

func (s *session) printEvaluation() {
	ev := s.editor.Evaluation()
	if ev.Error != "" {
		fmt.Fprintf(s.out, "%s\n  ! %s\n", ev.Expression, ev.Error)
		return
	}
	if ev.Result == nil {
		fmt.Fprintln(s.out, ev.Expression)
		return
	}
	fmt.Fprintf(s.out, "%s\n  = %v\n", ev.Expression, ev.Result)
}

func (s *session) printPalette() {
	settings := s.editor.Settings()
	fmt.Fprintf(s.out, "operators: %s\n", strings.Join(models.PaletteNames(settings.Operators), " "))
	fmt.Fprintf(s.out, "functions: %s\n", strings.Join(models.PaletteNames(settings.Funcs), " "))
	fmt.Fprintf(s.out, "constants: %s\n", strings.Join(settings.Constants, " "))
	fmt.Fprintf(s.out, "mode:      %s\n", settings.OperatorMode)
}

func (s *session) printVariables() {
	for _, v := range s.editor.Settings().Variables {
		if v.Hidden() {
			continue
		}
		fmt.Fprintf(s.out, "%-12s %v\n", v.VariableName(), v.TestValue())
	}
}

// complete offers command words, block kinds and palette names for line.
func (s *session) complete(line string) []string {
	fields := strings.Fields(line)
	trailing := strings.HasSuffix(line, " ")

	var candidates []string
	switch {
	case len(fields) == 0 || (len(fields) == 1 && !trailing):
		candidates = commands
	case fields[0] == "add" && (len(fields) == 1 || (len(fields) == 2 && !trailing)):
		candidates = prefixWith("add ", addKinds)
	case fields[0] == "add" && (len(fields) == 2 || (len(fields) == 3 && !trailing)):
		candidates = prefixWith("add "+fields[1]+" ", s.paletteNames(fields[1]))
	default:
		return nil
	}

	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, strings.TrimLeft(line, " ")) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func (s *session) paletteNames(kind string) []string {
	settings := s.editor.Settings()
	switch kind {
	case "op":
		return models.PaletteNames(settings.Operators)
	case "fn":
		return models.PaletteNames(settings.Funcs)
	case "const":
		return settings.Constants
	case "var":
		var names []string
		for _, v := range settings.Variables {
			if !v.Hidden() {
				names = append(names, v.VariableName())
			}
		}
		return names
	}
	return nil
}

func prefixWith(prefix string, words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = prefix + w
	}
	return out
}

// splitWord returns the first word of s and the trimmed remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}
