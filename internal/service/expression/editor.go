package expression

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

// Notifier receives the events an editor emits.
type Notifier interface {
	Notify(event models.Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(event models.Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(event models.Event) {
	f(event)
}

// Editor is one expression workspace: a block forest, its palettes and the
// expression derived from it.
//
// Every committed change replaces the forest with a new value and then runs
// Generate, which emits exactly one expression-changed event. Changes that
// find nothing to act on (unknown ids, out of range indexes) are reported
// as changed=false and emit nothing.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	settings models.Settings
	loader   LibraryLoader
	notifier Notifier
	logger   *slog.Logger

	lib   Library
	ready bool
	scope mathexpr.Scope

	forest     models.Forest
	evaluation models.Evaluation
}

// NewEditor creates an editor. Nothing is parsed or evaluated until Init
// has loaded the math library.
func NewEditor(settings models.Settings, loader LibraryLoader, notifier Notifier, logger *slog.Logger) *Editor {
	if notifier == nil {
		notifier = NotifierFunc(func(models.Event) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	settings = settings.Clone()
	return &Editor{
		settings: settings,
		loader:   loader,
		notifier: notifier,
		logger:   logger,
		scope:    BuildScope(settings.Variables),
	}
}

// Restore installs a previously saved forest. Init then derives the
// expression from it instead of parsing the settings expression.
func (e *Editor) Restore(forest models.Forest) {
	e.forest = forest
}

// Init loads the math library and emits expression-inited. A load failure
// leaves the editor unready and is reported only through the event. Calling
// Init again after a failure retries the load.
func (e *Editor) Init(ctx context.Context) {
	if e.ready {
		return
	}

	lib, err := e.loader.Load(ctx)
	if err != nil {
		e.logger.Warn("math library failed to load", "error", err)
		e.notify(models.Event{Name: models.EventInited, Data: models.InitedPayload{MathLoaded: false}})
		return
	}

	e.lib = lib
	e.ready = true
	e.notify(models.Event{Name: models.EventInited, Data: models.InitedPayload{MathLoaded: true}})

	if e.forest.Len() == 0 && strings.TrimSpace(e.settings.Expression) != "" {
		if err := e.applyExpression(e.settings.Expression); err != nil {
			e.logger.Debug("initial expression rejected", "expression", e.settings.Expression, "error", err)
		}
		return
	}
	e.Generate()
}

// Ready reports whether the math library is loaded.
func (e *Editor) Ready() bool {
	return e.ready
}

// SetExpression replaces the forest with the decomposition of text.
// Before Init succeeds the text is only recorded. A text that does not parse
// leaves the forest untouched, emits expression-changed with the error and
// returns a validation error.
func (e *Editor) SetExpression(text string) error {
	e.settings.Expression = text
	if !e.ready {
		return nil
	}
	return e.applyExpression(text)
}

// ReplaceExpression is SetExpression for host updates that may resend the
// current expression. Text that prints the same as the expression the forest
// already derives keeps the forest and its block ids.
func (e *Editor) ReplaceExpression(text string) error {
	if e.ready && e.derives(text) {
		e.settings.Expression = e.evaluation.Expression
		return nil
	}
	return e.SetExpression(text)
}

// derives reports whether text normalizes to the current non-empty expression.
func (e *Editor) derives(text string) bool {
	if e.evaluation.Expression == "" || strings.TrimSpace(text) == "" {
		return false
	}
	if text == e.evaluation.Expression {
		return true
	}
	node, err := e.lib.Parse(text)
	if err != nil {
		return false
	}
	forest, err := Decompose(node)
	if err != nil || forest.Len() != 1 {
		return false
	}
	normalized := Recompose(forest.Roots[0])
	return normalized != nil && normalized.String() == e.evaluation.Expression
}

func (e *Editor) applyExpression(text string) error {
	if strings.TrimSpace(text) == "" {
		e.commit(models.Forest{})
		return nil
	}

	node, err := e.lib.Parse(text)
	if err != nil {
		e.reject(text, err)
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	forest, err := Decompose(node)
	if err != nil {
		e.reject(text, err)
		return err
	}

	e.commit(forest)
	return nil
}

func (e *Editor) reject(text string, err error) {
	e.evaluation = models.Evaluation{Expression: text, Error: err.Error()}
	e.notify(models.NewChangedEvent(e.evaluation))
}

// Generate re-derives the expression and result from the forest and emits
// expression-changed, also when the result is empty.
func (e *Editor) Generate() models.Evaluation {
	if !e.ready {
		return e.evaluation
	}
	e.evaluation = Synthesize(e.forest, e.lib, e.scope)
	e.settings.Expression = e.evaluation.Expression
	e.notify(models.NewChangedEvent(e.evaluation))
	return e.evaluation
}

func (e *Editor) commit(forest models.Forest) {
	e.forest = forest
	e.Generate()
}

func (e *Editor) requireReady() error {
	if !e.ready {
		return domain.ErrNotReady
	}
	return nil
}

// AddConstant prepends a constant parsed from raw text and records the text
// in the constant palette. Empty text is ignored.
func (e *Editor) AddConstant(raw string) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}

	block := models.NewConstantBlock(ParseConstant(raw))
	e.rememberConstant(raw)
	e.commit(e.forest.InsertRoot(block))
	return nil
}

func (e *Editor) rememberConstant(raw string) {
	for _, c := range e.settings.Constants {
		if c == raw {
			return
		}
	}
	e.settings.Constants = append(e.settings.Constants, raw)
	e.notifyConstants()
}

// AddOperator prepends an operator with placeholder operands.
func (e *Editor) AddOperator(op string) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if !models.HasItem(e.settings.Operators, op) {
		return fmt.Errorf("%w: %q is not in the operator palette", domain.ErrUnknownOperator, op)
	}
	block, err := operatorBlock(op)
	if err != nil {
		return err
	}
	e.commit(e.forest.InsertRoot(block))
	return nil
}

// AddFunction prepends a function call with placeholder arguments.
func (e *Editor) AddFunction(name string) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if !models.HasItem(e.settings.Funcs, name) {
		return fmt.Errorf("%w: %q is not in the function palette", domain.ErrUnknownFunction, name)
	}
	block, err := functionBlock(name)
	if err != nil {
		return err
	}
	e.commit(e.forest.InsertRoot(block))
	return nil
}

// AddVariable prepends the block the operator mode derives from the variable:
// a bare symbol, or its comparison in the variable modes.
func (e *Editor) AddVariable(name string) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	v, ok := e.settings.Variables.Find(name)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownVariable, name)
	}
	block, err := variableBlock(v, e.settings.OperatorMode)
	if err != nil {
		return err
	}
	e.commit(e.forest.InsertRoot(block))
	return nil
}

// Delete removes the root at index.
func (e *Editor) Delete(index int) (bool, error) {
	if err := e.requireReady(); err != nil {
		return false, err
	}
	next, ok := e.forest.DeleteRoot(index)
	if !ok {
		return false, nil
	}
	e.commit(next)
	return true, nil
}

// Move drops sourceID into targetID's slot. An empty targetID drops the
// source onto the canvas.
func (e *Editor) Move(sourceID, targetID string) (bool, error) {
	if targetID == "" {
		return e.MoveToCanvas(sourceID)
	}
	if err := e.requireReady(); err != nil {
		return false, err
	}
	next, ok := e.forest.Move(sourceID, targetID)
	if !ok {
		e.logger.Debug("move ignored", "source_id", sourceID, "target_id", targetID)
		return false, nil
	}
	e.commit(next)
	return true, nil
}

// MoveToCanvas detaches sourceID from its parent and appends it to the roots.
func (e *Editor) MoveToCanvas(sourceID string) (bool, error) {
	if err := e.requireReady(); err != nil {
		return false, err
	}
	next, ok := e.forest.MoveToCanvas(sourceID)
	if !ok {
		e.logger.Debug("move to canvas ignored", "source_id", sourceID)
		return false, nil
	}
	e.commit(next)
	return true, nil
}

// WrapNot negates the expression: a new not operator takes the single root
// as its operand. Nothing happens unless the forest has exactly one root.
func (e *Editor) WrapNot() (bool, error) {
	if err := e.requireReady(); err != nil {
		return false, err
	}
	if !models.HasItem(e.settings.Operators, OperatorNot) {
		return false, fmt.Errorf("%w: %q is not in the operator palette", domain.ErrUnknownOperator, OperatorNot)
	}
	root := e.forest.Single()
	if root == nil {
		return false, nil
	}

	not, err := operatorBlock(OperatorNot)
	if err != nil {
		return false, err
	}
	staged := e.forest.InsertRoot(not)
	next, ok := staged.Move(root.ID, not.Args[0].ID)
	if !ok {
		return false, nil
	}
	e.commit(next)
	return true, nil
}

// SetVariables replaces the variable palette and re-evaluates.
func (e *Editor) SetVariables(variables models.Variables) {
	e.settings.Variables = append(models.Variables(nil), variables...)
	e.scope = BuildScope(e.settings.Variables)
	e.Generate()
}

// SetOperators replaces the operator palette.
func (e *Editor) SetOperators(items []models.PaletteItem) {
	e.settings.Operators = append([]models.PaletteItem(nil), items...)
}

// SetFunctions replaces the function palette.
func (e *Editor) SetFunctions(items []models.PaletteItem) {
	e.settings.Funcs = append([]models.PaletteItem(nil), items...)
}

// SetConstants replaces the constant palette and emits constants-changed.
func (e *Editor) SetConstants(constants []string) {
	e.settings.Constants = append([]string(nil), constants...)
	e.notifyConstants()
}

// SetOperatorMode selects how AddVariable builds blocks.
func (e *Editor) SetOperatorMode(mode models.OperatorMode) {
	e.settings.OperatorMode = mode
}

// Configure applies host settings, touching only what changed.
func (e *Editor) Configure(s models.Settings) error {
	e.SetOperators(s.Operators)
	e.SetFunctions(s.Funcs)
	e.SetOperatorMode(s.OperatorMode)
	e.settings.Locale = s.Locale
	e.settings.Theme = s.Theme
	e.settings.HiddenLocalePicker = s.HiddenLocalePicker
	e.settings.HiddenExpression = s.HiddenExpression

	if !reflect.DeepEqual(e.settings.Constants, s.Constants) {
		e.SetConstants(s.Constants)
	}
	if !reflect.DeepEqual(e.settings.Variables, s.Variables) {
		e.SetVariables(s.Variables)
	}
	if s.Expression != e.settings.Expression {
		return e.ReplaceExpression(s.Expression)
	}
	return nil
}

// Settings returns a copy of the editor's settings.
func (e *Editor) Settings() models.Settings {
	return e.settings.Clone()
}

// Forest returns the current forest. It must not be modified.
func (e *Editor) Forest() models.Forest {
	return e.forest
}

// Evaluation returns the last derived expression.
func (e *Editor) Evaluation() models.Evaluation {
	return e.evaluation
}

// Snapshot returns the current state.
func (e *Editor) Snapshot() models.State {
	return models.State{
		Forest:     e.forest,
		Evaluation: e.evaluation,
		Constants:  append([]string(nil), e.settings.Constants...),
		MathLoaded: e.ready,
	}
}

func (e *Editor) notifyConstants() {
	e.notify(models.Event{
		Name: models.EventConstantsChanged,
		Data: models.ConstantsPayload{Constants: append([]string(nil), e.settings.Constants...)},
	})
}

func (e *Editor) notify(event models.Event) {
	e.notifier.Notify(event)
}
