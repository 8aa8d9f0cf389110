package expression

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/mathexpr"
)

// recorder collects the events an editor emits.
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Notify(event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

func (r *recorder) last() models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return models.Event{}
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func failingLoader() LibraryLoader {
	return LibraryLoaderFunc(func(ctx context.Context) (Library, error) {
		return nil, errors.New("library unavailable")
	})
}

func allOperators() []models.PaletteItem {
	items := make([]models.PaletteItem, len(SupportedOperators))
	for i, op := range SupportedOperators {
		items[i] = models.PaletteItem{Name: op}
	}
	return items
}

func allFunctions() []models.PaletteItem {
	return []models.PaletteItem{{Name: "equalText"}, {Name: FuncIsIn}, {Name: FuncBetween}}
}

func testSettings() models.Settings {
	return models.Settings{
		Operators:    allOperators(),
		Funcs:        allFunctions(),
		OperatorMode: models.OperatorModeDefault,
		Theme:        models.ThemeLight,
	}
}

// newReadyEditor returns an initialized editor and the recorder it reports to.
func newReadyEditor(t *testing.T, settings models.Settings) (*Editor, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := NewEditor(settings, NewEngineLoader(16), rec, discardLogger())
	e.Init(context.Background())
	if !e.Ready() {
		t.Fatal("editor not ready after Init")
	}
	return e, rec
}

func mustParse(t *testing.T, text string) mathexpr.Node {
	t.Helper()
	node, err := mathexpr.Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", text, err)
	}
	return node
}

// shape renders a block tree with kinds and values but without ids.
func shape(b *models.Block) string {
	if b == nil {
		return "<nil>"
	}
	switch b.Kind {
	case models.KindConstant:
		if b.Placeholder {
			return "_"
		}
		return "c(" + mathexpr.FormatValue(b.Value) + ")"
	case models.KindSymbol:
		return "s(" + b.Name + ")"
	case models.KindOperator, models.KindFunction:
		out := string(b.Kind[:2]) + "(" + b.Op + b.Fn
		for _, arg := range b.Args {
			out += " " + shape(arg)
		}
		return out + ")"
	}
	return string(b.Kind)
}
