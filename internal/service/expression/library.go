package expression

import (
	"context"

	"visualexpr/internal/mathexpr"
)

// Library is the math capability the editor re-targets: parsing text into a
// tree and evaluating text against a scope.
type Library interface {
	Parse(text string) (mathexpr.Node, error)
	Evaluate(text string, scope mathexpr.Scope) (any, error)
}

// LibraryLoader makes a Library available. Editors call it once from Init.
type LibraryLoader interface {
	Load(ctx context.Context) (Library, error)
}

// LibraryLoaderFunc adapts a function to LibraryLoader.
type LibraryLoaderFunc func(ctx context.Context) (Library, error)

// Load implements LibraryLoader.
func (f LibraryLoaderFunc) Load(ctx context.Context) (Library, error) {
	return f(ctx)
}

// NewEngineLoader returns a loader handing out one shared mathexpr engine.
func NewEngineLoader(cacheSize int) LibraryLoader {
	engine := mathexpr.NewEngine(cacheSize)
	return LibraryLoaderFunc(func(ctx context.Context) (Library, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return engine, nil
	})
}
