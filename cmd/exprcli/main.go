// Command exprcli edits an expression from the terminal. It runs the same
// editor the server hosts, without storage or HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"visualexpr/internal/config"
	serviceExpr "visualexpr/internal/service/expression"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"
)

const prompt = "expr> "

func main() {
	expression := flag.String("e", "", "Initial expression")
	paletteFile := flag.String("palette", "", "Palette file (defaults to PALETTE_FILE or the built-in catalog)")
	verbose := flag.Bool("v", false, "Log editor diagnostics to stderr")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *paletteFile == "" {
		*paletteFile = cfg.PaletteFile
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	catalog, err := serviceExpr.NewCatalog(*paletteFile, logger)
	if err != nil {
		log.Fatalf("Failed to load palette catalog: %v", err)
	}
	settings := catalog.Defaults()
	settings.Expression = *expression

	s := newSession(settings, serviceExpr.NewEngineLoader(cfg.ParseCacheSize), os.Stdout)
	if err := s.init(context.Background()); err != nil {
		log.Fatalf("Failed to start editor: %v", err)
	}

	run(s, os.Stdout)
}

// run reads commands until exit, Ctrl+D or a terminal error.
func run(s *session, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(s.complete)

	historyFile := filepath.Join(os.TempDir(), ".exprcli_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "Type 'help' for commands, Tab for completion, Ctrl+D to quit")
	s.printEvaluation()

	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(out, "^C")
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			return
		}
		if input != "" {
			line.AppendHistory(input)
		}
		if s.exec(input) {
			return
		}
	}
}
