package expression

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	models "visualexpr/internal/domain/models/expression"
)

//go:embed catalog/default.yaml
var defaultCatalog []byte

// catalogDebounce is how long the palette file must stay quiet before it is reloaded.
const catalogDebounce = 150 * time.Millisecond

// catalogFile is the YAML layout of a palette catalog.
type catalogFile struct {
	OperatorMode string               `yaml:"operatorMode"`
	Locale       string               `yaml:"locale"`
	Theme        string               `yaml:"theme"`
	Operators    []models.PaletteItem `yaml:"operators"`
	Funcs        []models.PaletteItem `yaml:"funcs"`
	Variables    []map[string]any     `yaml:"variables"`
	Constants    []string             `yaml:"constants"`
}

// Catalog holds the default settings new workspaces start from.
//
// The built-in catalog is embedded in the binary. A palette file replaces it
// and, once Watch is running, is reloaded whenever it changes on disk. A file
// that fails to load leaves the previous catalog in place.
type Catalog struct {
	mu       sync.RWMutex
	settings models.Settings

	path   string
	logger *slog.Logger
}

// NewCatalog loads the embedded catalog, then the palette file at path if
// path is not empty.
func NewCatalog(path string, logger *slog.Logger) (*Catalog, error) {
	settings, err := ParseCatalog(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}

	c := &Catalog{settings: settings, path: path, logger: logger}
	if path != "" {
		if err := c.Reload(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ParseCatalog decodes a YAML catalog into workspace settings. Palette items
// the editor cannot place are dropped.
func ParseCatalog(data []byte) (models.Settings, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return models.Settings{}, fmt.Errorf("failed to parse catalog: %w", err)
	}

	variables := make(models.Variables, 0, len(file.Variables))
	for i, raw := range file.Variables {
		// Variables go through the same descriptor decoding as the HTTP API.
		data, err := json.Marshal(raw)
		if err != nil {
			return models.Settings{}, fmt.Errorf("variable %d: %w", i, err)
		}
		v, err := models.DecodeVariable(data)
		if err != nil {
			return models.Settings{}, fmt.Errorf("variable %d: %w", i, err)
		}
		variables = append(variables, v)
	}

	settings := models.Settings{
		Operators:    FilterOperators(file.Operators),
		Funcs:        FilterFunctions(file.Funcs),
		Variables:    variables,
		OperatorMode: models.OperatorMode(file.OperatorMode),
		Locale:       file.Locale,
		Theme:        file.Theme,
		Constants:    append([]string{}, file.Constants...),
	}
	return settings.WithDefaults(models.Settings{}), nil
}

// Defaults returns a copy of the current catalog.
func (c *Catalog) Defaults() models.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Clone()
}

// Reload reads the palette file again.
func (c *Catalog) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read palette file %s: %w", c.path, err)
	}
	settings, err := ParseCatalog(data)
	if err != nil {
		return fmt.Errorf("palette file %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()

	c.logger.Info("palette catalog loaded",
		"path", c.path,
		"operators", len(settings.Operators),
		"funcs", len(settings.Funcs),
		"variables", len(settings.Variables),
	)
	return nil
}

// Watch reloads the palette file when it changes until ctx is cancelled.
// It returns immediately when no palette file is configured.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory rather than the file.
	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	c.logger.Info("watching palette file", "path", c.path)

	go c.eventLoop(ctx, watcher)
	return nil
}

func (c *Catalog) eventLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	timer := time.NewTimer(catalogDebounce)
	timer.Stop()
	defer timer.Stop()

	name := filepath.Base(c.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Restart the quiet period on every change.
			timer.Reset(catalogDebounce)

		case <-timer.C:
			if err := c.Reload(); err != nil {
				c.logger.Error("palette reload failed, keeping previous catalog", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("palette watcher error", "error", err)
		}
	}
}
