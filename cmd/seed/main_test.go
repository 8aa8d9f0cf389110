package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	models "visualexpr/internal/domain/models/expression"
	exprSvc "visualexpr/internal/domain/services/expression"
	"visualexpr/internal/repository/memory"
	serviceExpr "visualexpr/internal/service/expression"
)

func TestDefaultFixturesCreate(t *testing.T) {
	fixtures, err := loadFixtures("")
	if err != nil {
		t.Fatalf("loadFixtures() error = %v", err)
	}
	if len(fixtures) == 0 {
		t.Fatal("no built-in fixtures")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog, err := serviceExpr.NewCatalog("", logger)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	svc := serviceExpr.NewWorkspaceService(
		memory.NewWorkspaceRepository(),
		catalog,
		serviceExpr.NewEngineLoader(8),
		serviceExpr.NewHubRegistry(time.Minute, time.Minute, logger),
		len(fixtures),
		logger,
	)

	for _, f := range fixtures {
		ws, err := svc.CreateWorkspace(context.Background(), &exprSvc.CreateWorkspaceRequest{
			OwnerID:  "seed",
			Name:     f.Name,
			Settings: models.Settings{Expression: f.Expression, Theme: f.Theme, Locale: f.Locale},
		})
		if err != nil {
			t.Errorf("fixture %q: %v", f.Name, err)
			continue
		}
		if ws.Evaluation.Error != "" {
			t.Errorf("fixture %q evaluates with error %q", f.Name, ws.Evaluation.Error)
		}
	}
}

func TestLoadFixturesFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("workspaces:\n  - name: one\n    expression: 1 + 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fixtures, err := loadFixtures(good)
	if err != nil {
		t.Fatalf("loadFixtures() error = %v", err)
	}
	if len(fixtures) != 1 || fixtures[0].Name != "one" || fixtures[0].Expression != "1 + 1" {
		t.Errorf("fixtures = %+v", fixtures)
	}

	unnamed := filepath.Join(dir, "unnamed.yaml")
	if err := os.WriteFile(unnamed, []byte("workspaces:\n  - expression: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFixtures(unnamed); err == nil {
		t.Error("loadFixtures() accepted a fixture without name")
	}

	if _, err := loadFixtures(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("loadFixtures() accepted a missing file")
	}
}
