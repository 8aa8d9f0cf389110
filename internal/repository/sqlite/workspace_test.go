package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	exprRepo "visualexpr/internal/domain/repositories/expression"
	"visualexpr/internal/repository/repotest"
)

func newTestRepo(t *testing.T) exprRepo.WorkspaceRepository {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWorkspaceRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWorkspaceRepository(t *testing.T) {
	repotest.RunWorkspaceRepository(t, newTestRepo)
}

func TestOpenFileIsReopenable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "workspaces.db")

	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	repo := NewWorkspaceRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ws := repotest.Workspace("alice", "kept")
	if err := repo.Create(ctx, ws); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	db.Close()

	db, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer db.Close()

	got, err := NewWorkspaceRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil))).GetByID(ctx, ws.ID, "alice")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Settings.Expression != "x + 1" {
		t.Errorf("expression = %q", got.Settings.Expression)
	}
}
