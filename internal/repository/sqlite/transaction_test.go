package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"visualexpr/internal/domain"
	"visualexpr/internal/repository/repotest"
)

func TestExecTx(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewWorkspaceRepository(db, logger)
	tm := NewTransactionManager(db, logger)

	kept := repotest.Workspace("alice", "kept")
	if err := tm.ExecTx(ctx, func(ctx context.Context) error {
		return repo.Create(ctx, kept)
	}); err != nil {
		t.Fatalf("ExecTx() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, kept.ID, "alice"); err != nil {
		t.Errorf("committed workspace: %v", err)
	}

	boom := errors.New("boom")
	dropped := repotest.Workspace("alice", "dropped")
	err = tm.ExecTx(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, dropped); err != nil {
			return err
		}
		// Nested calls join the outer transaction.
		return tm.ExecTx(ctx, func(ctx context.Context) error {
			if _, err := repo.GetByID(ctx, dropped.ID, "alice"); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx() error = %v, want boom", err)
	}
	if _, err := repo.GetByID(ctx, dropped.ID, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("rolled back workspace: error = %v, want ErrNotFound", err)
	}
}
