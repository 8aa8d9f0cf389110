// Package repotest holds the behaviour every WorkspaceRepository
// implementation must share. Backends call RunWorkspaceRepository from their
// own tests.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	exprRepo "visualexpr/internal/domain/repositories/expression"
)

// RunWorkspaceRepository exercises repo. newRepo must return an empty repository.
func RunWorkspaceRepository(t *testing.T, newRepo func(t *testing.T) exprRepo.WorkspaceRepository) {
	t.Run("create and get", func(t *testing.T) { testCreateGet(t, newRepo(t)) })
	t.Run("owner isolation", func(t *testing.T) { testOwnerIsolation(t, newRepo(t)) })
	t.Run("list order", func(t *testing.T) { testListOrder(t, newRepo(t)) })
	t.Run("update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("name conflict", func(t *testing.T) { testNameConflict(t, newRepo(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
}

// Workspace returns a populated workspace for owner.
func Workspace(owner, name string) *models.Workspace {
	plus := models.NewOperatorBlock("+", "add", 2)
	x := models.NewSymbolBlock("x")
	x.SetAddress(0)
	plus.Args[0] = x

	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Workspace{
		OwnerID: owner,
		Name:    name,
		Settings: models.Settings{
			Expression:   "x + 1",
			Operators:    []models.PaletteItem{{Name: "+"}},
			Funcs:        []models.PaletteItem{},
			Variables:    models.Variables{models.ComparisonVariable{Name: "x", Test: 2.0, Op: ">="}},
			OperatorMode: models.OperatorModeVariable,
			Locale:       "en-US",
			Theme:        models.ThemeDark,
			Constants:    []string{"1"},
		},
		Forest:     models.NewForest(plus, models.NewConstantBlock("text")),
		Evaluation: models.Evaluation{Expression: "x + 1", Result: 3.0},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func testCreateGet(t *testing.T, repo exprRepo.WorkspaceRepository) {
	ctx := context.Background()
	ws := Workspace("alice", "first")
	if err := repo.Create(ctx, ws); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ws.ID == "" {
		t.Fatal("Create() left the id empty")
	}

	got, err := repo.GetByID(ctx, ws.ID, "alice")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "first" || got.OwnerID != "alice" {
		t.Errorf("got %q/%q", got.Name, got.OwnerID)
	}
	if !got.UpdatedAt.Equal(ws.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, ws.UpdatedAt)
	}
	if got.Settings.Theme != models.ThemeDark || got.Settings.OperatorMode != models.OperatorModeVariable {
		t.Errorf("settings = %+v", got.Settings)
	}
	if v, ok := got.Settings.Variables.Find("x"); !ok || v.(models.ComparisonVariable).Op != ">=" {
		t.Errorf("variable x = %#v", v)
	}
	if got.Forest.Len() != 2 || got.Forest.Roots[0].ID != ws.Forest.Roots[0].ID {
		t.Fatalf("forest = %d roots", got.Forest.Len())
	}
	slot := got.Forest.Roots[0].Args[1]
	if !slot.Placeholder || slot.Path != "args[1]" {
		t.Errorf("placeholder slot = %+v", slot)
	}
	if got.Evaluation.Result != 3.0 {
		t.Errorf("evaluation = %+v", got.Evaluation)
	}

	if _, err := repo.GetByID(ctx, "missing", "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func testOwnerIsolation(t *testing.T, repo exprRepo.WorkspaceRepository) {
	ctx := context.Background()
	ws := Workspace("alice", "mine")
	if err := repo.Create(ctx, ws); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.GetByID(ctx, ws.ID, "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() by bob error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, ws.ID, "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete() by bob error = %v, want ErrNotFound", err)
	}
	stolen := *ws
	stolen.OwnerID = "bob"
	if err := repo.Update(ctx, &stolen); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update() by bob error = %v, want ErrNotFound", err)
	}
	list, err := repo.List(ctx, "bob")
	if err != nil || len(list) != 0 {
		t.Errorf("List(bob) = %d, %v", len(list), err)
	}

	// Names are unique per owner only.
	if err := repo.Create(ctx, Workspace("bob", "mine")); err != nil {
		t.Errorf("Create() same name for bob error = %v", err)
	}
}

func testListOrder(t *testing.T, repo exprRepo.WorkspaceRepository) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, name := range []string{"old", "new", "middle"} {
		ws := Workspace("alice", name)
		ws.UpdatedAt = base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Second)
		if err := repo.Create(ctx, ws); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	list, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, ws := range list {
		names = append(names, ws.Name)
	}
	if len(names) != 3 || names[0] != "new" || names[1] != "middle" || names[2] != "old" {
		t.Errorf("List() order = %v, want [new middle old]", names)
	}
}

func testUpdate(t *testing.T, repo exprRepo.WorkspaceRepository) {
	ctx := context.Background()
	ws := Workspace("alice", "before")
	if err := repo.Create(ctx, ws); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ws.Name = "after"
	ws.Settings.Expression = "1"
	ws.Forest = models.NewForest(models.NewConstantBlock(1.0))
	ws.Evaluation = models.Evaluation{Expression: "1", Result: 1.0}
	ws.UpdatedAt = ws.UpdatedAt.Add(time.Second)
	if err := repo.Update(ctx, ws); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, ws.ID, "alice")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "after" || got.Settings.Expression != "1" || got.Forest.Len() != 1 {
		t.Errorf("got %q/%q with %d roots", got.Name, got.Settings.Expression, got.Forest.Len())
	}
	if !got.UpdatedAt.Equal(ws.UpdatedAt) || !got.CreatedAt.Equal(ws.CreatedAt) {
		t.Errorf("timestamps = %v/%v", got.CreatedAt, got.UpdatedAt)
	}

	missing := Workspace("alice", "ghost")
	missing.ID = "00000000-0000-0000-0000-000000000000"
	if err := repo.Update(ctx, missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func testNameConflict(t *testing.T, repo exprRepo.WorkspaceRepository) {
	ctx := context.Background()
	first := Workspace("alice", "taken")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err := repo.Create(ctx, Workspace("alice", "taken"))
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Create() duplicate error = %v, want ConflictError", err)
	}
	if conflict.ResourceID != first.ID || !errors.Is(err, domain.ErrConflict) {
		t.Errorf("conflict = %+v", conflict)
	}

	other := Workspace("alice", "other")
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	other.Name = "taken"
	if err := repo.Update(ctx, other); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Update() rename error = %v, want ErrConflict", err)
	}
}

func testDelete(t *testing.T, repo exprRepo.WorkspaceRepository) {
	ctx := context.Background()
	ws := Workspace("alice", "doomed")
	if err := repo.Create(ctx, ws); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, ws.ID, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, ws.ID, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, ws.ID, "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	// The name is free again.
	if err := repo.Create(ctx, Workspace("alice", "doomed")); err != nil {
		t.Errorf("Create() reusing a deleted name error = %v", err)
	}
}
