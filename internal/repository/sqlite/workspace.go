package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	exprRepo "visualexpr/internal/domain/repositories/expression"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Open opens (or creates) the database file at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	connStr := path
	if path != ":memory:" {
		connStr = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the workspace table and its indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS workspaces (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			settings TEXT NOT NULL,
			forest TEXT NOT NULL DEFAULT '[]',
			evaluation TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_workspaces_owner_name ON workspaces(owner_id, name) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_workspaces_owner_updated ON workspaces(owner_id, updated_at) WHERE deleted_at IS NULL`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// WorkspaceRepository implements the WorkspaceRepository interface on SQLite.
// JSON columns hold the same wire form as the Postgres JSONB columns.
type WorkspaceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *sql.DB, logger *slog.Logger) exprRepo.WorkspaceRepository {
	return &WorkspaceRepository{db: db, logger: logger}
}

const workspaceColumns = `id, owner_id, name, settings, forest, evaluation, created_at, updated_at`

// Create creates a new workspace
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	if workspace.ID == "" {
		workspace.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if workspace.CreatedAt.IsZero() {
		workspace.CreatedAt = now
	}
	if workspace.UpdatedAt.IsZero() {
		workspace.UpdatedAt = now
	}

	settings, forest, evaluation, err := encodeWorkspace(workspace)
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO workspaces (id, owner_id, name, settings, forest, evaluation, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		workspace.ID,
		workspace.OwnerID,
		workspace.Name,
		settings,
		forest,
		evaluation,
		formatTime(workspace.CreatedAt),
		formatTime(workspace.UpdatedAt),
	)
	if err != nil {
		if isUniqueError(err) {
			return r.conflict(ctx, workspace)
		}
		return fmt.Errorf("create workspace: %w", err)
	}

	return nil
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Workspace, error) {
	row := r.conn(ctx).QueryRowContext(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, id, ownerID)

	workspace, err := scanWorkspace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	return workspace, nil
}

// List retrieves all workspaces for an owner, ordered by updated_at DESC
func (r *WorkspaceRepository) List(ctx context.Context, ownerID string) ([]models.Workspace, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := []models.Workspace{}
	for rows.Next() {
		workspace, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, *workspace)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}

	return workspaces, nil
}

// Update replaces name, settings, forest and evaluation
func (r *WorkspaceRepository) Update(ctx context.Context, workspace *models.Workspace) error {
	settings, forest, evaluation, err := encodeWorkspace(workspace)
	if err != nil {
		return err
	}

	result, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE workspaces
		SET name = ?, settings = ?, forest = ?, evaluation = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`,
		workspace.Name,
		settings,
		forest,
		evaluation,
		formatTime(workspace.UpdatedAt),
		workspace.ID,
		workspace.OwnerID,
	)
	if err != nil {
		if isUniqueError(err) {
			return r.conflict(ctx, workspace)
		}
		return fmt.Errorf("update workspace: %w", err)
	}

	return requireRow(result, workspace.ID)
}

// Delete soft-deletes a workspace
func (r *WorkspaceRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE workspaces
		SET deleted_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, formatTime(time.Now()), id, ownerID)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}

	if err := requireRow(result, id); err != nil {
		return err
	}

	r.logger.Debug("workspace soft-deleted", "id", id)
	return nil
}

func (r *WorkspaceRepository) conflict(ctx context.Context, workspace *models.Workspace) error {
	var existingID string
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT id FROM workspaces
		WHERE owner_id = ? AND name = ? AND deleted_at IS NULL
	`, workspace.OwnerID, workspace.Name).Scan(&existingID)
	if err != nil {
		return fmt.Errorf("workspace '%s' already exists: %w", workspace.Name, domain.ErrConflict)
	}

	return &domain.ConflictError{
		Message:      fmt.Sprintf("workspace '%s' already exists", workspace.Name),
		ResourceType: "workspace",
		ResourceID:   existingID,
	}
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// isUniqueError reports a UNIQUE constraint violation.
func isUniqueError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encodeWorkspace(workspace *models.Workspace) (settings, forest, evaluation string, err error) {
	s, err := json.Marshal(workspace.Settings)
	if err != nil {
		return "", "", "", fmt.Errorf("encode settings: %w", err)
	}
	f, err := json.Marshal(workspace.Forest)
	if err != nil {
		return "", "", "", fmt.Errorf("encode forest: %w", err)
	}
	e, err := json.Marshal(workspace.Evaluation)
	if err != nil {
		return "", "", "", fmt.Errorf("encode evaluation: %w", err)
	}
	return string(s), string(f), string(e), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row scanner) (*models.Workspace, error) {
	var workspace models.Workspace
	var settings, forest, evaluation, createdAt, updatedAt string
	err := row.Scan(
		&workspace.ID,
		&workspace.OwnerID,
		&workspace.Name,
		&settings,
		&forest,
		&evaluation,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(settings), &workspace.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal([]byte(forest), &workspace.Forest); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if err := json.Unmarshal([]byte(evaluation), &workspace.Evaluation); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}
	if workspace.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if workspace.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}

	return &workspace, nil
}
