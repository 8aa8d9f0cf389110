package expression

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	exprRepo "visualexpr/internal/domain/repositories/expression"

	"visualexpr/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWorkspaceRepository implements the WorkspaceRepository interface.
// Settings, forest and evaluation are stored as JSONB in their wire form.
type PostgresWorkspaceRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(config *postgres.RepositoryConfig) exprRepo.WorkspaceRepository {
	return &PostgresWorkspaceRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const workspaceColumns = `id, owner_id, name, settings, forest, evaluation, created_at, updated_at`

// Create creates a new workspace
func (r *PostgresWorkspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	if workspace.ID == "" {
		workspace.ID = uuid.NewString()
	}

	settings, forest, evaluation, err := encodeWorkspace(workspace)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, name, settings, forest, evaluation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, r.tables.Workspaces)

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		workspace.ID,
		workspace.OwnerID,
		workspace.Name,
		settings,
		forest,
		evaluation,
		workspace.CreatedAt,
		workspace.UpdatedAt,
	).Scan(&workspace.CreatedAt, &workspace.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflict(ctx, workspace)
		}
		return fmt.Errorf("create workspace: %w", err)
	}

	return nil
}

// GetByID retrieves a workspace by ID
func (r *PostgresWorkspaceRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Workspace, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`, workspaceColumns, r.tables.Workspaces)

	executor := postgres.GetExecutor(ctx, r.pool)
	workspace, err := scanWorkspace(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}

	return workspace, nil
}

// List retrieves all workspaces for an owner, ordered by updated_at DESC
func (r *PostgresWorkspaceRepository) List(ctx context.Context, ownerID string) ([]models.Workspace, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC
	`, workspaceColumns, r.tables.Workspaces)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID)
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
func (r *PostgresWorkspaceRepository) Update(ctx context.Context, workspace *models.Workspace) error {
	settings, forest, evaluation, err := encodeWorkspace(workspace)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, settings = $2, forest = $3, evaluation = $4, updated_at = $5
		WHERE id = $6 AND owner_id = $7 AND deleted_at IS NULL
	`, r.tables.Workspaces)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		workspace.Name,
		settings,
		forest,
		evaluation,
		workspace.UpdatedAt,
		workspace.ID,
		workspace.OwnerID,
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflict(ctx, workspace)
		}
		return fmt.Errorf("update workspace: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("workspace %s: %w", workspace.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete soft-deletes a workspace
func (r *PostgresWorkspaceRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`, r.tables.Workspaces)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}

	r.logger.Debug("workspace soft-deleted", "id", id)
	return nil
}

// conflict builds the error for a name that is already taken by the owner.
func (r *PostgresWorkspaceRepository) conflict(ctx context.Context, workspace *models.Workspace) error {
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE owner_id = $1 AND name = $2 AND deleted_at IS NULL
	`, r.tables.Workspaces)

	var existingID string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, workspace.OwnerID, workspace.Name).Scan(&existingID); err != nil {
		// Fallback to generic conflict error if we can't find the existing workspace
		return fmt.Errorf("workspace '%s' already exists: %w", workspace.Name, domain.ErrConflict)
	}

	return &domain.ConflictError{
		Message:      fmt.Sprintf("workspace '%s' already exists", workspace.Name),
		ResourceType: "workspace",
		ResourceID:   existingID,
	}
}

// encodeWorkspace marshals the JSONB columns. They are passed as text so the
// statements also work in simple protocol mode.
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

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var workspace models.Workspace
	var settings, forest, evaluation []byte
	err := row.Scan(
		&workspace.ID,
		&workspace.OwnerID,
		&workspace.Name,
		&settings,
		&forest,
		&evaluation,
		&workspace.CreatedAt,
		&workspace.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(settings, &workspace.Settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal(forest, &workspace.Forest); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if err := json.Unmarshal(evaluation, &workspace.Evaluation); err != nil {
		return nil, fmt.Errorf("decode evaluation: %w", err)
	}

	return &workspace, nil
}
