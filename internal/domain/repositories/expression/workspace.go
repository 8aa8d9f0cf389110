package expression

import (
	"context"

	"visualexpr/internal/domain/models/expression"
)

// WorkspaceRepository defines data access operations for workspaces
type WorkspaceRepository interface {
	// Create stores a new workspace. An empty ID is filled with a generated one.
	Create(ctx context.Context, workspace *expression.Workspace) error

	// GetByID retrieves a workspace owned by ownerID
	GetByID(ctx context.Context, id, ownerID string) (*expression.Workspace, error)

	// List retrieves all workspaces for an owner, ordered by updated_at DESC
	List(ctx context.Context, ownerID string) ([]expression.Workspace, error)

	// Update replaces name, settings, forest and evaluation
	Update(ctx context.Context, workspace *expression.Workspace) error

	// Delete removes a workspace
	Delete(ctx context.Context, id, ownerID string) error
}
