package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"visualexpr/internal/domain"
	models "visualexpr/internal/domain/models/expression"
	exprRepo "visualexpr/internal/domain/repositories/expression"

	"github.com/google/uuid"
)

// WorkspaceRepository keeps workspaces in process memory. It is used when no
// database is configured, by the terminal client and in tests.
type WorkspaceRepository struct {
	mu         sync.RWMutex
	workspaces map[string]models.Workspace
}

// NewWorkspaceRepository creates an empty repository
func NewWorkspaceRepository() exprRepo.WorkspaceRepository {
	return &WorkspaceRepository{workspaces: make(map[string]models.Workspace)}
}

// Create stores a copy of the workspace
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if workspace.ID == "" {
		workspace.ID = uuid.NewString()
	}
	if _, exists := r.workspaces[workspace.ID]; exists {
		return fmt.Errorf("workspace %s: %w", workspace.ID, domain.ErrConflict)
	}
	if err := r.checkNameLocked(workspace); err != nil {
		return err
	}

	now := time.Now().UTC()
	if workspace.CreatedAt.IsZero() {
		workspace.CreatedAt = now
	}
	if workspace.UpdatedAt.IsZero() {
		workspace.UpdatedAt = now
	}

	r.workspaces[workspace.ID] = clone(*workspace)
	return nil
}

// GetByID retrieves a copy of a workspace
func (r *WorkspaceRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workspace, ok := r.workspaces[id]
	if !ok || workspace.OwnerID != ownerID {
		return nil, fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}
	c := clone(workspace)
	return &c, nil
}

// List retrieves all workspaces for an owner, ordered by updated_at DESC
func (r *WorkspaceRepository) List(ctx context.Context, ownerID string) ([]models.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workspaces := []models.Workspace{}
	for _, workspace := range r.workspaces {
		if workspace.OwnerID == ownerID {
			workspaces = append(workspaces, clone(workspace))
		}
	}
	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].UpdatedAt.After(workspaces[j].UpdatedAt)
	})
	return workspaces, nil
}

// Update replaces the stored copy
func (r *WorkspaceRepository) Update(ctx context.Context, workspace *models.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.workspaces[workspace.ID]
	if !ok || existing.OwnerID != workspace.OwnerID {
		return fmt.Errorf("workspace %s: %w", workspace.ID, domain.ErrNotFound)
	}
	if err := r.checkNameLocked(workspace); err != nil {
		return err
	}

	updated := clone(*workspace)
	updated.CreatedAt = existing.CreatedAt
	r.workspaces[workspace.ID] = updated
	return nil
}

// Delete removes a workspace
func (r *WorkspaceRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	workspace, ok := r.workspaces[id]
	if !ok || workspace.OwnerID != ownerID {
		return fmt.Errorf("workspace %s: %w", id, domain.ErrNotFound)
	}
	delete(r.workspaces, id)
	return nil
}

// checkNameLocked rejects a name another workspace of the same owner uses.
func (r *WorkspaceRepository) checkNameLocked(workspace *models.Workspace) error {
	for id, other := range r.workspaces {
		if id != workspace.ID && other.OwnerID == workspace.OwnerID && other.Name == workspace.Name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("workspace '%s' already exists", workspace.Name),
				ResourceType: "workspace",
				ResourceID:   id,
			}
		}
	}
	return nil
}

func clone(workspace models.Workspace) models.Workspace {
	c := workspace
	c.Settings = workspace.Settings.Clone()
	c.Forest = workspace.Forest.Clone()
	return c
}
