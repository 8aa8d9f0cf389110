package expression

import (
	"context"

	"visualexpr/internal/domain/models/expression"
)

// Block kinds accepted by AddBlock
const (
	BlockKindConstant = "constant"
	BlockKindOperator = "operator"
	BlockKindFunction = "function"
	BlockKindVariable = "variable"
)

// CreateWorkspaceRequest represents a request to create a workspace
type CreateWorkspaceRequest struct {
	OwnerID  string              `json:"-"`
	Name     string              `json:"name"`
	Settings expression.Settings `json:"settings"`
}

// UpdateWorkspaceRequest replaces the provided fields only.
// Settings fields left out of the request keep their current values.
type UpdateWorkspaceRequest struct {
	Name     *string                   `json:"name"`
	Settings *expression.SettingsPatch `json:"settings"`
}

// AddBlockRequest adds one palette item to the canvas.
// Value holds the raw constant text, Name the operator, function or variable name.
type AddBlockRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Name  string `json:"name"`
}

// MoveBlockRequest drops SourceID onto TargetID's slot, or onto the canvas
// when TargetID is empty.
type MoveBlockRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// SetExpressionRequest replaces the workspace expression text
type SetExpressionRequest struct {
	Expression string `json:"expression"`
}

// WorkspaceService defines business logic operations for workspaces.
// Every editing operation returns the workspace after the change has been
// persisted and the expression-changed event published.
type WorkspaceService interface {
	CreateWorkspace(ctx context.Context, req *CreateWorkspaceRequest) (*expression.Workspace, error)
	GetWorkspace(ctx context.Context, id, ownerID string) (*expression.Workspace, error)
	ListWorkspaces(ctx context.Context, ownerID string) ([]expression.Workspace, error)
	UpdateWorkspace(ctx context.Context, id, ownerID string, req *UpdateWorkspaceRequest) (*expression.Workspace, error)
	DeleteWorkspace(ctx context.Context, id, ownerID string) error

	SetExpression(ctx context.Context, id, ownerID string, req *SetExpressionRequest) (*expression.Workspace, error)
	AddBlock(ctx context.Context, id, ownerID string, req *AddBlockRequest) (*expression.Workspace, error)
	DeleteBlock(ctx context.Context, id, ownerID string, index int) (*expression.Workspace, error)
	MoveBlock(ctx context.Context, id, ownerID string, req *MoveBlockRequest) (*expression.Workspace, error)
	WrapNot(ctx context.Context, id, ownerID string) (*expression.Workspace, error)

	// Subscribe registers an event stream client. The channel carries
	// SSE-formatted events and is closed by Unsubscribe.
	Subscribe(ctx context.Context, id, ownerID string) (clientID string, events <-chan string, err error)
	Unsubscribe(id, clientID string)
}
