package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	models "visualexpr/internal/domain/models/expression"
	exprSvc "visualexpr/internal/domain/services/expression"
	"visualexpr/internal/httputil"
)

// WorkspaceHandler handles workspace HTTP requests
type WorkspaceHandler struct {
	workspaceService exprSvc.WorkspaceService
	logger           *slog.Logger
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspaceService exprSvc.WorkspaceService, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		logger:           logger,
	}
}

// HealthCheck reports that the server is up
// GET /health
func (h *WorkspaceHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListWorkspaces retrieves all workspaces of the owner
// GET /api/workspaces
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	workspaces, err := h.workspaceService.ListWorkspaces(r.Context(), ownerID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, workspaces)
}

// CreateWorkspace creates a new workspace
// POST /api/workspaces
// Returns 201 if created, 409 with the existing workspace if the name is taken
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req exprSvc.CreateWorkspaceRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.OwnerID = ownerID

	workspace, err := h.workspaceService.CreateWorkspace(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*models.Workspace, error) {
			return h.workspaceService.GetWorkspace(r.Context(), id, ownerID)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, workspace)
}

// GetWorkspace retrieves a workspace by ID
// GET /api/workspaces/{id}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.GetWorkspace(r.Context(), r.PathValue("id"), ownerID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, workspace)
}

// UpdateWorkspace renames a workspace and/or replaces its settings
// PATCH /api/workspaces/{id}
func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req exprSvc.UpdateWorkspaceRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	workspace, err := h.workspaceService.UpdateWorkspace(r.Context(), r.PathValue("id"), ownerID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, workspace)
}

// DeleteWorkspace deletes a workspace
// DELETE /api/workspaces/{id}
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.workspaceService.DeleteWorkspace(r.Context(), r.PathValue("id"), ownerID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetExpression replaces the expression text
// PUT /api/workspaces/{id}/expression
func (h *WorkspaceHandler) SetExpression(w http.ResponseWriter, r *http.Request) {
	var req exprSvc.SetExpressionRequest
	h.edit(w, r, &req, func(id, ownerID string) (*models.Workspace, error) {
		return h.workspaceService.SetExpression(r.Context(), id, ownerID, &req)
	})
}

// AddBlock prepends a palette item to the canvas
// POST /api/workspaces/{id}/blocks
func (h *WorkspaceHandler) AddBlock(w http.ResponseWriter, r *http.Request) {
	var req exprSvc.AddBlockRequest
	h.edit(w, r, &req, func(id, ownerID string) (*models.Workspace, error) {
		return h.workspaceService.AddBlock(r.Context(), id, ownerID, &req)
	})
}

// DeleteBlock removes a root block
// DELETE /api/workspaces/{id}/blocks/{index}
func (h *WorkspaceHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		httputil.RespondError(w, http.StatusBadRequest, "block index must be a non-negative integer")
		return
	}

	h.edit(w, r, nil, func(id, ownerID string) (*models.Workspace, error) {
		return h.workspaceService.DeleteBlock(r.Context(), id, ownerID, index)
	})
}

// MoveBlock drops a block into a slot or onto the canvas
// POST /api/workspaces/{id}/moves
func (h *WorkspaceHandler) MoveBlock(w http.ResponseWriter, r *http.Request) {
	var req exprSvc.MoveBlockRequest
	h.edit(w, r, &req, func(id, ownerID string) (*models.Workspace, error) {
		return h.workspaceService.MoveBlock(r.Context(), id, ownerID, &req)
	})
}

// WrapNot negates the whole expression
// POST /api/workspaces/{id}/not
func (h *WorkspaceHandler) WrapNot(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, nil, func(id, ownerID string) (*models.Workspace, error) {
		return h.workspaceService.WrapNot(r.Context(), id, ownerID)
	})
}

// edit decodes the body into req when req is not nil, runs the editing
// action and responds with the resulting workspace.
func (h *WorkspaceHandler) edit(
	w http.ResponseWriter,
	r *http.Request,
	req interface{},
	action func(id, ownerID string) (*models.Workspace, error),
) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if req != nil {
		if err := httputil.ParseJSON(w, r, req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	workspace, err := action(r.PathValue("id"), ownerID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, workspace)
}
