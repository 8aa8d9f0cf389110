package handler

import "net/http"

// RegisterRoutes mounts the API on mux (Go 1.22+ method and wildcard patterns).
func RegisterRoutes(mux *http.ServeMux, workspaces *WorkspaceHandler, events *SSEHandler, palette *PaletteHandler) {
	// Health check
	mux.HandleFunc("GET /health", workspaces.HealthCheck)

	// Palette catalog
	mux.HandleFunc("GET /api/palette", palette.GetPalette)

	// Workspace routes
	mux.HandleFunc("GET /api/workspaces", workspaces.ListWorkspaces)
	mux.HandleFunc("POST /api/workspaces", workspaces.CreateWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}", workspaces.GetWorkspace)
	mux.HandleFunc("PATCH /api/workspaces/{id}", workspaces.UpdateWorkspace)
	mux.HandleFunc("DELETE /api/workspaces/{id}", workspaces.DeleteWorkspace)

	// Editing routes
	mux.HandleFunc("PUT /api/workspaces/{id}/expression", workspaces.SetExpression)
	mux.HandleFunc("POST /api/workspaces/{id}/blocks", workspaces.AddBlock)
	mux.HandleFunc("DELETE /api/workspaces/{id}/blocks/{index}", workspaces.DeleteBlock)
	mux.HandleFunc("POST /api/workspaces/{id}/moves", workspaces.MoveBlock)
	mux.HandleFunc("POST /api/workspaces/{id}/not", workspaces.WrapNot)

	// Event stream
	mux.HandleFunc("GET /api/workspaces/{id}/events", events.StreamWorkspace)
}
