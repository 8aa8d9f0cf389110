package handler

import (
	"net/http"

	models "visualexpr/internal/domain/models/expression"
	"visualexpr/internal/httputil"
)

// PaletteSource provides the settings new workspaces start from.
type PaletteSource interface {
	Defaults() models.Settings
}

// PaletteHandler serves the palette catalog
type PaletteHandler struct {
	source PaletteSource
}

// NewPaletteHandler creates a new palette handler
func NewPaletteHandler(source PaletteSource) *PaletteHandler {
	return &PaletteHandler{source: source}
}

// GetPalette returns the current catalog defaults
// GET /api/palette
func (h *PaletteHandler) GetPalette(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.source.Defaults())
}
