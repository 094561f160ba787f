package handler

import (
	"net/http"

	"rapidsite/internal/httputil"
	"rapidsite/internal/presets"
)

// PresetsHandler serves the predefined design catalogs the UI renders as
// interactive pickers.
type PresetsHandler struct {
	registry *presets.Registry
}

// NewPresetsHandler creates a new presets handler.
func NewPresetsHandler(registry *presets.Registry) *PresetsHandler {
	return &PresetsHandler{registry: registry}
}

// ListPalettes returns all predefined color palettes
// GET /api/presets/palettes
func (h *PresetsHandler) ListPalettes(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.registry.Palettes())
}

// ListFontPairings returns all predefined font pairings
// GET /api/presets/fonts
func (h *PresetsHandler) ListFontPairings(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.registry.FontPairings())
}
