package api

import (
	"errors"
	"net/http"

	app "github.com/RealistikOsu/akatsuki-pp-go/internal/app"
)

// StrainsHandler serves raw per-section strain peaks.
type StrainsHandler struct {
	deps Dependencies
}

// NewStrainsHandler creates a new strains handler.
func NewStrainsHandler(deps Dependencies) *StrainsHandler {
	return &StrainsHandler{deps: deps}
}

type strainsResponse struct {
	Peaks map[string][]float64 `json:"peaks"`
}

// HandleGetStrains handles GET /calculators/{id}/strains. Only
// calculators created with retain_raw_sections expose their sections.
func (h *StrainsHandler) HandleGetStrains(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	peaks, err := h.deps.RawStrains(r.Context(), id)
	if err != nil {
		switch {
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, app.ErrRawNotRetained):
			writeError(w, http.StatusConflict, "raw_not_retained", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, strainsResponse{Peaks: peaks})
}
