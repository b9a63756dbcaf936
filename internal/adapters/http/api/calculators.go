package api

import (
	"errors"
	"net/http"
	"strings"

	app "github.com/RealistikOsu/akatsuki-pp-go/internal/app"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
)

// CalculatorsHandler handles calculator lifecycle requests.
type CalculatorsHandler struct {
	deps Dependencies
}

// NewCalculatorsHandler creates a new calculators handler.
func NewCalculatorsHandler(deps Dependencies) *CalculatorsHandler {
	return &CalculatorsHandler{deps: deps}
}

// createCalculatorRequest mirrors the POST /calculators body.
type createCalculatorRequest struct {
	Mode           string   `json:"mode"`
	Mods           []string `json:"mods,omitempty"`
	SectionWidthMS float64  `json:"section_width_ms,omitempty"`
	RetainRaw      *bool    `json:"retain_raw_sections,omitempty"`
}

func (c createCalculatorRequest) validate() error {
	if strings.TrimSpace(c.Mode) == "" {
		return errors.New("missing mode")
	}
	if c.SectionWidthMS < 0 {
		return errors.New("section_width_ms must not be negative")
	}
	return nil
}

type createCalculatorResponse struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
}

// HandleCreate handles POST /calculators.
func (h *CalculatorsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCalculatorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	id, err := h.deps.CreateCalculator(r.Context(), app.CalculatorSpec{
		Mode:           req.Mode,
		Mods:           req.Mods,
		SectionWidthMS: req.SectionWidthMS,
		RetainRaw:      req.RetainRaw,
	})
	if err != nil {
		if errors.Is(err, mode.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, "unknown_mode", err)
			return
		}
		if errors.Is(err, mode.ErrUnknownMod) {
			writeError(w, http.StatusBadRequest, "unknown_mod", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	writeJSON(w, http.StatusCreated, createCalculatorResponse{ID: id, Mode: req.Mode})
}

// HandleDelete handles DELETE /calculators/{id}.
func (h *CalculatorsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.deps.RemoveCalculator(r.Context(), id); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFinalize handles POST /calculators/{id}/finalize. The response
// is the final snapshot; repeating the call returns the same snapshot.
func (h *CalculatorsHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.deps.FinalizeCalculator(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "finalize_failed", err)
		return
	}

	progress, err := h.deps.CalculatorProgress(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotResponse(snap, progress.Consumed))
}

type progressResponse struct {
	Consumed  int  `json:"consumed"`
	Exhausted bool `json:"exhausted"`
}

// HandleProgress handles GET /calculators/{id}/progress.
func (h *CalculatorsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	progress, err := h.deps.CalculatorProgress(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{
		Consumed:  progress.Consumed,
		Exhausted: progress.Exhausted,
	})
}
