package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/strain"
)

// SnapshotHandler serves difficulty snapshots.
type SnapshotHandler struct {
	deps Dependencies
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps Dependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

// HandleGetSnapshot handles GET /calculators/{id}/snapshot.
// With ?objects=K the calculator is driven forward (if needed) until K
// objects are consumed; without it the cached latest snapshot is
// returned without any driving.
func (h *SnapshotHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		snap reduce.Snapshot
		err  error
	)
	if raw := r.URL.Query().Get("objects"); raw != "" {
		k, perr := strconv.Atoi(raw)
		if perr != nil || k < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("objects must be a non-negative integer"))
			return
		}
		snap, err = h.deps.SnapshotAt(r.Context(), id, k)
	} else {
		snap, err = h.deps.LatestSnapshot(r.Context(), id)
	}

	if err != nil {
		switch {
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, strain.ErrNonMonotonicInput):
			writeError(w, http.StatusUnprocessableEntity, "non_monotonic_input", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal", err)
		}
		return
	}

	progress, perr := h.deps.CalculatorProgress(r.Context(), id)
	if perr != nil {
		writeError(w, http.StatusInternalServerError, "internal", perr)
		return
	}

	writeJSON(w, http.StatusOK, newSnapshotResponse(snap, progress.Consumed))
}
