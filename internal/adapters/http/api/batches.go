package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	app "github.com/RealistikOsu/akatsuki-pp-go/internal/app"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
)

// BatchesHandler handles hit-object batch submissions.
type BatchesHandler struct {
	deps Dependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps Dependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

// batchRequest mirrors the POST /batches body.
type batchRequest struct {
	BatchID      string          `json:"batch_id"`
	CalculatorID string          `json:"calculator_id"`
	Objects      []objectPayload `json:"objects"`
}

func (b batchRequest) validate() error {
	switch {
	case strings.TrimSpace(b.BatchID) == "":
		return errors.New("missing batch_id")
	case strings.TrimSpace(b.CalculatorID) == "":
		return errors.New("missing calculator_id")
	case len(b.Objects) == 0:
		return errors.New("missing objects")
	}

	last := -1.0
	for i, o := range b.Objects {
		if _, ok := model.KindFromString(o.Kind); !ok {
			return fmt.Errorf("object %d: unknown kind %q", i, o.Kind)
		}
		if o.T < 0 {
			return fmt.Errorf("object %d: negative timestamp", i)
		}
		if o.T < last {
			return fmt.Errorf("object %d: timestamps must be non-decreasing", i)
		}
		if o.Strength < 0 {
			return fmt.Errorf("object %d: negative strength", i)
		}
		last = o.T
	}
	return nil
}

func (b batchRequest) toModel() model.Batch {
	objs := make([]model.HitObject, len(b.Objects))
	for i, o := range b.Objects {
		kind, _ := model.KindFromString(o.Kind)
		strength := o.Strength
		if strength == 0 {
			strength = 1.0
		}
		objs[i] = model.HitObject{Timestamp: o.T, Kind: kind, Strength: strength}
	}
	return model.Batch{
		BatchID:      b.BatchID,
		CalculatorID: b.CalculatorID,
		Objects:      objs,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostBatch handles POST /batches.
func (h *BatchesHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	duplicate, err := h.deps.SubmitBatch(r.Context(), req.toModel())
	if err != nil {
		switch {
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, app.ErrBackpressure):
			writeError(w, http.StatusServiceUnavailable, "backpressure", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal", err)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: duplicate})
}
