// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	app "github.com/RealistikOsu/akatsuki-pp-go/internal/app"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateCalculator(ctx context.Context, spec app.CalculatorSpec) (string, error)
	SubmitBatch(ctx context.Context, b model.Batch) (duplicate bool, err error)
	SnapshotAt(ctx context.Context, id string, k int) (reduce.Snapshot, error)
	LatestSnapshot(ctx context.Context, id string) (reduce.Snapshot, error)
	RawStrains(ctx context.Context, id string) (map[string][]float64, error)
	FinalizeCalculator(ctx context.Context, id string) (reduce.Snapshot, error)
	CalculatorProgress(ctx context.Context, id string) (app.Progress, error)
	RemoveCalculator(ctx context.Context, id string) error
}

// StatsProvider exposes loose service counters.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	calculatorsHandler *CalculatorsHandler
	batchesHandler     *BatchesHandler
	snapshotHandler    *SnapshotHandler
	strainsHandler     *StrainsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		calculatorsHandler: NewCalculatorsHandler(deps),
		batchesHandler:     NewBatchesHandler(deps),
		snapshotHandler:    NewSnapshotHandler(deps),
		strainsHandler:     NewStrainsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /calculators", MetricsMiddleware(s.calculatorsHandler.HandleCreate, "calculators_create"))
	mux.HandleFunc("DELETE /calculators/{id}", MetricsMiddleware(s.calculatorsHandler.HandleDelete, "calculators_delete"))
	mux.HandleFunc("POST /calculators/{id}/finalize", MetricsMiddleware(s.calculatorsHandler.HandleFinalize, "calculators_finalize"))
	mux.HandleFunc("GET /calculators/{id}/progress", MetricsMiddleware(s.calculatorsHandler.HandleProgress, "calculators_progress"))
	mux.HandleFunc("GET /calculators/{id}/snapshot", MetricsMiddleware(s.snapshotHandler.HandleGetSnapshot, "snapshot"))
	mux.HandleFunc("GET /calculators/{id}/strains", MetricsMiddleware(s.strainsHandler.HandleGetStrains, "strains"))

	mux.HandleFunc("POST /batches", MetricsMiddleware(s.batchesHandler.HandlePostBatch, "batches"))
}

// objectPayload mirrors the wire shape of a hit-object.
type objectPayload struct {
	T        float64 `json:"t"`
	Kind     string  `json:"kind"`
	Strength float64 `json:"strength,omitempty"`
}

// snapshotResponse mirrors a difficulty snapshot plus driver progress.
type snapshotResponse struct {
	Skills   []reduce.SkillRating `json:"skills"`
	Stars    float64              `json:"stars"`
	Sections int                  `json:"sections"`
	Objects  int                  `json:"objects"`
	Consumed int                  `json:"consumed"`
}

func newSnapshotResponse(snap reduce.Snapshot, consumed int) snapshotResponse {
	return snapshotResponse{
		Skills:   snap.Skills,
		Stars:    snap.Stars,
		Sections: snap.Sections,
		Objects:  snap.Objects,
		Consumed: consumed,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404 without tight
// coupling to the repository package.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// decodeJSON reads a request body into v with unknown-field rejection.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, err)
	}
	return nil
}
