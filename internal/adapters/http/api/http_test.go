package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/adapters/http/api"
	service "github.com/RealistikOsu/akatsuki-pp-go/internal/app"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/strain"
	"github.com/RealistikOsu/akatsuki-pp-go/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	svc := service.New(service.WithWorkerCount(2))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func createCalculator(t *testing.T, ts *httptest.Server, body map[string]any) string {
	t.Helper()
	status, resp := doJSON(t, http.MethodPost, ts.URL+"/calculators", body)
	if status != http.StatusCreated {
		t.Fatalf("create calculator: status %d, resp %v", status, resp)
	}
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatalf("create calculator: missing id in %v", resp)
	}
	return id
}

func taikoObjects(n int, stepMS float64) []map[string]any {
	objs := make([]map[string]any, n)
	kinds := []string{"don", "kat"}
	for i := range objs {
		objs[i] = map[string]any{"t": float64(i) * stepMS, "kind": kinds[i%2]}
	}
	return objs
}

func waitConsumed(t *testing.T, ts *httptest.Server, id string, want float64) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status, resp := doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/progress", nil)
		if status != http.StatusOK {
			t.Fatalf("progress: status %d", status)
		}
		if consumed, _ := resp["consumed"].(float64); consumed >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("calculator %s never consumed %v objects", id, want)
}

func TestCalculatorLifecycle(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer(t)

		Convey("When a taiko calculator is created and fed a batch", func() {
			id := createCalculator(t, ts, map[string]any{"mode": "taiko"})

			status, resp := doJSON(t, http.MethodPost, ts.URL+"/batches", map[string]any{
				"batch_id":      "b1",
				"calculator_id": id,
				"objects":       taikoObjects(40, 150),
			})
			So(status, ShouldEqual, http.StatusAccepted)
			So(resp["status"], ShouldEqual, "accepted")
			So(resp["duplicate"], ShouldEqual, false)
			waitConsumed(t, ts, id, 40)

			Convey("Then the snapshot endpoint serves difficulty", func() {
				status, snap := doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/snapshot", nil)
				So(status, ShouldEqual, http.StatusOK)
				So(snap["stars"], ShouldBeGreaterThan, 0)
				So(snap["sections"], ShouldBeGreaterThan, 0)
			})

			Convey("And snapshots can target an object count", func() {
				status, snap := doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/snapshot?objects=20", nil)
				So(status, ShouldEqual, http.StatusOK)
				So(snap["consumed"], ShouldEqual, 40)
			})

			Convey("And resubmitting the same batch is acknowledged as duplicate", func() {
				status, resp := doJSON(t, http.MethodPost, ts.URL+"/batches", map[string]any{
					"batch_id":      "b1",
					"calculator_id": id,
					"objects":       taikoObjects(40, 150),
				})
				So(status, ShouldEqual, http.StatusAccepted)
				So(resp["duplicate"], ShouldEqual, true)
			})

			Convey("And finalize returns a stable snapshot", func() {
				status, first := doJSON(t, http.MethodPost, ts.URL+"/calculators/"+id+"/finalize", nil)
				So(status, ShouldEqual, http.StatusOK)
				So(first["objects"], ShouldEqual, 40)

				status, second := doJSON(t, http.MethodPost, ts.URL+"/calculators/"+id+"/finalize", nil)
				So(status, ShouldEqual, http.StatusOK)
				So(second["stars"], ShouldEqual, first["stars"])
			})

			Convey("And deleting the calculator frees its ID", func() {
				status, _ := doJSON(t, http.MethodDelete, ts.URL+"/calculators/"+id, nil)
				So(status, ShouldEqual, http.StatusNoContent)

				status, _ = doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/progress", nil)
				So(status, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestValidationAndErrors(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer(t)

		Convey("When creating with an unknown mode", func() {
			status, resp := doJSON(t, http.MethodPost, ts.URL+"/calculators", map[string]any{"mode": "mania"})

			Convey("Then the mode is rejected", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
				So(resp["code"], ShouldEqual, "unknown_mode")
			})
		})

		Convey("When creating with an unknown mod", func() {
			status, resp := doJSON(t, http.MethodPost, ts.URL+"/calculators", map[string]any{
				"mode": "taiko",
				"mods": []string{"DT", "QQ"},
			})

			Convey("Then the mod list is rejected", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
				So(resp["code"], ShouldEqual, "unknown_mod")
			})
		})

		Convey("When creating with a recognized mod list", func() {
			id := createCalculator(t, ts, map[string]any{"mode": "taiko", "mods": []string{"hd", "dt"}})

			Convey("Then the calculator works normally", func() {
				status, resp := doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/progress", nil)
				So(status, ShouldEqual, http.StatusOK)
				So(resp["consumed"], ShouldEqual, 0)
			})
		})

		Convey("When posting a batch for an unknown calculator", func() {
			status, resp := doJSON(t, http.MethodPost, ts.URL+"/batches", map[string]any{
				"batch_id":      "b1",
				"calculator_id": "missing",
				"objects":       taikoObjects(1, 100),
			})

			Convey("Then it 404s", func() {
				So(status, ShouldEqual, http.StatusNotFound)
				So(resp["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When posting a batch with decreasing timestamps", func() {
			id := createCalculator(t, ts, map[string]any{"mode": "taiko"})
			status, resp := doJSON(t, http.MethodPost, ts.URL+"/batches", map[string]any{
				"batch_id":      "b1",
				"calculator_id": id,
				"objects": []map[string]any{
					{"t": 100.0, "kind": "don"},
					{"t": 50.0, "kind": "kat"},
				},
			})

			Convey("Then validation rejects it before queueing", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
				So(resp["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When posting a batch with an unknown object kind", func() {
			id := createCalculator(t, ts, map[string]any{"mode": "taiko"})
			status, _ := doJSON(t, http.MethodPost, ts.URL+"/batches", map[string]any{
				"batch_id":      "b1",
				"calculator_id": id,
				"objects":       []map[string]any{{"t": 0.0, "kind": "banana"}},
			})

			Convey("Then validation rejects it", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting a snapshot with a malformed objects param", func() {
			id := createCalculator(t, ts, map[string]any{"mode": "taiko"})
			status, _ := doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/snapshot?objects=lots", nil)

			Convey("Then the query is rejected", func() {
				So(status, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When asking for strains without raw retention", func() {
			id := createCalculator(t, ts, map[string]any{"mode": "taiko"})
			status, resp := doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/strains", nil)

			Convey("Then the conflict is reported", func() {
				So(status, ShouldEqual, http.StatusConflict)
				So(resp["code"], ShouldEqual, "raw_not_retained")
			})
		})
	})
}

func TestStrainsEndpoint(t *testing.T) {
	Convey("Given a calculator retaining raw sections", t, func() {
		ts := newTestServer(t)
		id := createCalculator(t, ts, map[string]any{"mode": "standard", "retain_raw_sections": true})

		status, _ := doJSON(t, http.MethodPost, ts.URL+"/batches", map[string]any{
			"batch_id":      "raw",
			"calculator_id": id,
			"objects": []map[string]any{
				{"t": 0.0, "kind": "circle"},
				{"t": 500.0, "kind": "slider"},
				{"t": 1000.0, "kind": "circle"},
			},
		})
		So(status, ShouldEqual, http.StatusAccepted)
		waitConsumed(t, ts, id, 3)

		Convey("When strains are requested", func() {
			status, resp := doJSON(t, http.MethodGet, ts.URL+"/calculators/"+id+"/strains", nil)

			Convey("Then per-skill peak vectors come back", func() {
				So(status, ShouldEqual, http.StatusOK)
				peaks, ok := resp["peaks"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(peaks, ShouldContainKey, "aim")
				So(peaks, ShouldContainKey, "speed")
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer(t)

		Convey("When probing health", func() {
			status, resp := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)

			Convey("Then it reports ok", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(resp["status"], ShouldEqual, "ok")
			})
		})

		Convey("When fetching stats", func() {
			status, resp := doJSON(t, http.MethodGet, ts.URL+"/stats", nil)

			Convey("Then the counters are exposed", func() {
				So(status, ShouldEqual, http.StatusOK)
				So(resp, ShouldContainKey, "calculators")
				So(resp, ShouldContainKey, "queueLength")
			})
		})

		Convey("When scraping metrics", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)

			Convey("Then the engine metrics are present", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "akatsuki_diffcalc_")
			})
		})

		Convey("When hitting a route with the wrong method", func() {
			status, _ := doJSON(t, http.MethodPut, ts.URL+"/calculators", map[string]any{"mode": "taiko"})

			Convey("Then the mux rejects it", func() {
				So(status, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

// stubDeps lets handler error mapping be exercised without timing games.
type stubDeps struct {
	submitErr   error
	snapshotErr error
}

func (s *stubDeps) CreateCalculator(context.Context, service.CalculatorSpec) (string, error) {
	return "stub", nil
}

func (s *stubDeps) SubmitBatch(context.Context, model.Batch) (bool, error) {
	return false, s.submitErr
}

func (s *stubDeps) SnapshotAt(context.Context, string, int) (reduce.Snapshot, error) {
	return reduce.Snapshot{}, s.snapshotErr
}

func (s *stubDeps) LatestSnapshot(context.Context, string) (reduce.Snapshot, error) {
	return reduce.Snapshot{}, s.snapshotErr
}

func (s *stubDeps) RawStrains(context.Context, string) (map[string][]float64, error) {
	return nil, nil
}

func (s *stubDeps) FinalizeCalculator(context.Context, string) (reduce.Snapshot, error) {
	return reduce.Snapshot{}, nil
}

func (s *stubDeps) CalculatorProgress(context.Context, string) (service.Progress, error) {
	return service.Progress{}, nil
}

func (s *stubDeps) RemoveCalculator(context.Context, string) error { return nil }

func (s *stubDeps) GetStats(context.Context) map[string]any { return map[string]any{} }

func stubServer(t *testing.T, deps *stubDeps) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestErrorMapping(t *testing.T) {
	Convey("Given handlers over a failing service", t, func() {
		Convey("When submission hits backpressure", func() {
			ts := stubServer(t, &stubDeps{submitErr: service.ErrBackpressure})
			status, resp := doJSON(t, http.MethodPost, ts.URL+"/batches", map[string]any{
				"batch_id":      "b1",
				"calculator_id": "stub",
				"objects":       taikoObjects(1, 100),
			})

			Convey("Then the client is told to back off", func() {
				So(status, ShouldEqual, http.StatusServiceUnavailable)
				So(resp["code"], ShouldEqual, "backpressure")
			})
		})

		Convey("When a snapshot trips on out-of-order input", func() {
			ts := stubServer(t, &stubDeps{
				snapshotErr: fmt.Errorf("drain: %w", strain.ErrNonMonotonicInput),
			})
			status, resp := doJSON(t, http.MethodGet, ts.URL+"/calculators/stub/snapshot", nil)

			Convey("Then the stream fault is surfaced as unprocessable", func() {
				So(status, ShouldEqual, http.StatusUnprocessableEntity)
				So(resp["code"], ShouldEqual, "non_monotonic_input")
			})
		})
	})
}
