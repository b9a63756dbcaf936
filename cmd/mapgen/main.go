// Command mapgen generates a synthetic hit-object stream and either
// prints it as JSON or feeds it to a running difficulty service.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/mapgen"
)

const (
	defaultBatchSize = 100
	requestTimeout   = 10 * time.Second
)

type objectPayload struct {
	T        float64 `json:"t"`
	Kind     string  `json:"kind"`
	Strength float64 `json:"strength,omitempty"`
}

func main() {
	var (
		modeName    = flag.String("mode", "taiko", "game mode: taiko or standard")
		count       = flag.Int("count", 1000, "number of hit-objects")
		bpm         = flag.Float64("bpm", 180, "base beat rate")
		seed        = flag.Int64("seed", 42, "generation seed")
		modList     = flag.String("mods", "", "comma-separated mod acronyms, e.g. HD,DT")
		serverURL   = flag.String("url", "", "service base URL; when empty, print JSON to stdout")
		batchSize   = flag.Int("batch-size", defaultBatchSize, "objects per submitted batch")
		retainRaw   = flag.Bool("retain-raw", false, "create the calculator with raw section retention")
		finalizeMap = flag.Bool("finalize", true, "finalize the calculator after feeding")
	)
	flag.Parse()

	objs, err := mapgen.Generate(mapgen.Config{
		Mode:  *modeName,
		Count: *count,
		BPM:   *bpm,
		Seed:  *seed,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate:", err)
		os.Exit(1)
	}

	if *serverURL == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toPayload(objs)); err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := feed(ctx, *serverURL, *modeName, *modList, *retainRaw, *finalizeMap, objs, *batchSize); err != nil {
		fmt.Fprintln(os.Stderr, "feed:", err)
		os.Exit(1)
	}
}

func toPayload(objs []model.HitObject) []objectPayload {
	out := make([]objectPayload, len(objs))
	for i, o := range objs {
		out[i] = objectPayload{T: o.Timestamp, Kind: o.Kind.String(), Strength: o.Strength}
	}
	return out
}

// feed creates a calculator, submits the stream in batches and prints
// the final snapshot.
func feed(ctx context.Context, baseURL, modeName, modList string, retainRaw, finalize bool, objs []model.HitObject, batchSize int) error {
	client := &http.Client{Timeout: requestTimeout}

	createBody := map[string]any{
		"mode":                modeName,
		"retain_raw_sections": retainRaw,
	}
	if modList != "" {
		createBody["mods"] = strings.Split(modList, ",")
	}

	var created struct {
		ID string `json:"id"`
	}
	err := postJSON(ctx, client, baseURL+"/calculators", createBody, &created)
	if err != nil {
		return fmt.Errorf("create calculator: %w", err)
	}
	fmt.Println("calculator:", created.ID)

	for start := 0; start < len(objs); start += batchSize {
		end := start + batchSize
		if end > len(objs) {
			end = len(objs)
		}
		body := map[string]any{
			"batch_id":      uuid.NewString(),
			"calculator_id": created.ID,
			"objects":       toPayload(objs[start:end]),
		}
		if err := postJSON(ctx, client, baseURL+"/batches", body, nil); err != nil {
			return fmt.Errorf("submit batch at %d: %w", start, err)
		}
	}

	if !finalize {
		return nil
	}

	var snap json.RawMessage
	if err := postJSON(ctx, client, baseURL+"/calculators/"+created.ID+"/finalize", map[string]any{}, &snap); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	fmt.Println(string(snap))
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s: unexpected status %s", url, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
