// Package mapgen generates synthetic hit-object streams for local
// verification and load testing.
//
// Generation is deterministic for a given seed so runs can be compared
// across machines and sessions.
package mapgen

import (
	"fmt"
	"math/rand"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
)

// Config controls a generated stream.
type Config struct {
	// Mode selects which kinds appear: "taiko" or "standard".
	Mode string

	// Count is the number of hit-objects to generate.
	Count int

	// BPM sets the base beat rate; objects snap to quarter and eighth
	// beats.
	BPM float64

	// Seed makes the stream reproducible.
	Seed int64

	// BreakChance is the probability per object of inserting a longer
	// gap, to produce empty strain sections.
	BreakChance float64
}

// Default generation constants.
const (
	defaultBPM         = 180.0
	defaultBreakChance = 0.02
	msPerMinute        = 60_000.0
	breakBeats         = 16
)

// Generate produces a timestamp-ordered stream of hit-objects.
func Generate(cfg Config) ([]model.HitObject, error) {
	if _, err := mode.ByName(cfg.Mode); err != nil {
		return nil, err
	}
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", cfg.Count)
	}
	if cfg.BPM <= 0 {
		cfg.BPM = defaultBPM
	}
	if cfg.BreakChance <= 0 {
		cfg.BreakChance = defaultBreakChance
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	beat := msPerMinute / cfg.BPM

	objs := make([]model.HitObject, cfg.Count)
	ts := 0.0
	for i := 0; i < cfg.Count; i++ {
		objs[i] = model.HitObject{
			Timestamp: ts,
			Kind:      pickKind(rng, cfg.Mode),
			Strength:  1.0,
		}

		// Snap the next object to a half or quarter beat, with the
		// occasional break.
		switch {
		case rng.Float64() < cfg.BreakChance:
			ts += beat * breakBeats
		case rng.Float64() < 0.5:
			ts += beat / 2
		default:
			ts += beat / 4
		}
	}
	return objs, nil
}

func pickKind(rng *rand.Rand, modeName string) model.Kind {
	if modeName == "taiko" {
		switch r := rng.Float64(); {
		case r < 0.05:
			return model.KindFinisher
		case r < 0.55:
			return model.KindDon
		default:
			return model.KindKat
		}
	}
	switch r := rng.Float64(); {
	case r < 0.02:
		return model.KindSpinner
	case r < 0.30:
		return model.KindSlider
	default:
		return model.KindCircle
	}
}
