// Package strain maintains decaying per-skill strain state.
//
// The accumulator is a pure numeric state machine: no I/O, no clocks.
// Each fold advances every tracked skill to the object's timestamp by
// exponential decay over the exact elapsed interval, then adds the
// object's contribution. Using the exact interval (rather than fixed
// ticks) keeps results independent of how the stream is chunked.
package strain

import (
	"errors"
	"fmt"
	"math"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
)

// epsilon is the clamp threshold: strains below it collapse to exact
// zero so long quiescent streams stay numerically stable.
const epsilon = 1e-10

// ErrNonMonotonicInput reports a timestamp regression in the object
// stream. The fold that detects it is not applied.
var ErrNonMonotonicInput = errors.New("non-monotonic input")

// Accumulator folds hit-objects into per-skill strain values.
// It is not safe for concurrent use; callers serialize access.
type Accumulator struct {
	skills  []mode.Skill
	strains []float64
	last    float64
	started bool
}

// New creates an accumulator tracking the profile's skills, all at zero
// strain.
func New(p mode.Profile) *Accumulator {
	return &Accumulator{
		skills:  p.Skills,
		strains: make([]float64, len(p.Skills)),
	}
}

// Fold advances every skill to o.Timestamp and adds o's contribution.
// A timestamp regression returns ErrNonMonotonicInput and leaves all
// state untouched; the accumulator remains usable for inspection but the
// stream is corrupt from the caller's point of view.
func (a *Accumulator) Fold(o model.HitObject) error {
	if o.Timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp %.3f", ErrNonMonotonicInput, o.Timestamp)
	}
	if a.started && o.Timestamp < a.last {
		return fmt.Errorf("%w: %.3fms after %.3fms", ErrNonMonotonicInput, o.Timestamp, a.last)
	}

	var dt float64
	if a.started {
		dt = o.Timestamp - a.last
	}
	for i, s := range a.skills {
		v := a.strains[i] * Decay(s.DecayBase, dt)
		v += s.Strength(o) * s.Multiplier
		if v < epsilon {
			v = 0
		}
		a.strains[i] = v
	}
	a.last = o.Timestamp
	a.started = true
	return nil
}

// Decay returns the strain multiplier remaining after dt milliseconds
// for a skill whose base is the fraction left after one second.
func Decay(base, dt float64) float64 {
	return math.Pow(base, dt/1000)
}

// Strains returns a copy of the per-skill strain values after the most
// recent fold, ordered as in the profile.
func (a *Accumulator) Strains() []float64 {
	out := make([]float64, len(a.strains))
	copy(out, a.strains)
	return out
}

// LastTimestamp returns the timestamp of the most recent fold, or zero
// before any object was folded.
func (a *Accumulator) LastTimestamp() float64 {
	return a.last
}

// SkillCount returns the number of tracked skills.
func (a *Accumulator) SkillCount() int {
	return len(a.skills)
}
