// Package mode defines the closed set of per-mode difficulty constants.
//
// A mode is a bundle of skill configurations (decay rate, multiplier,
// strength function) plus the norm constants used to combine skill
// ratings into a composite. The set of modes is fixed at compile time;
// selection happens once, at calculator construction.
package mode

import (
	"errors"
	"fmt"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
)

// Calibration defaults shared by all profiles. These are starting points,
// not hard spec: every one of them can be overridden at construction.
const (
	// DefaultSectionWidth is the time between two strain sections in ms.
	DefaultSectionWidth = 400.0

	// DefaultDecayWeight is the rank-weight base used by the reducer:
	// the n-th highest section peak contributes peak * DecayWeight^n.
	DefaultDecayWeight = 0.9

	// DefaultNormExponent is the power-mean exponent combining per-skill
	// ratings into the composite.
	DefaultNormExponent = 1.1

	// DefaultStarScaling converts raw weighted sums to star-like ratings.
	DefaultStarScaling = 0.0668
)

// ErrUnknownMode reports a mode token with no registered profile.
var ErrUnknownMode = errors.New("unknown mode")

// Skill bundles the constants of one tracked skill.
type Skill struct {
	// Name identifies the skill in snapshots and raw-strain output.
	Name string

	// DecayBase is the fraction of strain remaining after 1000 ms.
	DecayBase float64

	// Multiplier scales each object's strength contribution.
	Multiplier float64

	strength func(o model.HitObject) float64
}

// Strength returns the raw contribution of o to this skill, before the
// multiplier is applied. Objects the skill does not care about yield zero.
func (s Skill) Strength(o model.HitObject) float64 {
	return s.strength(o)
}

// NewSkill builds a skill from explicit constants and a strength
// function. Intended for calibration experiments and tests; production
// modes use the prebuilt profiles.
func NewSkill(name string, decayBase, multiplier float64, strength func(model.HitObject) float64) Skill {
	return Skill{Name: name, DecayBase: decayBase, Multiplier: multiplier, strength: strength}
}

// Profile selects the decay rates, strength functions and norm constants
// for one game mode.
type Profile struct {
	Name         string
	Skills       []Skill
	SectionWidth float64
	DecayWeight  float64
	NormExponent float64
	StarScaling  float64
}

// Taiko returns the percussion-mode profile tracking the color, rhythm
// and stamina skills.
func Taiko() Profile {
	return Profile{
		Name: "taiko",
		Skills: []Skill{
			{Name: "color", DecayBase: 0.8, Multiplier: 0.12, strength: taikoColorStrength},
			{Name: "rhythm", DecayBase: 0.96, Multiplier: 10.0, strength: taikoRhythmStrength},
			{Name: "stamina", DecayBase: 0.4, Multiplier: 1.1, strength: taikoStaminaStrength},
		},
		SectionWidth: DefaultSectionWidth,
		DecayWeight:  DefaultDecayWeight,
		NormExponent: DefaultNormExponent,
		StarScaling:  DefaultStarScaling,
	}
}

// Standard returns the circle-mode profile tracking the aim and speed
// skills.
func Standard() Profile {
	return Profile{
		Name: "standard",
		Skills: []Skill{
			{Name: "aim", DecayBase: 0.15, Multiplier: 25.18, strength: standardAimStrength},
			{Name: "speed", DecayBase: 0.3, Multiplier: 1.43, strength: standardSpeedStrength},
		},
		SectionWidth: DefaultSectionWidth,
		DecayWeight:  DefaultDecayWeight,
		NormExponent: DefaultNormExponent,
		StarScaling:  DefaultStarScaling,
	}
}

// ByName maps a mode token to its profile.
func ByName(name string) (Profile, error) {
	switch name {
	case "taiko":
		return Taiko(), nil
	case "standard", "osu":
		return Standard(), nil
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Names lists the registered mode tokens.
func Names() []string {
	return []string{"taiko", "standard"}
}

func taikoColorStrength(o model.HitObject) float64 {
	switch o.Kind {
	case model.KindDon, model.KindKat:
		return o.Strength
	case model.KindFinisher:
		return o.Strength * 1.5
	default:
		return 0
	}
}

func taikoRhythmStrength(o model.HitObject) float64 {
	switch o.Kind {
	case model.KindDon, model.KindKat, model.KindFinisher:
		return o.Strength * 0.05
	default:
		return 0
	}
}

func taikoStaminaStrength(o model.HitObject) float64 {
	switch o.Kind {
	case model.KindDon, model.KindKat:
		return o.Strength
	case model.KindFinisher:
		// Finishers hit both drums; they load stamina twice.
		return o.Strength * 2
	default:
		return 0
	}
}

func standardAimStrength(o model.HitObject) float64 {
	switch o.Kind {
	case model.KindCircle:
		return o.Strength
	case model.KindSlider:
		return o.Strength * 1.3
	default:
		// Spinners require no aim.
		return 0
	}
}

func standardSpeedStrength(o model.HitObject) float64 {
	if o.Kind == model.KindSpinner {
		return 0
	}
	return o.Strength
}
