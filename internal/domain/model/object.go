// Package model contains domain values passed between layers.
package model

// Kind identifies the rhythmic event type of a hit-object. The set is
// closed; which kinds actually occur depends on the selected mode.
type Kind int

// Hit-object kinds across the supported modes.
const (
	// Standard-mode kinds.
	KindCircle Kind = iota
	KindSlider
	KindSpinner

	// Taiko-mode kinds.
	KindDon
	KindKat
	KindFinisher
)

// String returns the lowercase token used on the wire and in logs.
func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSlider:
		return "slider"
	case KindSpinner:
		return "spinner"
	case KindDon:
		return "don"
	case KindKat:
		return "kat"
	case KindFinisher:
		return "finisher"
	default:
		return "unknown"
	}
}

// KindFromString parses a wire token into a Kind.
// Returns false for unrecognized tokens.
func KindFromString(s string) (Kind, bool) {
	switch s {
	case "circle":
		return KindCircle, true
	case "slider":
		return KindSlider, true
	case "spinner":
		return KindSpinner, true
	case "don":
		return KindDon, true
	case "kat":
		return KindKat, true
	case "finisher":
		return KindFinisher, true
	default:
		return 0, false
	}
}

// HitObject is one timed rhythmic event of a beatmap. Timestamps are
// milliseconds from map start and must be non-decreasing across a stream.
// Objects are immutable once produced and owned by the caller.
type HitObject struct {
	Timestamp float64 // ms from map start
	Kind      Kind
	Strength  float64 // mode-specific weight, usually 1.0
}

// Batch groups hit-objects submitted for one calculator. BatchID makes
// submission idempotent.
type Batch struct {
	BatchID      string
	CalculatorID string
	Objects      []HitObject
}
