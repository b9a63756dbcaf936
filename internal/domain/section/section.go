// Package section buckets strain samples into fixed-width time sections.
//
// Sections tile the consumed time range: every bucket between the first
// and last observed timestamp gets exactly one closed record, including
// buckets no object fell into. The recorded value per skill is the
// maximum strain seen at any fold point inside the bucket.
package section

import "math"

// Closed is a frozen section. Once returned by the aggregator it is
// never mutated again.
type Closed struct {
	// Start is the inclusive lower bound of the bucket; the bucket
	// covers [Start, Start+width).
	Start float64

	// Peaks holds the per-skill maximum strain observed in the bucket,
	// ordered as in the profile. Empty buckets record zero.
	Peaks []float64

	// ObjectCount is the number of objects folded inside the bucket.
	ObjectCount int
}

// Aggregator rolls per-object strain samples into sections.
// It is not safe for concurrent use; callers serialize access.
type Aggregator struct {
	width  float64
	skills int

	open      bool
	finalized bool
	start     float64
	peaks     []float64
	count     int
}

// NewAggregator creates an aggregator producing sections of the given
// width in ms for the given number of skills.
func NewAggregator(width float64, skills int) *Aggregator {
	return &Aggregator{
		width:  width,
		skills: skills,
		peaks:  make([]float64, skills),
	}
}

// Observe rolls one fold result into the pending section. When ts lands
// past the pending bucket, the pending section closes and any skipped
// buckets are emitted as zero-strain records, so the closed sequence has
// no gaps. Returns the sections closed by this call, oldest first.
func (g *Aggregator) Observe(ts float64, strains []float64) []Closed {
	if !g.open {
		g.start = math.Floor(ts/g.width) * g.width
		g.open = true
	}

	var closed []Closed
	for ts >= g.start+g.width {
		closed = append(closed, g.close())
		g.start += g.width
	}

	for i, v := range strains {
		if v > g.peaks[i] {
			g.peaks[i] = v
		}
	}
	g.count++
	return closed
}

// Finalize force-closes the pending section at end of stream. It is
// idempotent: the second and later calls (and a call before anything was
// observed) return nil.
func (g *Aggregator) Finalize() *Closed {
	if !g.open || g.finalized {
		return nil
	}
	g.finalized = true
	c := g.close()
	return &c
}

// Pending returns the object count of the still-open section.
func (g *Aggregator) Pending() int {
	if g.finalized {
		return 0
	}
	return g.count
}

// Width returns the configured section width in ms.
func (g *Aggregator) Width() float64 {
	return g.width
}

func (g *Aggregator) close() Closed {
	c := Closed{
		Start:       g.start,
		Peaks:       g.peaks,
		ObjectCount: g.count,
	}
	g.peaks = make([]float64, g.skills)
	g.count = 0
	return c
}
