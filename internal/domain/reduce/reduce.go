// Package reduce turns closed sections into difficulty snapshots.
//
// The reduction is rank-weighted: per skill, section peaks are sorted
// descending and the n-th peak contributes peak * decayWeight^n. Because
// the weights depend on the full sorted order, the reduction re-runs
// from scratch whenever the closed-section set grows; it is never
// patched incrementally.
package reduce

import (
	"math"
	"sort"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/section"
)

// SkillRating is the reduced rating of one skill.
type SkillRating struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

// Snapshot is the externally visible result after folding some prefix of
// the stream. It is immutable once produced and safe to share by value.
type Snapshot struct {
	// Skills holds one rating per tracked skill, in profile order.
	Skills []SkillRating `json:"skills"`

	// Stars is the composite rating, a power mean over the skill
	// ratings.
	Stars float64 `json:"stars"`

	// Sections is the number of closed sections the snapshot was
	// reduced from.
	Sections int `json:"sections"`

	// Objects is the number of objects accounted for in those sections.
	Objects int `json:"objects"`
}

// Skill returns the rating of the named skill, or zero if untracked.
func (s Snapshot) Skill(name string) float64 {
	for _, r := range s.Skills {
		if r.Name == name {
			return r.Rating
		}
	}
	return 0
}

// Reduce computes a snapshot from closed sections. Reducing an empty
// sequence yields a zero-valued snapshot; this is a defined result, not
// an error.
func Reduce(sections []section.Closed, p mode.Profile) Snapshot {
	snap := Snapshot{
		Skills:   make([]SkillRating, len(p.Skills)),
		Sections: len(sections),
	}
	for i, sk := range p.Skills {
		snap.Skills[i].Name = sk.Name
	}
	for _, c := range sections {
		snap.Objects += c.ObjectCount
	}
	if len(sections) == 0 {
		return snap
	}

	var normSum float64
	peaks := make([]float64, len(sections))
	for i := range p.Skills {
		for j, c := range sections {
			peaks[j] = c.Peaks[i]
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(peaks)))

		sum := 0.0
		weight := 1.0
		for _, pk := range peaks {
			sum += pk * weight
			weight *= p.DecayWeight
		}

		rating := math.Sqrt(sum) * p.StarScaling
		snap.Skills[i].Rating = rating
		normSum += math.Pow(rating, p.NormExponent)
	}
	snap.Stars = math.Pow(normSum, 1/p.NormExponent)
	return snap
}
