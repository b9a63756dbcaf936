// Package gradual drives the strain pipeline over a hit-object stream
// one object at a time.
//
// A Calculator owns its accumulator, aggregator and closed-section
// sequence exclusively. It does no internal synchronization and performs
// no background work: computation happens only inside Advance, AdvanceN
// and Finalize. For cross-thread use, wrap it with the shared or
// exclusive package.
package gradual

import (
	"errors"
	"fmt"
	"time"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/section"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/strain"
)

// ErrFailed reports that an earlier fold error made the calculator
// unusable. Replaying requires a fresh calculator; state is never
// restartable.
var ErrFailed = errors.New("calculator failed")

// Source supplies hit-objects in timestamp order.
type Source interface {
	// Next returns the next object, or false when none is available
	// right now. A Source may grow between calls; returning false is
	// not necessarily the end of the map.
	Next() (model.HitObject, bool)
}

type state int

const (
	stateEmpty state = iota
	stateStreaming
	stateExhausted
	stateFailed
)

// Option configures a Calculator at construction.
type Option func(*Calculator)

// WithRawSections retains every closed section for inspection through
// RawSections and StrainPeaks.
func WithRawSections() Option {
	return func(c *Calculator) {
		c.retainRaw = true
	}
}

// WithSectionWidth overrides the profile's section width in ms.
func WithSectionWidth(width float64) Option {
	return func(c *Calculator) {
		if width > 0 {
			c.width = width
		}
	}
}

// WithClockRate compresses object timestamps by the given playback rate
// before folding, so a 1.5x rate yields the strain pattern of the map
// played half again as fast. Rates at or below zero are ignored.
func WithClockRate(rate float64) Option {
	return func(c *Calculator) {
		if rate > 0 {
			c.clockRate = rate
		}
	}
}

// WithReduceObserver registers a callback invoked with the wall-clock
// duration of every reduction pass.
func WithReduceObserver(fn func(time.Duration)) Option {
	return func(c *Calculator) {
		c.onReduce = fn
	}
}

// Calculator incrementally re-evaluates difficulty as objects are
// revealed. Results after consuming N objects are identical to a
// one-shot computation over the same first N objects.
type Calculator struct {
	profile   mode.Profile
	width     float64
	retainRaw bool
	clockRate float64
	onReduce  func(time.Duration)

	source Source
	acc    *strain.Accumulator
	agg    *section.Aggregator

	closed   []section.Closed
	consumed int
	st       state
	err      error

	latest  reduce.Snapshot
	hasSnap bool
}

// New creates a calculator for the given profile reading from src.
func New(p mode.Profile, src Source, opts ...Option) *Calculator {
	c := &Calculator{
		profile:   p,
		width:     p.SectionWidth,
		clockRate: 1.0,
		source:    src,
		acc:       strain.New(p),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.agg = section.NewAggregator(c.width, len(p.Skills))
	return c
}

// Advance consumes exactly one object from the source, folds it and
// rolls it into the pending section. It returns a fresh snapshot when at
// least one section closed, nil when the fold stayed inside the pending
// section, when the source has nothing available, or after Finalize.
//
// A fold error (timestamp regression) is returned immediately; no
// partial fold is applied and the calculator refuses further work.
func (c *Calculator) Advance() (*reduce.Snapshot, error) {
	switch c.st {
	case stateFailed:
		return nil, fmt.Errorf("%w: %s", ErrFailed, c.err)
	case stateExhausted:
		return nil, nil
	}

	o, ok := c.source.Next()
	if !ok {
		return nil, nil
	}
	o.Timestamp /= c.clockRate
	if err := c.acc.Fold(o); err != nil {
		c.st = stateFailed
		c.err = err
		return nil, err
	}
	c.st = stateStreaming
	c.consumed++

	newly := c.agg.Observe(o.Timestamp, c.acc.Strains())
	if len(newly) == 0 {
		return nil, nil
	}
	c.closed = append(c.closed, newly...)

	snap := c.reduceAll()
	return &snap, nil
}

// AdvanceN repeats Advance up to n times, stopping early when the source
// runs dry or a fold fails. It returns the last snapshot produced, which
// is nil when no section closed along the way.
func (c *Calculator) AdvanceN(n int) (*reduce.Snapshot, error) {
	var last *reduce.Snapshot
	for i := 0; i < n; i++ {
		before := c.consumed
		snap, err := c.Advance()
		if err != nil {
			return last, err
		}
		if snap != nil {
			last = snap
		}
		if c.consumed == before {
			break
		}
	}
	return last, nil
}

// Finalize force-closes the pending section, reduces one last time and
// transitions the calculator to its terminal state. It is idempotent;
// every call returns the same final snapshot. After Finalize, Advance
// always returns nil. A failed calculator keeps returning the fold
// error that broke it.
func (c *Calculator) Finalize() (reduce.Snapshot, error) {
	switch c.st {
	case stateFailed:
		return reduce.Snapshot{}, fmt.Errorf("%w: %s", ErrFailed, c.err)
	case stateExhausted:
		return c.latest, nil
	}
	if last := c.agg.Finalize(); last != nil {
		c.closed = append(c.closed, *last)
	}
	snap := c.reduceAll()
	c.st = stateExhausted
	return snap, nil
}

// Latest returns the most recent snapshot and whether one exists yet.
func (c *Calculator) Latest() (reduce.Snapshot, bool) {
	return c.latest, c.hasSnap
}

// Consumed returns the number of objects folded so far.
func (c *Calculator) Consumed() int {
	return c.consumed
}

// Exhausted reports whether Finalize has run.
func (c *Calculator) Exhausted() bool {
	return c.st == stateExhausted
}

// Profile returns the mode profile the calculator was built with.
func (c *Calculator) Profile() mode.Profile {
	return c.profile
}

// RawSections returns a copy of every closed section, oldest first.
// It returns nil unless WithRawSections was set.
func (c *Calculator) RawSections() []section.Closed {
	if !c.retainRaw {
		return nil
	}
	out := make([]section.Closed, len(c.closed))
	copy(out, c.closed)
	return out
}

// StrainPeaks returns the per-skill peak vectors over all closed
// sections, keyed by skill name; suitable to plot difficulty over time.
// It returns nil unless WithRawSections was set.
func (c *Calculator) StrainPeaks() map[string][]float64 {
	if !c.retainRaw {
		return nil
	}
	out := make(map[string][]float64, len(c.profile.Skills))
	for i, sk := range c.profile.Skills {
		peaks := make([]float64, len(c.closed))
		for j, cl := range c.closed {
			peaks[j] = cl.Peaks[i]
		}
		out[sk.Name] = peaks
	}
	return out
}

func (c *Calculator) reduceAll() reduce.Snapshot {
	start := time.Now()
	snap := reduce.Reduce(c.closed, c.profile)
	if c.onReduce != nil {
		c.onReduce(time.Since(start))
	}
	c.latest = snap
	c.hasSnap = true
	return snap
}

// Compute runs the whole pipeline over objs in one shot and returns the
// final snapshot. It is the non-incremental reference path: driving a
// fresh calculator object by object and finalizing yields the same
// result.
func Compute(p mode.Profile, objs []model.HitObject, opts ...Option) (reduce.Snapshot, error) {
	c := New(p, NewSliceSource(objs), opts...)
	for {
		before := c.consumed
		if _, err := c.Advance(); err != nil {
			return reduce.Snapshot{}, err
		}
		if c.consumed == before {
			break
		}
	}
	return c.Finalize()
}
