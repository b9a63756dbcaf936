// Package exclusive serializes a gradual calculator behind a single
// mutex for callers that want plain ownership semantics without the
// multi-observer machinery of the shared package: no snapshot cache, no
// coalescing, every read goes straight to the inner calculator.
package exclusive

import (
	"context"
	"sync"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/section"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/gradual"
)

// Calculator wraps a gradual.Calculator behind one mutex. It is safe
// for concurrent use, but readers queue behind in-flight drives instead
// of being served from a cache.
type Calculator struct {
	mu    sync.Mutex
	inner *gradual.Calculator
}

// Wrap takes ownership of inner.
func Wrap(inner *gradual.Calculator) *Calculator {
	return &Calculator{inner: inner}
}

// AdvanceTo drives the calculator until at least k objects have been
// consumed or the source drains, then returns the latest snapshot.
// ctx is checked between folds.
func (e *Calculator) AdvanceTo(ctx context.Context, k int) (reduce.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.inner.Consumed() < k {
		select {
		case <-ctx.Done():
			return e.latestLocked(), ctx.Err()
		default:
		}

		before := e.inner.Consumed()
		if _, err := e.inner.Advance(); err != nil {
			return e.latestLocked(), err
		}
		if e.inner.Consumed() == before {
			break
		}
	}
	return e.latestLocked(), nil
}

// Drain drives the calculator until its source has nothing more to
// offer, returning the latest snapshot.
func (e *Calculator) Drain(ctx context.Context) (reduce.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return e.latestLocked(), ctx.Err()
		default:
		}

		before := e.inner.Consumed()
		if _, err := e.inner.Advance(); err != nil {
			return e.latestLocked(), err
		}
		if e.inner.Consumed() == before {
			return e.latestLocked(), nil
		}
	}
}

// Finalize force-closes the pending section and returns the final
// snapshot. Idempotent; a failed calculator keeps returning its fold
// error.
func (e *Calculator) Finalize() (reduce.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.Finalize()
}

// Latest returns the most recent snapshot, zero before any section
// closed.
func (e *Calculator) Latest() reduce.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latestLocked()
}

// HasSnapshot reports whether any snapshot was produced yet.
func (e *Calculator) HasSnapshot() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inner.Latest()
	return ok
}

// Consumed returns the number of objects folded so far.
func (e *Calculator) Consumed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.Consumed()
}

// Exhausted reports whether Finalize has run.
func (e *Calculator) Exhausted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.Exhausted()
}

// RawSections returns the retained closed sections, nil unless the
// inner calculator was built with gradual.WithRawSections.
func (e *Calculator) RawSections() []section.Closed {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.RawSections()
}

// StrainPeaks returns per-skill peak vectors over all closed sections,
// nil unless raw sections are retained.
func (e *Calculator) StrainPeaks() map[string][]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.StrainPeaks()
}

func (e *Calculator) latestLocked() reduce.Snapshot {
	snap, _ := e.inner.Latest()
	return snap
}
