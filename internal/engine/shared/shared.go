// Package shared lets multiple observers consume one gradual calculator
// without duplicating computation.
//
// All driving of the wrapped calculator funnels through a single mutex;
// there is never more than one mutator at a time. Snapshot values are
// immutable, so the latest one is cached behind a read-write lock and
// served to any number of concurrent readers without touching the drive
// gate. Observers racing to the same object count coalesce: whoever
// arrives after the work is done returns the cached result.
package shared

import (
	"context"
	"sync"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/section"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/gradual"
)

// Calculator wraps a gradual.Calculator for shared consumption. The
// wrapper takes exclusive ownership of the inner calculator; callers
// must not drive it directly afterwards.
type Calculator struct {
	mu    sync.Mutex // serializes all driving of inner
	inner *gradual.Calculator

	snapMu  sync.RWMutex // guards latest for non-blocking reads
	latest  reduce.Snapshot
	hasSnap bool
}

// Wrap takes ownership of inner.
func Wrap(inner *gradual.Calculator) *Calculator {
	s := &Calculator{inner: inner}
	if snap, ok := inner.Latest(); ok {
		s.latest = snap
		s.hasSnap = true
	}
	return s
}

// AdvanceTo drives the calculator forward until at least k objects have
// been consumed, then returns the latest snapshot. If the source drains
// before k is reached, it returns whatever progress was made. Callers
// already satisfied by earlier work return the cached snapshot without
// re-driving anything.
//
// ctx is checked between folds; one fold is the atomic unit of work.
func (s *Calculator) AdvanceTo(ctx context.Context, k int) (reduce.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.inner.Consumed() < k {
		select {
		case <-ctx.Done():
			return s.Latest(), ctx.Err()
		default:
		}

		before := s.inner.Consumed()
		snap, err := s.inner.Advance()
		if snap != nil {
			s.store(*snap)
		}
		if err != nil {
			return s.Latest(), err
		}
		if s.inner.Consumed() == before {
			// Source drained; nothing more to do for now.
			break
		}
	}
	return s.Latest(), nil
}

// Drain drives the calculator until its source has nothing more to
// offer, returning the latest snapshot.
func (s *Calculator) Drain(ctx context.Context) (reduce.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return s.Latest(), ctx.Err()
		default:
		}

		before := s.inner.Consumed()
		snap, err := s.inner.Advance()
		if snap != nil {
			s.store(*snap)
		}
		if err != nil {
			return s.Latest(), err
		}
		if s.inner.Consumed() == before {
			return s.Latest(), nil
		}
	}
}

// Finalize force-closes the pending section and caches the final
// snapshot. Idempotent, like the underlying calculator's Finalize; a
// failed calculator keeps returning its fold error.
func (s *Calculator) Finalize() (reduce.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.inner.Finalize()
	if err != nil {
		return s.Latest(), err
	}
	s.store(snap)
	return snap, nil
}

// Latest returns the most recently cached snapshot without blocking on
// in-flight drives. Before any section closed it returns a zero
// snapshot.
func (s *Calculator) Latest() reduce.Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.latest
}

// HasSnapshot reports whether any snapshot was produced yet.
func (s *Calculator) HasSnapshot() bool {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.hasSnap
}

// Consumed returns the number of objects folded so far.
func (s *Calculator) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Consumed()
}

// Exhausted reports whether Finalize has run.
func (s *Calculator) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Exhausted()
}

// RawSections returns the retained closed sections, nil unless the inner
// calculator was built with gradual.WithRawSections.
func (s *Calculator) RawSections() []section.Closed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.RawSections()
}

// StrainPeaks returns per-skill peak vectors over all closed sections,
// nil unless raw sections are retained.
func (s *Calculator) StrainPeaks() map[string][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.StrainPeaks()
}

func (s *Calculator) store(snap reduce.Snapshot) {
	s.snapMu.Lock()
	s.latest = snap
	s.hasSnap = true
	s.snapMu.Unlock()
}
