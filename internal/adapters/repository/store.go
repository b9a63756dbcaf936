// Package repository stores live calculators keyed by ID.
package repository

import (
	"context"
	"time"

	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/section"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/gradual"
)

// Driver is a concurrency wrapper around a gradual calculator. Both the
// shared multi-observer wrapper and the exclusive single-owner wrapper
// satisfy it.
type Driver interface {
	AdvanceTo(ctx context.Context, k int) (reduce.Snapshot, error)
	Drain(ctx context.Context) (reduce.Snapshot, error)
	Finalize() (reduce.Snapshot, error)
	Latest() reduce.Snapshot
	HasSnapshot() bool
	Consumed() int
	Exhausted() bool
	RawSections() []section.Closed
	StrainPeaks() map[string][]float64
}

// Record is one registered calculator with its submission buffer and
// creation metadata.
type Record struct {
	ID        string
	Mode      string
	Mods      []string
	CreatedAt time.Time
	RetainRaw bool

	// Calc is the wrapper all observers go through.
	Calc Driver

	// Buffer is the appendable source feeding Calc.
	Buffer *gradual.Buffer
}

// Store provides access to registered calculators.
type Store interface {
	// Put registers rec under rec.ID, replacing any previous record.
	Put(ctx context.Context, rec *Record) error

	// Get returns the record for id.
	// Returns ErrNotFound if the calculator is unknown.
	Get(ctx context.Context, id string) (*Record, error)

	// Delete removes the record for id. Deleting an unknown id is a
	// no-op.
	Delete(ctx context.Context, id string) error

	// Count returns the number of registered calculators.
	Count(ctx context.Context) int

	// IDs returns the IDs of all registered calculators, unordered.
	IDs(ctx context.Context) []string
}
