// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	batchqueue "github.com/RealistikOsu/akatsuki-pp-go/internal/adapters/mq/queue"
	workerpool "github.com/RealistikOsu/akatsuki-pp-go/internal/adapters/mq/worker"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/adapters/repository"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/dedupe"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/mode"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/model"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/domain/reduce"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/exclusive"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/gradual"
	"github.com/RealistikOsu/akatsuki-pp-go/internal/engine/shared"
	"github.com/RealistikOsu/akatsuki-pp-go/pkg/logger"
	"github.com/RealistikOsu/akatsuki-pp-go/pkg/metrics"
)

// CalculatorSpec carries per-calculator creation parameters. Zero values
// fall back to service-wide settings.
type CalculatorSpec struct {
	// Mode selects the profile: "taiko" or "standard".
	Mode string

	// Mods lists gameplay modifier acronyms ("DT", "HT", ...). Rate
	// mods compress the object timeline before folding.
	Mods []string

	// SectionWidthMS overrides the section width; 0 keeps the default.
	SectionWidthMS float64

	// RetainRaw keeps closed sections for strain inspection; nil keeps
	// the service default.
	RetainRaw *bool
}

// Progress reports how far a calculator has come.
type Progress struct {
	Consumed  int
	Exhausted bool
}

// Service owns the calculator registry, the submission queue and the
// worker pool that drives calculators forward.
type Service struct {
	mu sync.Mutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *batchqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	shardCount  int

	sectionWidth float64
	decayWeight  float64
	normExponent float64
	starScaling  float64
	decayRates   map[string]float64
	retainRaw    bool
	sharedCalcs  bool

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the batch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the registry shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSectionWidth overrides the section width for new calculators, ms.
func WithSectionWidth(width float64) Option {
	return func(s *Service) {
		if width > 0 {
			s.sectionWidth = width
		}
	}
}

// WithDecayWeight overrides the reducer's rank-weight base.
func WithDecayWeight(w float64) Option {
	return func(s *Service) {
		if w > 0 && w <= 1 {
			s.decayWeight = w
		}
	}
}

// WithNormExponent overrides the composite power-mean exponent.
func WithNormExponent(p float64) Option {
	return func(s *Service) {
		if p > 0 {
			s.normExponent = p
		}
	}
}

// WithStarScaling overrides the star scaling factor.
func WithStarScaling(f float64) Option {
	return func(s *Service) {
		if f > 0 {
			s.starScaling = f
		}
	}
}

// WithDecayRates overrides per-skill decay bases by skill name.
func WithDecayRates(rates map[string]float64) Option {
	return func(s *Service) {
		s.decayRates = rates
	}
}

// WithRetainRawSections makes new calculators keep their closed sections
// unless the creation request says otherwise.
func WithRetainRawSections(retain bool) Option {
	return func(s *Service) {
		s.retainRaw = retain
	}
}

// WithSharedCalculators selects the concurrency wrapper for new
// calculators: true (the default) uses the multi-observer wrapper with
// its snapshot cache and coalescing, false the plain single-mutex one.
func WithSharedCalculators(sharedCalcs bool) Option {
	return func(s *Service) {
		s.sharedCalcs = sharedCalcs
	}
}

// New creates a Service with the provided options. Start must be called
// before submitting work.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 4,
		queueSize:   100_000,
		dedupeSize:  500_000,
		shardCount:  8,
		sharedCalcs: true,
		logger:      logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the registry, queue and worker pool and begins draining.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.store = repository.NewShardedStore(repository.WithShardCount(s.shardCount))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = batchqueue.NewInMemoryQueue(batchqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

// Stop shuts down the queue and the worker pool.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	_ = s.queue.Close()
	s.pool.Stop()
	s.started = false
}

// CreateCalculator registers a new gradual calculator and returns its ID.
func (s *Service) CreateCalculator(ctx context.Context, spec CalculatorSpec) (string, error) {
	p, err := s.profileFor(spec.Mode)
	if err != nil {
		return "", err
	}
	mods, err := mode.ParseMods(spec.Mods)
	if err != nil {
		return "", err
	}

	retain := s.retainRaw
	if spec.RetainRaw != nil {
		retain = *spec.RetainRaw
	}

	opts := []gradual.Option{
		gradual.WithClockRate(mods.ClockRate()),
		gradual.WithReduceObserver(func(d time.Duration) {
			metrics.RecordReduction(float64(d.Milliseconds()))
		}),
	}
	if retain {
		opts = append(opts, gradual.WithRawSections())
	}
	if spec.SectionWidthMS > 0 {
		opts = append(opts, gradual.WithSectionWidth(spec.SectionWidthMS))
	}

	buf := gradual.NewBuffer()
	inner := gradual.New(p, buf, opts...)
	var calc repository.Driver
	if s.sharedCalcs {
		calc = shared.Wrap(inner)
	} else {
		calc = exclusive.Wrap(inner)
	}

	rec := &repository.Record{
		ID:        uuid.NewString(),
		Mode:      p.Name,
		Mods:      mods.Tokens(),
		CreatedAt: time.Now().UTC(),
		RetainRaw: retain,
		Calc:      calc,
		Buffer:    buf,
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("register calculator: %w", err)
	}

	s.logger.Info(ctx, "calculator created",
		logger.String("id", rec.ID),
		logger.String("mode", rec.Mode),
		logger.String("mods", mods.String()),
		logger.Bool("retain_raw", retain),
	)
	return rec.ID, nil
}

// SubmitBatch enqueues a batch for asynchronous processing. Returns
// duplicate=true when the batch ID was seen before; ErrBackpressure when
// the queue is full.
func (s *Service) SubmitBatch(ctx context.Context, b model.Batch) (duplicate bool, err error) {
	if _, err := s.store.Get(ctx, b.CalculatorID); err != nil {
		return false, err
	}

	if s.deduper.SeenAndRecord(ctx, b.BatchID) {
		metrics.RecordBatchDuplicate()
		return true, nil
	}

	if !s.queue.Enqueue(ctx, b) {
		// Let the client retry the same batch ID later.
		s.deduper.Unrecord(ctx, b.BatchID)
		return false, ErrBackpressure
	}

	metrics.RecordBatchSubmitted()
	return false, nil
}

// Apply folds a batch's objects into its calculator. Called by workers;
// safe for concurrent use because the calculator wrapper serializes
// driving.
func (s *Service) Apply(ctx context.Context, b model.Batch) error {
	rec, err := s.store.Get(ctx, b.CalculatorID)
	if err != nil {
		return err
	}

	before := rec.Calc.Latest().Sections
	rec.Buffer.Push(b.Objects...)
	snap, err := rec.Calc.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain calculator %s: %w", b.CalculatorID, err)
	}

	metrics.RecordObjectsFolded(len(b.Objects))
	if d := snap.Sections - before; d > 0 {
		metrics.RecordSectionsClosed(d)
	}
	return nil
}

// SnapshotAt returns the snapshot as of object count k, driving the
// calculator forward if needed. Requests already covered by completed
// work return the cached snapshot without recomputation.
func (s *Service) SnapshotAt(ctx context.Context, id string, k int) (reduce.Snapshot, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return reduce.Snapshot{}, err
	}

	if rec.Calc.Consumed() >= k {
		metrics.RecordCoalescedAdvance()
	}
	snap, err := rec.Calc.AdvanceTo(ctx, k)
	if err != nil {
		return snap, err
	}
	metrics.RecordSnapshotServed()
	return snap, nil
}

// LatestSnapshot returns the most recent snapshot without driving.
func (s *Service) LatestSnapshot(ctx context.Context, id string) (reduce.Snapshot, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return reduce.Snapshot{}, err
	}
	metrics.RecordSnapshotServed()
	return rec.Calc.Latest(), nil
}

// RawStrains returns the per-skill strain peak vectors of a calculator
// created with raw-section retention.
func (s *Service) RawStrains(ctx context.Context, id string) (map[string][]float64, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.RetainRaw {
		return nil, ErrRawNotRetained
	}
	return rec.Calc.StrainPeaks(), nil
}

// FinalizeCalculator force-closes the pending section and returns the
// final snapshot. Safe to call more than once.
func (s *Service) FinalizeCalculator(ctx context.Context, id string) (reduce.Snapshot, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return reduce.Snapshot{}, err
	}

	// Everything already submitted must be folded before closing.
	if _, err := rec.Calc.Drain(ctx); err != nil {
		return reduce.Snapshot{}, err
	}
	snap, err := rec.Calc.Finalize()
	if err != nil {
		return reduce.Snapshot{}, fmt.Errorf("finalize calculator %s: %w", id, err)
	}
	return snap, nil
}

// CalculatorProgress reports consumption state for a calculator.
func (s *Service) CalculatorProgress(ctx context.Context, id string) (Progress, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		Consumed:  rec.Calc.Consumed(),
		Exhausted: rec.Calc.Exhausted(),
	}, nil
}

// RemoveCalculator drops a calculator from the registry.
func (s *Service) RemoveCalculator(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// GetStats returns a loose bag of service counters for the stats
// endpoint and metrics updaters.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return map[string]any{}
	}

	stats := map[string]any{
		"calculators": s.store.Count(ctx),
		"queueLength": s.queue.Len(ctx),
		"workerCount": s.pool.Size(),
		"dedupeSize":  s.deduper.Size(),
	}
	return stats
}

// profileFor resolves a mode token and applies service-wide overrides.
func (s *Service) profileFor(name string) (mode.Profile, error) {
	p, err := mode.ByName(name)
	if err != nil {
		return mode.Profile{}, err
	}
	if s.sectionWidth > 0 {
		p.SectionWidth = s.sectionWidth
	}
	if s.decayWeight > 0 {
		p.DecayWeight = s.decayWeight
	}
	if s.normExponent > 0 {
		p.NormExponent = s.normExponent
	}
	if s.starScaling > 0 {
		p.StarScaling = s.starScaling
	}
	for i := range p.Skills {
		if rate, ok := s.decayRates[p.Skills[i].Name]; ok {
			p.Skills[i].DecayBase = rate
		}
	}
	return p, nil
}
