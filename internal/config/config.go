// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields exported with koanf tags; provide New() with defaults.
// - External errors are wrapped via this package's sentinel errors.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory batch queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the batch-ID idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the calculator
	// registry.
	ShardCount int `koanf:"shard_count"`

	// SectionWidthMS is the strain section width in milliseconds.
	// Zero keeps each mode's default.
	SectionWidthMS float64 `koanf:"section_width_ms"`

	// DecayWeight is the rank-weight base of the reducer. Zero keeps
	// the mode default.
	DecayWeight float64 `koanf:"decay_weight"`

	// NormExponent is the power-mean exponent combining skill ratings.
	// Zero keeps the mode default.
	NormExponent float64 `koanf:"norm_exponent"`

	// StarScaling converts raw weighted sums to star ratings. Zero
	// keeps the mode default.
	StarScaling float64 `koanf:"star_scaling"`

	// DecayRates overrides per-skill decay bases, keyed by skill name.
	DecayRates map[string]float64 `koanf:"decay_rates"`

	// RetainRawSections keeps every closed section for strain
	// inspection on calculators created without an explicit choice.
	RetainRawSections bool `koanf:"retain_raw_sections"`

	// Shared selects the concurrency wrapper for calculators: true uses
	// the multi-observer wrapper with snapshot caching and coalescing,
	// false a plain single-mutex wrapper.
	Shared bool `koanf:"shared"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":9270",
		QueueSize:   100_000,
		WorkerCount: runtime.NumCPU() * 2,
		DedupeSize:  500_000,
		ShardCount:  8,
		Shared:      true,
	}
}
