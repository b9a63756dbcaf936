package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/RealistikOsu/akatsuki-pp-go/pkg/metrics"
)

// Default store configuration constants.
const defaultShardCount = 8

// shard is one lock-striped slice of the registry.
type shard struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// ShardedStore implements Store with lock striping so lookups for
// different calculators do not contend.
type ShardedStore struct {
	shards []*shard
}

// NewShardedStore creates a sharded registry with configuration options.
func NewShardedStore(opts ...Option) *ShardedStore {
	s := &ShardedStore{}
	cfg := storeConfig{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.shards = make([]*shard, cfg.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*Record)}
	}
	return s
}

// Put registers rec under rec.ID.
func (s *ShardedStore) Put(_ context.Context, rec *Record) error {
	sh := s.shardFor(rec.ID)
	sh.mu.Lock()
	sh.records[rec.ID] = rec
	sh.mu.Unlock()

	metrics.UpdateCalculators(s.count())
	return nil
}

// Get returns the record for id, or ErrNotFound.
func (s *ShardedStore) Get(_ context.Context, id string) (*Record, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Delete removes the record for id.
func (s *ShardedStore) Delete(_ context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	delete(sh.records, id)
	sh.mu.Unlock()

	metrics.UpdateCalculators(s.count())
	return nil
}

// Count returns the number of registered calculators.
func (s *ShardedStore) Count(_ context.Context) int {
	return s.count()
}

// IDs returns all registered IDs, unordered.
func (s *ShardedStore) IDs(_ context.Context) []string {
	var out []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id := range sh.records {
			out = append(out, id)
		}
		sh.mu.RUnlock()
	}
	return out
}

func (s *ShardedStore) count() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}

func (s *ShardedStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}
