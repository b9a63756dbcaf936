package repository

// storeConfig collects construction-time settings for ShardedStore.
type storeConfig struct {
	shardCount int
}

// Option applies a configuration option to the ShardedStore.
type Option func(*storeConfig)

// WithShardCount sets the number of lock-striped shards.
func WithShardCount(n int) Option {
	return func(c *storeConfig) {
		if n > 0 {
			c.shardCount = n
		}
	}
}
