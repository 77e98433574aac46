package config

// Config is a struct that holds configuration parameters for the package.
type Config struct {
	// CacheDir is a directory for the key-value store of parsed names. If it
	// is empty, the store is kept in memory.
	CacheDir string

	// JobsNum is a number of concurrent goroutines used by the loader.
	JobsNum int

	// BatchSize is a number of names normalized by one loader worker at a
	// time.
	BatchSize int

	// TrustReferences turns off the check that genera and species point to
	// existing parents. The zero value keeps the check.
	TrustReferences bool

	// WithMetrics enables Prometheus counters.
	WithMetrics bool
}

// Option type allows to change settings for Config.
type Option func(*Config)

// OptCacheDir sets a directory for the parsed names cache.
func OptCacheDir(d string) Option {
	return func(cfg *Config) {
		cfg.CacheDir = d
	}
}

// OptJobsNum sets parallelism number for concurrent goroutines.
func OptJobsNum(j int) Option {
	return func(cfg *Config) {
		if j > 0 {
			cfg.JobsNum = j
		}
	}
}

// OptBatchSize sets the number of names in a loader batch.
func OptBatchSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.BatchSize = n
		}
	}
}

// OptTrustReferences toggles off parent checks of the taxonomy.
func OptTrustReferences(b bool) Option {
	return func(cfg *Config) {
		cfg.TrustReferences = b
	}
}

// OptWithMetrics toggles Prometheus counters.
func OptWithMetrics(b bool) Option {
	return func(cfg *Config) {
		cfg.WithMetrics = b
	}
}

// New creates a Config. The names cache is kept in memory unless
// OptCacheDir is given.
func New(opts ...Option) Config {
	res := Config{
		JobsNum:   4,
		BatchSize: 1_000,
	}

	for _, opt := range opts {
		opt(&res)
	}

	return res
}
