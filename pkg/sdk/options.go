package conesearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	root           string
	keyPrefix      string
	workers        int
	backendTimeout time.Duration
	rangeLimit     int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey serves indexed catalogs from a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis serves indexed catalogs from a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCatalogRoot serves partitioned catalogs from the subdirectories of dir.
func WithCatalogRoot(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.root = dir
	})
}

// WithKeyPrefix sets the key namespace of indexed catalogs.
// Default: "catalogs:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithWorkers bounds the concurrent backend calls of one request.
// Default: 8.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithBackendTimeout bounds each backend call. Zero leaves calls bounded by the caller's context only.
func WithBackendTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.backendTimeout = d
	})
}

// WithRangeLimit caps the candidates one indexed range search may return.
// Default: 100000.
func WithRangeLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rangeLimit = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
