package showroomdex

import (
	"log/slog"

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
	addrs     []string
	password  string
	keyPrefix string
	fixtures  string

	blocked    []BlockedCountry
	limits     Limits
	sampleSize int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis connects the client to a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithFixtures serves discovery from a JSON or YAML snapshot instead of Redis.
func WithFixtures(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fixtures = path
	})
}

// WithKeyPrefix sets the Redis key and index prefix. Default: "showroomdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithBlockedCountries replaces the default jurisdiction blocklist.
func WithBlockedCountries(blocked ...BlockedCountry) Option {
	return optionFunc(func(c *clientConfig) {
		c.blocked = blocked
	})
}

// WithLimits overrides request parameter bounds. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return optionFunc(func(c *clientConfig) {
		c.limits = l
	})
}

// WithSuggestSampleSize bounds the records scanned for city and brand suggestions.
// Default: 200.
func WithSuggestSampleSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.sampleSize = n
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
