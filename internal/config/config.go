// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns defaults; Load(ctx) layers .env, YAML and environment on top.
// - All loading errors wrap this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of batch transcript workers.
	WorkerCount int `koanf:"worker_count"`

	// ParseCacheSize bounds the parsed schedule text memo. <= 0 is unbounded.
	ParseCacheSize int `koanf:"parse_cache_size"`

	// MaxBatchStudents caps POST /grades/batch.
	MaxBatchStudents int `koanf:"max_batch_students"`

	// UpstreamBaseURL is the REST backend that owns grades and registrations.
	// Empty disables the /students routes.
	UpstreamBaseURL string `koanf:"upstream_base_url"`

	// UpstreamTimeoutMS bounds every upstream request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// MetricsNamespace prefixes every exported Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		WorkerCount:       runtime.NumCPU() * 2,
		ParseCacheSize:    10_000,
		MaxBatchStudents:  500,
		UpstreamBaseURL:   "",
		UpstreamTimeoutMS: 5_000,
		MetricsNamespace:  "registrar",
	}
}
