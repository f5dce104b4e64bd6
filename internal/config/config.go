// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Errors wrap this package's sentinels so callers can use errors.Is.
package config

import (
	"runtime"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the in-memory interaction queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many interaction IDs are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`
	// Store selects the persistence backend: memory or badger.
	Store string `koanf:"store"`
	// BadgerDir is the data directory of the badger backend.
	BadgerDir string `koanf:"badger_dir"`
	// CatalogPath optionally points at a YAML booth catalog seeded at startup.
	CatalogPath string `koanf:"catalog_path"`
	// BreakerFailureThreshold trips the recommendation insert breaker after
	// this many consecutive failures.
	BreakerFailureThreshold int `koanf:"breaker_failure_threshold"`
	// BreakerTimeoutMS is how long the breaker stays open.
	BreakerTimeoutMS int `koanf:"breaker_timeout_ms"`
	// MetricsNamespace and MetricsSubsystem prefix every exported metric.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLatencyBuckets overrides the latency histogram buckets, in ms.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		QueueSize:               10_000,
		WorkerCount:             runtime.NumCPU() * 2,
		DedupeSize:              100_000,
		Store:                   StoreMemory,
		BadgerDir:               "data/boothwise",
		BreakerFailureThreshold: 5,
		BreakerTimeoutMS:        30_000,
		MetricsNamespace:        "boothwise",
		MetricsSubsystem:        "recommender",
	}
}
