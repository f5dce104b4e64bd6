package repository

import (
	"time"

	"github.com/okian/boothwise/pkg/logger"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// storeOptions is shared by every Store implementation.
type storeOptions struct {
	now                   func() time.Time
	metricsUpdateInterval time.Duration
	logger                logger.Logger
}

func newStoreOptions(opts []Option) storeOptions {
	o := storeOptions{
		now:                   time.Now,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("repository")
	}
	return o
}

// Option applies a configuration option to a Store.
type Option func(*storeOptions)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *storeOptions) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}

// WithClock overrides the time source used for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(o *storeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
