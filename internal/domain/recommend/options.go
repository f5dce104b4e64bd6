package recommend

import (
	"time"

	"github.com/okian/boothwise/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock overrides the time source used to stamp recommendations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
