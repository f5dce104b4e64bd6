package repository

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
	"github.com/okian/boothwise/pkg/metrics"
)

const (
	defaultBreakerName             = "recommendation_insert"
	defaultBreakerFailureThreshold = 5
	defaultBreakerTimeout          = 30 * time.Second
)

// RecommendationInserter is the write side a BreakerSink protects.
type RecommendationInserter interface {
	InsertRecommendation(ctx context.Context, rec model.Recommendation) (string, error)
}

// BreakerSink guards recommendation inserts with a circuit breaker. While the
// breaker is open inserts fail fast with gobreaker.ErrOpenState; callers see
// the error and nothing is retried.
type BreakerSink struct {
	next RecommendationInserter
	cb   *gobreaker.CircuitBreaker[string]
}

type breakerOptions struct {
	name             string
	failureThreshold uint32
	timeout          time.Duration
	logger           logger.Logger
}

// BreakerOption configures a BreakerSink.
type BreakerOption func(*breakerOptions)

// WithBreakerName sets the breaker name reported in metrics and logs.
func WithBreakerName(name string) BreakerOption {
	return func(o *breakerOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithFailureThreshold trips the breaker after n consecutive failures.
func WithFailureThreshold(n int) BreakerOption {
	return func(o *breakerOptions) {
		if n > 0 {
			o.failureThreshold = uint32(n)
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(o *breakerOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBreakerLogger sets the logger used for state changes.
func WithBreakerLogger(l logger.Logger) BreakerOption {
	return func(o *breakerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewBreakerSink wraps next with a circuit breaker.
func NewBreakerSink(next RecommendationInserter, opts ...BreakerOption) *BreakerSink {
	o := breakerOptions{
		name:             defaultBreakerName,
		failureThreshold: defaultBreakerFailureThreshold,
		timeout:          defaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("breaker")
	}

	settings := gobreaker.Settings{
		Name:        o.name,
		MaxRequests: 1,
		Timeout:     o.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			o.logger.Warn(context.Background(), "breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	metrics.UpdateBreakerState(o.name, int(gobreaker.StateClosed))

	return &BreakerSink{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[string](settings),
	}
}

// InsertRecommendation forwards rec unless the breaker is open.
func (b *BreakerSink) InsertRecommendation(ctx context.Context, rec model.Recommendation) (string, error) {
	id, err := b.cb.Execute(func() (string, error) {
		return b.next.InsertRecommendation(ctx, rec)
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", b.cb.Name(), err)
	}
	return id, nil
}

// State returns the breaker state name: closed, half-open or open.
func (b *BreakerSink) State() string {
	return b.cb.State().String()
}
