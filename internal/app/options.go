package service

import (
	"time"

	"github.com/okian/boothwise/internal/adapters/repository"
	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the interaction queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a ready store. Start will not open one and Stop will
// still close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithBadgerStore makes Start open a BadgerDB store in dir instead of the
// in-memory default.
func WithBadgerStore(dir string) Option {
	return func(s *Service) {
		s.badgerDir = dir
		s.useBadger = true
	}
}

// WithCatalog seeds booths into the store on Start.
func WithCatalog(booths []model.Booth) Option {
	return func(s *Service) {
		s.catalog = append(s.catalog, booths...)
	}
}

// WithBreaker configures the circuit breaker around recommendation inserts.
func WithBreaker(failureThreshold int, openTimeout time.Duration) Option {
	return func(s *Service) {
		if failureThreshold > 0 {
			s.breakerThreshold = failureThreshold
		}
		if openTimeout > 0 {
			s.breakerTimeout = openTimeout
		}
	}
}

// WithClock overrides the time source for engine stamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
