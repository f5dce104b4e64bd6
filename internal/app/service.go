// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/boothwise/internal/adapters/mq/queue"
	"github.com/okian/boothwise/internal/adapters/mq/worker"
	"github.com/okian/boothwise/internal/adapters/repository"
	"github.com/okian/boothwise/internal/domain/dedupe"
	"github.com/okian/boothwise/internal/domain/identity"
	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/internal/domain/recommend"
	"github.com/okian/boothwise/pkg/logger"
	"github.com/okian/boothwise/pkg/metrics"
)

// Ack is the outcome of a submission.
type Ack struct {
	InteractionID string `json:"interaction_id"`
	Duplicate     bool   `json:"duplicate"`
}

// Service implements the API dependencies for the booth recommender.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	sink    *repository.BreakerSink
	engine  *recommend.Engine
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	useBadger        bool
	badgerDir        string
	catalog          []model.Booth
	breakerThreshold int
	breakerTimeout   time.Duration
	now              func() time.Time

	// State
	started   bool
	runs      atomic.Int64
	runErrors atomic.Int64

	// stopWorkers ends the pool's context. Only Stop calls it, so a canceled
	// Start context does not drop queued interactions.
	stopWorkers context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        10000,
		dedupeSize:       100000,
		breakerThreshold: 5,
		breakerTimeout:   30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store, seeds the catalog and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting recommender service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}

	for i := range s.catalog {
		if err := s.store.PutBooth(ctx, s.catalog[i].Normalized()); err != nil {
			return fmt.Errorf("seed booth %s: %w", s.catalog[i].ID, err)
		}
	}

	s.sink = repository.NewBreakerSink(s.store,
		repository.WithFailureThreshold(s.breakerThreshold),
		repository.WithOpenTimeout(s.breakerTimeout),
		repository.WithBreakerLogger(s.logger),
	)
	s.engine = recommend.New(s.sink, recommend.WithClock(s.now))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopWorkers = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "recommender service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("catalog", len(s.catalog)),
		logger.Bool("badger", s.useBadger),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	opts := []repository.Option{repository.WithClock(s.now)}
	if !s.useBadger {
		s.logger.Info(ctx, "using memory store")
		return repository.NewMemoryStore(ctx, opts...), nil
	}
	store, err := repository.NewBadgerStore(ctx, s.badgerDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// Stop refuses new submissions, drains the queue and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool, store, stopWorkers := s.pool, s.store, s.stopWorkers
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping recommender service...")

	var errs []error
	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	stopWorkers()
	if err := store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.logger.Info(ctx, "recommender service stopped",
		logger.Float64("processed", float64(pool.Processed())),
	)
	return errors.Join(errs...)
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Submit accepts an interaction for asynchronous processing. Missing
// enrichment is defaulted, a missing ID is generated and resubmissions of a
// known ID are acknowledged as duplicates. A full queue yields queue.ErrFull.
func (s *Service) Submit(ctx context.Context, in model.Interaction) (Ack, error) { //nolint:gocritic // interaction is copied on purpose
	if !s.running() {
		return Ack{}, ErrNotStarted
	}
	in = in.WithDefaults()
	if in.UserID == "" || in.BoothID == "" {
		return Ack{}, fmt.Errorf("%w: user_id and booth_id are required", ErrInvalidInteraction)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, in.ID) {
		metrics.RecordInteractionDuplicate()
		s.logger.Debug(ctx, "duplicate interaction", logger.String("interactionID", in.ID))
		return Ack{InteractionID: in.ID, Duplicate: true}, nil
	}

	if err := s.queue.Enqueue(ctx, in); err != nil {
		// Let the client retry the same ID later.
		s.deduper.Unrecord(ctx, in.ID)
		return Ack{}, fmt.Errorf("enqueue %s: %w", in.ID, err)
	}
	return Ack{InteractionID: in.ID}, nil
}

// Process stores one interaction, folds it into the user's profile and, on
// the recommendation cadence, regenerates recommendations. Recommendation
// failures are logged and counted but never fail the interaction.
func (s *Service) Process(ctx context.Context, in model.Interaction) error { //nolint:gocritic // mirrors worker.Processor
	stored, count, err := s.store.AppendInteraction(ctx, in)
	if errors.Is(err, repository.ErrDuplicate) {
		// Already stored in an earlier run; the LRU no longer remembers it.
		metrics.RecordInteractionDuplicate()
		s.logger.Debug(ctx, "interaction already stored",
			logger.String("interactionID", in.ID),
			logger.Int("interactionCount", count),
		)
		return nil
	}
	if err != nil {
		metrics.RecordInteractionFailed()
		return fmt.Errorf("append interaction %s: %w", in.ID, err)
	}
	if _, err := s.store.MergeProfile(ctx, stored.UserID, stored.MentionedSkills, stored.MentionedInterests); err != nil {
		metrics.RecordInteractionFailed()
		return fmt.Errorf("merge profile %s: %w", stored.UserID, err)
	}
	metrics.RecordInteractionIngested()

	if !identity.ShouldRecommend(count) {
		return nil
	}
	if _, err := s.regenerate(ctx, stored.UserID); err != nil {
		metrics.RecordErrorByComponent("service", "recommendation")
		s.logger.Error(ctx, "recommendation run failed",
			logger.String("userID", stored.UserID),
			logger.Int("interactionCount", count),
			logger.Error(err),
		)
	}
	return nil
}

// Regenerate runs the engine for userID over its full history and the
// current catalog, persisting the picks.
func (s *Service) Regenerate(ctx context.Context, userID string) (recommend.Outcome, error) {
	if !s.running() {
		return recommend.Outcome{}, ErrNotStarted
	}
	return s.regenerate(ctx, userID)
}

func (s *Service) regenerate(ctx context.Context, userID string) (recommend.Outcome, error) {
	s.runs.Add(1)
	interactions, err := s.store.ListInteractionsByUser(ctx, userID)
	if err != nil {
		s.runErrors.Add(1)
		return recommend.Outcome{}, fmt.Errorf("list interactions: %w", err)
	}
	booths, err := s.store.ListBooths(ctx)
	if err != nil {
		s.runErrors.Add(1)
		return recommend.Outcome{}, fmt.Errorf("list booths: %w", err)
	}

	out, err := s.engine.Generate(ctx, userID, interactions, booths)
	if err != nil {
		s.runErrors.Add(1)
	}
	return out, err
}

// Recommendations returns the user's recommendations that have not expired.
func (s *Service) Recommendations(ctx context.Context, userID string) ([]model.Recommendation, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.store.ListRecommendationsByUser(ctx, userID, s.now())
}

// Profile returns the user's accumulated skills and interests.
func (s *Service) Profile(ctx context.Context, userID string) (model.Profile, error) {
	if !s.running() {
		return model.Profile{}, ErrNotStarted
	}
	return s.store.GetProfile(ctx, userID)
}

// Booths returns the catalog.
func (s *Service) Booths(ctx context.Context) ([]model.Booth, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.store.ListBooths(ctx)
}

// PutBooth inserts or replaces a catalog booth.
func (s *Service) PutBooth(ctx context.Context, b model.Booth) error { //nolint:gocritic // booth is stored by value
	if !s.running() {
		return ErrNotStarted
	}
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidBooth)
	}
	return s.store.PutBooth(ctx, b.Normalized())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":            s.started,
		"workerCount":        s.workerCount,
		"queueSize":          s.queueSize,
		"dedupeSize":         s.dedupeSize,
		"recommendationRuns": s.runs.Load(),
		"recommendationErrs": s.runErrors.Load(),
	}
	if !s.started {
		return stats
	}

	stats["queueLength"] = s.queue.Len(ctx)
	stats["dedupeEntries"] = s.deduper.Size()
	stats["processed"] = s.pool.Processed()
	stats["breaker"] = s.sink.State()
	if st, err := s.store.Stats(ctx); err == nil {
		stats["users"] = st.Users
		stats["interactions"] = st.Interactions
		stats["booths"] = st.Booths
		stats["recommendations"] = st.Recommendations
		metrics.UpdateUserCount(st.Users)
		metrics.UpdateBoothCount(st.Booths)
	}
	return stats
}
