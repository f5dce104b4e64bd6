package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
)

// settlePollInterval is how often profiles are polled while waiting for the
// service to drain submissions.
const settlePollInterval = 100 * time.Millisecond

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("simulate")
	stats := &Stats{StartTime: time.Now()}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting boothwise simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("visitors", cfg.Visitors),
		logger.Int("visits", cfg.Visits),
		logger.Int("workers", cfg.Workers))

	if err := c.health(ctx); err != nil {
		return stats, err
	}

	if !cfg.SkipSeed {
		if err := seedCatalog(ctx, c, stats); err != nil {
			return stats, fmt.Errorf("seed catalog: %w", err)
		}
	}
	booths, err := c.listBooths(ctx)
	if err != nil {
		return stats, fmt.Errorf("list booths: %w", err)
	}
	if len(booths) == 0 {
		return stats, fmt.Errorf("%w: empty booth catalog", ErrUnexpectedStatus)
	}

	visitors := GenerateVisitors(ctx, cfg, booths)
	stats.Visitors = len(visitors)

	accepted := submitVisitors(ctx, cfg, c, visitors, stats)

	if err := waitSettled(ctx, cfg, c, visitors, accepted); err != nil {
		return stats, err
	}

	catalog := make(map[string]struct{}, len(booths))
	for i := range booths {
		catalog[booths[i].ID] = struct{}{}
	}
	violations := verifyVisitors(ctx, cfg, c, visitors, catalog, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if len(violations) > 0 {
		return stats, fmt.Errorf("%w: %w", ErrViolations, errors.Join(violations...))
	}
	return stats, nil
}

func seedCatalog(ctx context.Context, c *client, stats *Stats) error {
	for _, b := range DefaultCatalog() {
		if err := c.putBooth(ctx, &b); err != nil {
			return err
		}
		stats.BoothsSeeded++
	}
	logger.Get().Info(ctx, "seeded booth catalog", logger.Int("booths", stats.BoothsSeeded))
	return nil
}

// forEach runs fn for indices 0..n-1 on a bounded set of goroutines.
func forEach(ctx context.Context, workers, n int, fn func(i int)) {
	if workers < 1 {
		workers = 1
	}
	idx := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}

	for i := range n {
		select {
		case <-ctx.Done():
			close(idx)
			wg.Wait()
			return
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
}

// submitVisitors posts every visitor's interactions in order, then replays
// each visitor's first accepted interaction to exercise deduplication. Each
// visitor keeps only its accepted interactions. It returns the number of
// accepted interactions per visitor.
func submitVisitors(ctx context.Context, cfg *Config, c *client, visitors []Visitor, stats *Stats) []int {
	accepted := make([]int, len(visitors))
	var ok, dup, failed, submitted atomic.Int64

	count := func(r submitResult) {
		submitted.Add(1)
		switch r {
		case resultAccepted:
			ok.Add(1)
		case resultDuplicate:
			dup.Add(1)
		default:
			failed.Add(1)
		}
	}

	forEach(ctx, cfg.Workers, len(visitors), func(i int) {
		v := &visitors[i]
		kept := v.Interactions[:0:0]
		for j := range v.Interactions {
			r := c.submit(ctx, &v.Interactions[j])
			count(r)
			if r == resultAccepted {
				kept = append(kept, v.Interactions[j])
			}
		}
		if len(kept) > 0 {
			count(c.submit(ctx, &kept[0]))
		}
		// Rejected interactions never reach the history the engine sees.
		v.Interactions = kept
		accepted[i] = len(kept)
	})

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(ok.Load())
	stats.Duplicate = int(dup.Load())
	stats.Failed = int(failed.Load())

	logger.Get().Info(ctx, "submission completed",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed))
	return accepted
}

// waitSettled polls visitor profiles until each reflects every accepted
// interaction or cfg.Settle elapses.
func waitSettled(ctx context.Context, cfg *Config, c *client, visitors []Visitor, accepted []int) error {
	deadline := time.Now().Add(cfg.Settle)
	for i := range visitors {
		if accepted[i] == 0 {
			continue
		}
		for {
			p, status, err := c.profile(ctx, visitors[i].ID)
			if err == nil && status == http.StatusOK && p.InteractionCount >= accepted[i] {
				break
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("%w: visitor %s has %d of %d interactions",
					ErrNotSettled, visitors[i].ID, p.InteractionCount, accepted[i])
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(settlePollInterval):
			}
		}
	}
	logger.Get().Info(ctx, "all submissions processed")
	return nil
}

func verifyVisitors(ctx context.Context, cfg *Config, c *client, visitors []Visitor, catalog map[string]struct{}, stats *Stats) []error {
	var (
		mu         sync.Mutex
		violations []error
		verified   atomic.Int64
		empty      atomic.Int64
	)

	forEach(ctx, cfg.Workers, len(visitors), func(i int) {
		v := &visitors[i]
		recs, err := c.regenerate(ctx, v.ID)
		if err != nil {
			mu.Lock()
			violations = append(violations, err)
			mu.Unlock()
			return
		}
		verified.Add(1)
		if len(recs) == 0 {
			empty.Add(1)
		}

		errs := Verify(v, recs, catalog)
		if cfg.Verbose {
			logger.Get().Info(ctx, "visitor recommendations",
				logger.String("visitor", v.ID),
				logger.Int("recommendations", len(recs)),
				logger.Int("violations", len(errs)),
				logger.Strings("booths", boothIDs(recs)))
		}
		if len(errs) > 0 {
			mu.Lock()
			violations = append(violations, errs...)
			mu.Unlock()
		}
	})

	stats.Verified = int(verified.Load())
	stats.EmptyRecommendation = int(empty.Load())
	stats.Violations = len(violations)
	return violations
}

func boothIDs(recs []model.ScoredBooth) []string {
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = recs[i].Booth.ID
	}
	return out
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("boothsSeeded", stats.BoothsSeeded),
		logger.Int("visitors", stats.Visitors),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Int("emptyRecommendations", stats.EmptyRecommendation),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("submissionsPerSecond", perSecond))
}
