package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
	"github.com/okian/boothwise/pkg/metrics"
)

// reporter periodically publishes store gauges until stopped.
type reporter struct {
	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

func startReporter(ctx context.Context, interval time.Duration, store Store, log logger.Logger) *reporter {
	r := &reporter{stopChan: make(chan struct{})}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.C:
				publishStats(ctx, store, log)
			}
		}
	}()
	return r
}

func publishStats(ctx context.Context, store Store, log logger.Logger) {
	st, err := store.Stats(ctx)
	if err != nil {
		log.Debug(ctx, "store stats unavailable", logger.Error(err))
		return
	}
	metrics.UpdateBoothCount(st.Booths)
	metrics.UpdateUserCount(st.Users)
}

func (r *reporter) stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}

// observe records the latency of one store operation.
func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}

// nextTimestamp returns now, or one nanosecond past last when the clock has
// not advanced.
func nextTimestamp(now, last time.Time) time.Time {
	if !now.After(last) {
		return last.Add(time.Nanosecond)
	}
	return now
}

// sortRecommendations orders by score desc, newest first on ties.
func sortRecommendations(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}

func sortBoothRecords(recs []boothRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Seq < recs[j].Seq
	})
}
