// Package recommend turns a user's interaction history into persisted booth
// recommendations.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/internal/domain/scoring"
	"github.com/okian/boothwise/pkg/logger"
	"github.com/okian/boothwise/pkg/metrics"
)

// MaxRecommendations caps how many booths one run recommends.
const MaxRecommendations = 5

// Sink persists finalized recommendations and returns their identifiers.
type Sink interface {
	InsertRecommendation(ctx context.Context, rec model.Recommendation) (string, error)
}

// Outcome is the result of one generation run.
type Outcome struct {
	Recommendations []model.ScoredBooth
	// IDs holds the identifier of every persisted recommendation, in the same
	// order as Recommendations.
	IDs []string
}

// Engine scores booths for a user and hands the best ones to a Sink.
type Engine struct {
	sink   Sink
	now    func() time.Time
	logger logger.Logger
}

// New creates an Engine writing to sink.
func New(sink Sink, opts ...Option) *Engine {
	e := &Engine{
		sink: sink,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("recommend")
	}
	return e
}

// Rank scores every unvisited booth and returns the best ones, highest score
// first. Booths with a zero score are dropped; equal scores keep catalog
// order. An empty history yields no recommendations.
func Rank(interactions []model.Interaction, booths []model.Booth) []model.ScoredBooth {
	if len(interactions) == 0 {
		return []model.ScoredBooth{}
	}

	signals := scoring.Aggregate(interactions)

	scored := make([]model.ScoredBooth, 0, len(booths))
	for i := range booths {
		if signals.HasVisited(booths[i].ID) {
			continue
		}
		sb := scoring.Score(&signals, &booths[i])
		if sb.Score == 0 {
			continue
		}
		scored = append(scored, sb)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > MaxRecommendations {
		scored = scored[:MaxRecommendations]
	}
	return scored
}

// Generate ranks booths for userID and persists each pick. A failed insert
// stops the run and is returned as is; earlier inserts are kept. The outcome
// always reflects what was ranked and what was stored before the failure.
func (e *Engine) Generate(ctx context.Context, userID string, interactions []model.Interaction, booths []model.Booth) (Outcome, error) {
	const op = "recommend.generate"

	start := time.Now()
	ranked := Rank(interactions, booths)
	metrics.RecordEngineLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordRecommendationRun()

	out := Outcome{Recommendations: ranked, IDs: make([]string, 0, len(ranked))}
	if len(ranked) == 0 {
		e.logger.Debug(ctx, "no recommendations",
			logger.String("userID", userID),
			logger.Int("interactions", len(interactions)),
		)
		return out, nil
	}

	now := e.now()
	for i := range ranked {
		rec := model.Recommendation{
			UserID:    userID,
			BoothID:   ranked[i].Booth.ID,
			Score:     ranked[i].Score,
			Reasoning: ranked[i].MatchReasons,
			BasedOn:   strings.Join(ranked[i].BasedOnTags, ", "),
			CreatedAt: now,
			ExpiresAt: now.Add(model.RecommendationTTL),
		}
		id, err := e.sink.InsertRecommendation(ctx, rec)
		if err != nil {
			metrics.RecordPersistError()
			return out, fmt.Errorf("%s: %w: booth %s: %w", op, ErrPersist, rec.BoothID, err)
		}
		out.IDs = append(out.IDs, id)
		metrics.RecordRecommendationPersisted()
	}

	e.logger.Info(ctx, "recommendations generated",
		logger.String("userID", userID),
		logger.Int("count", len(out.IDs)),
		logger.Int("topScore", ranked[0].Score),
	)
	return out, nil
}
