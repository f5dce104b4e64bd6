package simulate

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/pkg/logger"
)

var sentiments = []model.Sentiment{model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative}

// GenerateVisitors builds visitors that each talk to distinct booths from
// the catalog. Conversation terms are drawn from the visited booth so the
// resulting history resembles real enrichment output. The same seed always
// yields the same visits; only IDs differ.
func GenerateVisitors(ctx context.Context, cfg *Config, booths []model.Booth) []Visitor {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // simulation data

	visits := cfg.Visits
	if visits > len(booths) {
		visits = len(booths)
	}

	visitors := make([]Visitor, cfg.Visitors)
	for i := range visitors {
		userID := "visitor-" + uuid.NewString()
		order := rng.Perm(len(booths))[:visits]

		interactions := make([]model.Interaction, 0, visits)
		for _, idx := range order {
			interactions = append(interactions, generateInteraction(rng, userID, &booths[idx]))
		}
		visitors[i] = Visitor{ID: userID, Interactions: interactions}
	}

	logger.Get().Info(ctx, "generated visitors",
		logger.Int("visitors", len(visitors)),
		logger.Int("visitsPerVisitor", visits))
	return visitors
}

func generateInteraction(rng *rand.Rand, userID string, b *model.Booth) model.Interaction {
	in := model.Interaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		BoothID:   b.ID,
		Sentiment: sentiments[rng.IntN(len(sentiments))],
	}
	if len(b.Tags) > 0 {
		in.Tags = pick(rng, b.Tags, 1+rng.IntN(len(b.Tags)))
	}
	if len(b.LookingFor) > 0 {
		in.MentionedSkills = pick(rng, b.LookingFor, rng.IntN(len(b.LookingFor)+1))
	}
	in.MentionedInterests = pick(rng, interestPool, rng.IntN(3))
	// Leave some interactions un-enriched to exercise the neutral fallback.
	if rng.IntN(10) == 0 {
		in.Sentiment = ""
		in.Summary = ""
	} else {
		in.Summary = "Talked with " + b.Name + " about their open roles."
	}
	return in
}

// pick returns n distinct elements of src in random order.
func pick(rng *rand.Rand, src []string, n int) []string {
	if n > len(src) {
		n = len(src)
	}
	out := make([]string, 0, n)
	for _, idx := range rng.Perm(len(src))[:n] {
		out = append(out, src[idx])
	}
	return out
}
