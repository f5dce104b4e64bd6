package model

import "time"

// RecommendationTTL is how long a persisted recommendation stays valid.
const RecommendationTTL = 24 * time.Hour

// Recommendation is the persisted form of a ScoredBooth.
type Recommendation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BoothID   string    `json:"booth_id"`
	Score     int       `json:"score"`
	Reasoning []string  `json:"reasoning"`
	BasedOn   string    `json:"based_on"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the recommendation is no longer valid at now.
func (r *Recommendation) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Profile is the user's accumulated identity: every skill and interest ever
// mentioned, in first-seen order.
type Profile struct {
	UserID           string    `json:"user_id"`
	Skills           []string  `json:"skills"`
	Interests        []string  `json:"interests"`
	InteractionCount int       `json:"interaction_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}
