// Package repository persists interactions, booths, profiles and
// recommendations.
package repository

import (
	"context"
	"time"

	"github.com/okian/boothwise/internal/domain/model"
)

// Stats summarizes the contents of a Store.
type Stats struct {
	Users           int `json:"users"`
	Interactions    int `json:"interactions"`
	Booths          int `json:"booths"`
	Recommendations int `json:"recommendations"`
}

// Store provides read/write access to the recommender state.
type Store interface {
	// AppendInteraction stores in, stamping CreatedAt. Timestamps are strictly
	// increasing per store. Returns the stored record and the number of
	// interactions the user now has. An ID that is already stored yields the
	// original record, its user's count and ErrDuplicate.
	AppendInteraction(ctx context.Context, in model.Interaction) (model.Interaction, int, error)
	// ListInteractionsByUser returns the user's interactions, oldest first.
	ListInteractionsByUser(ctx context.Context, userID string) ([]model.Interaction, error)

	// PutBooth inserts or replaces a booth. A replaced booth keeps its
	// catalog position.
	PutBooth(ctx context.Context, b model.Booth) error
	// GetBooth returns ErrNotFound for unknown IDs.
	GetBooth(ctx context.Context, id string) (model.Booth, error)
	// ListBooths returns the catalog in insertion order.
	ListBooths(ctx context.Context) ([]model.Booth, error)

	// GetProfile returns ErrNotFound for users with no interactions.
	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	// MergeProfile unions skills and interests into the user's profile and
	// bumps its interaction count.
	MergeProfile(ctx context.Context, userID string, skills, interests []string) (model.Profile, error)

	// InsertRecommendation stores rec and returns its ID, generating one when
	// rec.ID is empty.
	InsertRecommendation(ctx context.Context, rec model.Recommendation) (string, error)
	// ListRecommendationsByUser returns the recommendations still valid at
	// now, highest score first.
	ListRecommendationsByUser(ctx context.Context, userID string, now time.Time) ([]model.Recommendation, error)

	Stats(ctx context.Context) (Stats, error)
	Close() error
}
