package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/boothwise/internal/domain/model"
	"github.com/okian/boothwise/internal/domain/recommend"
)

// RecommendationReader reads and regenerates a user's recommendations.
type RecommendationReader interface {
	Recommendations(ctx context.Context, userID string) ([]model.Recommendation, error)
	Regenerate(ctx context.Context, userID string) (recommend.Outcome, error)
}

type recommendationsResponse struct {
	UserID          string                 `json:"user_id"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

type regenerateResponse struct {
	UserID          string              `json:"user_id"`
	Recommendations []model.ScoredBooth `json:"recommendations"`
	IDs             []string            `json:"ids"`
}

// RecommendationsHandler handles recommendation requests.
type RecommendationsHandler struct {
	deps RecommendationReader
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps RecommendationReader) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps}
}

// HandleGetRecommendations handles GET /users/{id}/recommendations requests.
func (h *RecommendationsHandler) HandleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_recommendations"
	userID := strings.TrimSpace(r.PathValue("id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	recs, err := h.deps.Recommendations(r.Context(), userID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationsResponse{UserID: userID, Recommendations: recs})
}

// HandlePostRecommendations handles POST /users/{id}/recommendations requests
// by running the engine immediately.
func (h *RecommendationsHandler) HandlePostRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recommendations"
	userID := strings.TrimSpace(r.PathValue("id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	out, err := h.deps.Regenerate(r.Context(), userID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, regenerateResponse{UserID: userID, Recommendations: out.Recommendations, IDs: out.IDs})
}
