package api

import (
	"context"
	"net/http"

	service "github.com/okian/boothwise/internal/app"
	"github.com/okian/boothwise/internal/domain/model"
)

// InteractionSubmitter accepts interactions for asynchronous processing.
type InteractionSubmitter interface {
	Submit(ctx context.Context, in model.Interaction) (service.Ack, error)
}

// interactionRequest mirrors the body of POST /interactions. Enrichment
// fields are optional; missing ones fall back to neutral defaults.
type interactionRequest struct {
	ID                 string   `json:"id" validate:"omitempty,max=128"`
	UserID             string   `json:"user_id" validate:"required,max=128"`
	BoothID            string   `json:"booth_id" validate:"required,max=128"`
	Sentiment          string   `json:"sentiment" validate:"omitempty,max=32"`
	Tags               []string `json:"tags" validate:"max=50,dive,max=64"`
	MentionedSkills    []string `json:"mentioned_skills" validate:"max=50,dive,max=64"`
	MentionedInterests []string `json:"mentioned_interests" validate:"max=50,dive,max=64"`
	Summary            string   `json:"summary" validate:"max=4000"`
}

func (r *interactionRequest) toModel() model.Interaction {
	return model.Interaction{
		ID:                 r.ID,
		UserID:             r.UserID,
		BoothID:            r.BoothID,
		Sentiment:          model.Sentiment(r.Sentiment),
		Tags:               r.Tags,
		MentionedSkills:    r.MentionedSkills,
		MentionedInterests: r.MentionedInterests,
		Summary:            r.Summary,
	}
}

type ackResponse struct {
	Status        string `json:"status"`
	Duplicate     bool   `json:"duplicate"`
	InteractionID string `json:"interaction_id"`
}

// InteractionsHandler handles interaction submissions.
type InteractionsHandler struct {
	deps InteractionSubmitter
}

// NewInteractionsHandler creates a new interactions handler.
func NewInteractionsHandler(deps InteractionSubmitter) *InteractionsHandler {
	return &InteractionsHandler{deps: deps}
}

// HandlePostInteraction handles POST /interactions requests.
func (h *InteractionsHandler) HandlePostInteraction(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_interaction"

	var req interactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.Submit(r.Context(), req.toModel())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if ack.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, InteractionID: ack.InteractionID})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", InteractionID: ack.InteractionID})
}
