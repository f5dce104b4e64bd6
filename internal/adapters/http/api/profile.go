package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/boothwise/internal/domain/model"
)

// ProfileReader reads a user's accumulated identity.
type ProfileReader interface {
	Profile(ctx context.Context, userID string) (model.Profile, error)
}

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps ProfileReader
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileReader) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleGetProfile handles GET /users/{id}/profile requests.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	userID := strings.TrimSpace(r.PathValue("id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	p, err := h.deps.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
