package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/boothwise/internal/domain/model"
)

// BoothCatalog reads and writes the booth catalog.
type BoothCatalog interface {
	Booths(ctx context.Context) ([]model.Booth, error)
	PutBooth(ctx context.Context, b model.Booth) error
}

// boothRequest mirrors the body of PUT /booths/{id}.
type boothRequest struct {
	ID          string   `json:"id" validate:"omitempty,max=128"`
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=4000"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=64"`
	LookingFor  []string `json:"looking_for" validate:"max=50,dive,max=64"`
}

type boothsResponse struct {
	Booths []model.Booth `json:"booths"`
}

// BoothsHandler handles catalog requests.
type BoothsHandler struct {
	deps BoothCatalog
}

// NewBoothsHandler creates a new booths handler.
func NewBoothsHandler(deps BoothCatalog) *BoothsHandler {
	return &BoothsHandler{deps: deps}
}

// HandleListBooths handles GET /booths requests.
func (h *BoothsHandler) HandleListBooths(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_booths"
	booths, err := h.deps.Booths(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, boothsResponse{Booths: booths})
}

// HandlePutBooth handles PUT /booths/{id} requests.
func (h *BoothsHandler) HandlePutBooth(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_booth"
	id := strings.TrimSpace(r.PathValue("id"))

	var req boothRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.ID != "" && req.ID != id {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("body id does not match path")))
		return
	}

	b := model.Booth{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		LookingFor:  req.LookingFor,
	}
	if err := h.deps.PutBooth(r.Context(), b); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, b.Normalized())
}
