// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/boothwise/internal/adapters/mq/queue"
	"github.com/okian/boothwise/internal/adapters/repository"
	service "github.com/okian/boothwise/internal/app"
	"github.com/okian/boothwise/internal/domain/recommend"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	InteractionSubmitter
	RecommendationReader
	ProfileReader
	BoothCatalog
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler          *HealthHandler
	statsHandler           *StatsHandler
	interactionsHandler    *InteractionsHandler
	recommendationsHandler *RecommendationsHandler
	profileHandler         *ProfileHandler
	boothsHandler          *BoothsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:          NewHealthHandler(),
		statsHandler:           NewStatsHandler(statsProvider),
		interactionsHandler:    NewInteractionsHandler(deps),
		recommendationsHandler: NewRecommendationsHandler(deps),
		profileHandler:         NewProfileHandler(deps),
		boothsHandler:          NewBoothsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /interactions", MetricsMiddleware(s.interactionsHandler.HandlePostInteraction, "interactions"))
	mux.HandleFunc("GET /users/{id}/recommendations", MetricsMiddleware(s.recommendationsHandler.HandleGetRecommendations, "recommendations"))
	mux.HandleFunc("POST /users/{id}/recommendations", MetricsMiddleware(s.recommendationsHandler.HandlePostRecommendations, "recommendations"))
	mux.HandleFunc("GET /users/{id}/profile", MetricsMiddleware(s.profileHandler.HandleGetProfile, "profile"))
	mux.HandleFunc("GET /booths", MetricsMiddleware(s.boothsHandler.HandleListBooths, "booths"))
	mux.HandleFunc("PUT /booths/{id}", MetricsMiddleware(s.boothsHandler.HandlePutBooth, "booths"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// writeServiceError maps errors from the service layer onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInteraction), errors.Is(err, service.ErrInvalidBooth),
		errors.Is(err, repository.ErrInvalid):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed),
		errors.Is(err, repository.ErrClosed), errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, recommend.ErrPersist):
		writeError(w, http.StatusInternalServerError, "persist_failed", WrapKind(op, ErrInternal, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
	}
}
