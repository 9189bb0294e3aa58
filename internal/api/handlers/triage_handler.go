package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
)

// TriageService defines the interface for symptom triage
type TriageService interface {
	Triage(ctx context.Context, userID, symptoms string) (services.Assessment, error)
}

// TriageRequest is the body of POST /triage
type TriageRequest struct {
	UserID   string `json:"user_id"`
	Symptoms string `json:"symptoms"`
}

// TriageHandler handles triage requests
type TriageHandler struct {
	service TriageService
}

// NewTriageHandler creates a new triage handler
func NewTriageHandler(service TriageService) *TriageHandler {
	return &TriageHandler{service: service}
}

// Triage handles POST /triage
func (h *TriageHandler) Triage(w http.ResponseWriter, r *http.Request) {
	var req TriageRequest
	if !decodeJSON(r, &req) {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	assessment, err := h.service.Triage(r.Context(), req.UserID, req.Symptoms)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, assessment)
}
