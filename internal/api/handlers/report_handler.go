package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

// ReportService defines the interface for visit summaries
type ReportService interface {
	GenerateVisitSummary(ctx context.Context, appointmentID string, notes *string) (*entities.VisitReport, error)
}

// ReportRequest is the body of POST /report
type ReportRequest struct {
	AppointmentID string  `json:"appointment_id"`
	Notes         *string `json:"notes,omitempty"`
}

// ReportHandler handles report requests
type ReportHandler struct {
	service ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// GenerateReport handles POST /report
func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !decodeJSON(r, &req) {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	report, err := h.service.GenerateVisitSummary(r.Context(), req.AppointmentID, req.Notes)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
