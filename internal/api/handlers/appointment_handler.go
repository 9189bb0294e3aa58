package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

// QueueService defines the interface for appointment operations
type QueueService interface {
	Book(ctx context.Context, input services.BookInput) (*entities.Appointment, error)
	GetAppointment(ctx context.Context, appointmentID string) (*entities.AppointmentView, error)
	Cancel(ctx context.Context, appointmentID string) (*entities.Appointment, error)
	Confirm(ctx context.Context, appointmentID string) (*entities.Appointment, error)
	Complete(ctx context.Context, appointmentID string) (*entities.Appointment, error)
	NotifyNext(ctx context.Context, clinicID string) (*entities.Appointment, error)
}

// BookResponse is returned by POST /book
type BookResponse struct {
	AppointmentID string                     `json:"appointment_id"`
	Position      int                        `json:"position"`
	Status        entities.AppointmentStatus `json:"status"`
}

// CancelRequest is the body of POST /cancel
type CancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// NotifyNextRequest is the body of POST /notify-next
type NotifyNextRequest struct {
	ClinicID string `json:"clinic_id"`
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service QueueService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service QueueService) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
	}
}

// Book handles POST /book
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	var input services.BookInput
	if !decodeJSON(r, &input) {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.service.Book(r.Context(), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, BookResponse{
		AppointmentID: appointment.ID,
		Position:      appointment.Position,
		Status:        appointment.Status,
	})
}

// GetAppointment handles GET /appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	view, err := h.service.GetAppointment(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// Cancel handles POST /cancel
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if !decodeJSON(r, &req) {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if _, err := h.service.Cancel(r.Context(), req.AppointmentID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(entities.AppointmentStatusCancelled)})
}

// Confirm handles POST /appointments/{id}/confirm
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Confirm)
}

// Complete handles POST /appointments/{id}/complete
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*entities.Appointment, error)) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := apply(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": string(appointment.Status)})
}

// NotifyNext handles POST /notify-next
func (h *AppointmentHandler) NotifyNext(w http.ResponseWriter, r *http.Request) {
	var req NotifyNextRequest
	if !decodeJSON(r, &req) {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.service.NotifyNext(r.Context(), req.ClinicID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if appointment == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "no-patient"})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":         string(appointment.Status),
		"appointment_id": appointment.ID,
	})
}
