package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
)

// AppointmentReader loads an appointment before a stream is opened
type AppointmentReader interface {
	GetAppointment(ctx context.Context, appointmentID string) (*entities.AppointmentView, error)
}

// AppointmentTracker produces tracker updates for one appointment
type AppointmentTracker interface {
	Track(ctx context.Context, appointmentID string, wake <-chan struct{}) <-chan tracking.Update
}

// SSEHandler handles Server-Sent Events for appointment tracking
type SSEHandler struct {
	appointments AppointmentReader
	tracker      AppointmentTracker
	eventBus     providers.EventBus
	heartbeat    time.Duration
}

// NewSSEHandler creates a new SSE handler. eventBus may be nil, in which
// case streams rely on the tracker interval alone.
func NewSSEHandler(appointments AppointmentReader, tracker AppointmentTracker, eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		appointments: appointments,
		tracker:      tracker,
		eventBus:     eventBus,
		heartbeat:    30 * time.Second,
	}
}

// WithHeartbeat overrides the heartbeat interval
func (h *SSEHandler) WithHeartbeat(interval time.Duration) *SSEHandler {
	h.heartbeat = interval
	return h
}

// StreamAppointment handles GET /api/stream/appointments/{id}. The stream
// ends after the appointment is completed or cancelled.
func (h *SSEHandler) StreamAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID := r.PathValue("id")
	if appointmentID == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.appointments.GetAppointment(r.Context(), appointmentID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	updates := h.tracker.Track(ctx, appointmentID, h.wakeOnClinicEvents(ctx, appointment.ClinicID))

	h.sendEvent(w, "connected", map[string]interface{}{
		"appointment_id": appointmentID,
		"timestamp":      time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Str("appointment_id", appointmentID).Msg("Client disconnected from appointment stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.sendEvent(w, string(update.Kind), update)
			flusher.Flush()
		}
	}
}

// wakeOnClinicEvents turns queue events at the clinic into tracker wake-ups
func (h *SSEHandler) wakeOnClinicEvents(ctx context.Context, clinicID string) <-chan struct{} {
	if h.eventBus == nil {
		return nil
	}
	events, err := h.eventBus.Subscribe(ctx, providers.GetClinicChannel(clinicID))
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("clinic_id", clinicID).Msg("Failed to subscribe to clinic events")
		return nil
	}

	wake := make(chan struct{}, 1)
	go func() {
		defer close(wake)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			}
		}
	}()
	return wake
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}
