package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/pkg/geo"
)

// ClinicDirectory defines the interface for listing clinics
type ClinicDirectory interface {
	ListSortedBy(ctx context.Context, criterion services.SortCriterion, origin *geo.Point) ([]*entities.ClinicWithDistance, error)
	GetClinic(ctx context.Context, id string) (*entities.Clinic, error)
}

// ClinicQueue defines the interface for reading a clinic queue
type ClinicQueue interface {
	ListQueue(ctx context.Context, clinicID string) ([]*entities.Appointment, error)
}

// ClinicHandler handles clinic requests
type ClinicHandler struct {
	directory ClinicDirectory
	queue     ClinicQueue
}

// NewClinicHandler creates a new clinic handler
func NewClinicHandler(directory ClinicDirectory, queue ClinicQueue) *ClinicHandler {
	return &ClinicHandler{
		directory: directory,
		queue:     queue,
	}
}

// ListNearby handles GET /clinics/nearby?sort=wait|distance&lat=X&lon=Y
func (h *ClinicHandler) ListNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	latStr, lonStr := query.Get("lat"), query.Get("lon")

	var origin *geo.Point
	switch {
	case latStr == "" && lonStr == "":
	case latStr == "" || lonStr == "":
		respondWithError(w, http.StatusBadRequest, "lat and lon must be supplied together")
		return
	default:
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid latitude parameter")
			return
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid longitude parameter")
			return
		}
		origin = &geo.Point{Latitude: lat, Longitude: lon}
	}

	criterion, err := services.ParseSortCriterion(query.Get("sort"), origin != nil)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	clinics, err := h.directory.ListSortedBy(r.Context(), criterion, origin)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, clinics)
}

// GetClinic handles GET /clinics/{id}
func (h *ClinicHandler) GetClinic(w http.ResponseWriter, r *http.Request) {
	clinic, err := h.directory.GetClinic(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, clinic)
}

// GetQueue handles GET /clinics/{id}/queue
func (h *ClinicHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	clinicID := r.PathValue("id")
	if clinicID == "" {
		respondWithError(w, http.StatusBadRequest, "clinic ID is required")
		return
	}

	queue, err := h.queue.ListQueue(r.Context(), clinicID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"clinic_id":    clinicID,
		"appointments": queue,
		"count":        len(queue),
	})
}
