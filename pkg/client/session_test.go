package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
)

// fakeClinic serves one appointment whose position drops on every read
type fakeClinic struct {
	mu       sync.Mutex
	position int
	status   entities.AppointmentStatus
}

func (f *fakeClinic) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, entities.User{ID: "user-1", Name: "Ada"})
	})
	mux.HandleFunc("POST /triage", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body["user_id"])
		writeJSON(w, http.StatusOK, services.Assessment{Urgency: entities.UrgencyMedium})
	})
	mux.HandleFunc("POST /book", func(w http.ResponseWriter, r *http.Request) {
		var in services.BookInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "user-1", in.UserID)
		writeJSON(w, http.StatusCreated, BookResult{AppointmentID: "appt-1", Position: f.position, Status: entities.AppointmentStatusQueued})
	})
	mux.HandleFunc("GET /appointments/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		view := entities.AppointmentView{
			Appointment: &entities.Appointment{ID: r.PathValue("id"), Status: f.status, Position: f.position},
		}
		if f.position > 1 {
			f.position--
		} else {
			f.status = entities.AppointmentStatusCompleted
		}
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, view)
	})
	return mux
}

func TestSession_RequiresEarlierSteps(t *testing.T) {
	s := NewSession(NewClient("http://127.0.0.1:0"))
	ctx := context.Background()

	_, err := s.Triage(ctx, "cough")
	assert.ErrorIs(t, err, ErrNotRegistered)
	_, err = s.Book(ctx, "c1", nil)
	assert.ErrorIs(t, err, ErrNotRegistered)
	_, err = s.Status(ctx)
	assert.ErrorIs(t, err, ErrNoAppointment)
	assert.ErrorIs(t, s.Cancel(ctx), ErrNoAppointment)
	_, err = s.Track(ctx, tracking.DefaultConfig(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoAppointment)
}

func TestSession_FlowAndTrack(t *testing.T) {
	fake := &fakeClinic{position: 3, status: entities.AppointmentStatusQueued}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := NewSession(NewClient(srv.URL))

	_, err := s.Register(ctx, services.RegisterInput{Name: "Ada"})
	require.NoError(t, err)
	assessment, err := s.Triage(ctx, "cough")
	require.NoError(t, err)
	assert.Equal(t, entities.UrgencyMedium, assessment.Urgency)
	assert.Same(t, assessment, s.Assessment)

	booked, err := s.Book(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, "appt-1", s.AppointmentID)
	assert.Equal(t, "c1", s.ClinicID)
	assert.Equal(t, 3, booked.Position)

	updates, err := s.Track(ctx, tracking.Config{Interval: 10 * time.Millisecond, GetReadyPosition: 2}, zerolog.Nop())
	require.NoError(t, err)

	var kinds []tracking.UpdateKind
	for u := range updates {
		kinds = append(kinds, u.Kind)
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, tracking.KindSnapshot, kinds[0])
	assert.Contains(t, kinds, tracking.KindGetReady)
	assert.Equal(t, tracking.KindCompleted, kinds[len(kinds)-1])
}
