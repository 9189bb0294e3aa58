package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/waitwise/backend/internal/adapters/events"
	"github.com/zatekoja/waitwise/backend/internal/adapters/locking"
	"github.com/zatekoja/waitwise/backend/internal/adapters/memory"
	"github.com/zatekoja/waitwise/backend/internal/api/handlers"
	"github.com/zatekoja/waitwise/backend/internal/api/routes"
	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/notifications"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()

	users := memory.NewUserRepository()
	clinics := memory.NewClinicRepository()
	appointments := memory.NewAppointmentRepository(clinics)
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { bus.Close() })

	notifier := services.NewNotificationService(
		notifications.NewLogSMSSender(logger),
		notifications.NewLogEmailSender(logger),
		nil, logger,
	)
	directory := services.NewClinicDirectoryService(clinics, logger)
	_, err := directory.SeedDefaults(context.Background())
	require.NoError(t, err)

	queue := services.NewQueueService(services.QueueDependencies{
		Appointments: appointments,
		Clinics:      clinics,
		Users:        users,
		Locker:       locking.NewMemoryLocker(),
		Events:       bus,
		Notifier:     notifier,
	}, 15, logger)

	router := routes.NewRouter(
		handlers.NewUserHandler(services.NewUserService(users, logger)),
		handlers.NewClinicHandler(directory, queue),
		handlers.NewTriageHandler(services.NewTriageService(users, nil, logger)),
		handlers.NewAppointmentHandler(queue),
		handlers.NewReportHandler(services.NewReportService(appointments, users, clinics, notifier, logger)),
		handlers.NewSSEHandler(queue, tracking.New(queue, tracking.DefaultConfig(), logger), bus),
		handlers.NewHealthHandler(nil),
		nil,
		nil,
		[]string{"*"},
	)

	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server, "--poll", "10ms"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

var appointmentLine = regexp.MustCompile(`Appointment (\S+) at position (\d+)`)

func TestJourneyThroughStaffFlow(t *testing.T) {
	srv := newAPIServer(t)

	out, err := run(t, srv.URL, "journey",
		"--name", "Ada Lovelace", "--email", "ada@example.com", "--phone", "555-0100",
		"--symptoms", "high fever since tuesday", "--no-track")
	require.NoError(t, err)
	assert.Contains(t, out, "Urgency: medium")
	assert.Contains(t, out, "Booking Uptown Care Clinic")

	match := appointmentLine.FindStringSubmatch(out)
	require.Len(t, match, 3)
	appointmentID := match[1]
	assert.Equal(t, "1", match[2])

	out, err = run(t, srv.URL, "status", appointmentID)
	require.NoError(t, err)
	assert.Contains(t, out, `"estimated_wait_minutes": 15`)

	clinicsOut, err := run(t, srv.URL, "clinics", "--sort", "wait")
	require.NoError(t, err)
	clinicID := regexp.MustCompile(`"id": "([^"]+)"`).FindStringSubmatch(clinicsOut)
	require.Len(t, clinicID, 2)

	out, err = run(t, srv.URL, "clinic", clinicID[1])
	require.NoError(t, err)
	assert.Contains(t, out, `"active_patients": 1`)

	out, err = run(t, srv.URL, "staff", "notify-next", clinicID[1])
	require.NoError(t, err)
	assert.Contains(t, out, appointmentID)

	_, err = run(t, srv.URL, "staff", "confirm", appointmentID)
	require.NoError(t, err)

	reportPath := filepath.Join(t.TempDir(), "summary.pdf")
	out, err = run(t, srv.URL, "report", appointmentID, "--notes", "rest and fluids", "-o", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	summary, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(summary), "%PDF-"))
	assert.Contains(t, string(summary), "rest and fluids")

	_, err = run(t, srv.URL, "staff", "complete", appointmentID)
	require.NoError(t, err)

	out, err = run(t, srv.URL, "track", appointmentID)
	require.NoError(t, err)
	assert.Contains(t, out, "Visit completed")

	_, err = run(t, srv.URL, "cancel", appointmentID)
	require.Error(t, err)
}

func TestClinics_RequiresBothCoordinates(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:0", "clinics", "--lat", "43.65")
	assert.ErrorContains(t, err, "--lat and --lon")
}

func TestDecodeReport(t *testing.T) {
	decoded, err := decodeReport(base64.StdEncoding.EncodeToString([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(decoded))

	_, err = decodeReport("%%%")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Get ready: you are number 2 in line", describe(tracking.Update{Kind: tracking.KindGetReady, Position: 2}))
	assert.Equal(t, "Position 3 -> 2 (about 30 min)", describe(tracking.Update{
		Kind: tracking.KindPositionChanged, PreviousPosition: 3, Position: 2, EstimatedWaitMinutes: 30,
	}))
	assert.Equal(t, "Appointment cancelled", describe(tracking.Update{Kind: tracking.KindCancelled}))
}
