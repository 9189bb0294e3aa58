package services_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

func TestReportService_RequiresConfirmedVisit(t *testing.T) {
	env := newQueueEnv(t)
	env.addClinic(t, "c-1", "Downtown Health Hub")
	env.addUser(t, "u-1")
	appointment := env.book(t, "u-1", "c-1")
	reports := services.NewReportService(env.appointments, env.users, env.clinics, env.notifier, zerolog.Nop())

	_, err := reports.GenerateVisitSummary(context.Background(), appointment.ID, nil)

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidState))
	env.email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)

	_, err = reports.GenerateVisitSummary(context.Background(), "missing", nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReportService_GenerateVisitSummary(t *testing.T) {
	env := newQueueEnv(t)
	env.addClinic(t, "c-1", "Downtown Health Hub")
	env.addUser(t, "u-1")
	require.NoError(t, env.users.UpdateUrgency(context.Background(), "u-1", entities.UrgencyMedium))
	symptoms := "high fever"
	appointment, err := env.queue.Book(context.Background(), services.BookInput{UserID: "u-1", ClinicID: "c-1", Symptoms: &symptoms})
	require.NoError(t, err)
	_, err = env.queue.NotifyNext(context.Background(), "c-1")
	require.NoError(t, err)
	_, err = env.queue.Confirm(context.Background(), appointment.ID)
	require.NoError(t, err)

	reports := services.NewReportService(env.appointments, env.users, env.clinics, env.notifier, zerolog.Nop())
	notes := "Prescribed fluids and rest."
	report, err := reports.GenerateVisitSummary(context.Background(), appointment.ID, &notes)
	require.NoError(t, err)

	assert.Equal(t, "waitwise-summary-"+appointment.ID+".pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)

	decoded, err := base64.StdEncoding.DecodeString(report.PDFBase64)
	require.NoError(t, err)
	text := string(decoded)
	assert.True(t, strings.HasPrefix(text, "%PDF-"), "summary should be a PDF document")
	assert.Contains(t, text, "WaitWise Health - Visit Summary")
	assert.Contains(t, text, "Patient: Patient u-1")
	assert.Contains(t, text, "Clinic: Downtown Health Hub")
	assert.Contains(t, text, "Urgency: medium")
	assert.Contains(t, text, "Reported symptoms: high fever")
	assert.Contains(t, text, "Prescribed fluids and rest.")
	assert.Contains(t, text, "Prescription:")
	assert.Contains(t, text, "Ibuprofen 200mg")

	env.email.AssertCalled(t, "SendEmail", mock.Anything, mock.MatchedBy(func(msg providers.EmailMessage) bool {
		return msg.To == "u-1@example.com" && len(msg.Attachments) == 1 &&
			msg.Attachments[0].ContentType == "application/pdf" &&
			msg.Attachments[0].ContentBase64 == report.PDFBase64
	}))
}

func TestReportService_DefaultNotes(t *testing.T) {
	env := newQueueEnv(t)
	env.addClinic(t, "c-1", "Downtown Health Hub")
	env.addUser(t, "u-1")
	appointment := env.book(t, "u-1", "c-1")
	_, err := env.queue.NotifyNext(context.Background(), "c-1")
	require.NoError(t, err)
	_, err = env.queue.Confirm(context.Background(), appointment.ID)
	require.NoError(t, err)
	_, err = env.queue.Complete(context.Background(), appointment.ID)
	require.NoError(t, err)

	reports := services.NewReportService(env.appointments, env.users, env.clinics, nil, zerolog.Nop())
	report, err := reports.GenerateVisitSummary(context.Background(), appointment.ID, nil)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(report.PDFBase64)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(decoded), "%PDF-"))
	assert.Contains(t, string(decoded), "Urgency: Not set")
	assert.Contains(t, string(decoded), "Patient seen and assessed.")
	assert.NotContains(t, string(decoded), "Reported symptoms")
}
