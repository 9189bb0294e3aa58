package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

const (
	reportContentType   = "application/pdf"
	reportTitle         = "WaitWise Health - Visit Summary"
	reportFont          = "Helvetica"
	defaultVisitNotes   = "Patient seen and assessed. Continue rest and hydration. Follow-up if symptoms persist."
	defaultPrescription = "Ibuprofen 200mg - take one tablet every 6 hours as needed for pain."
)

type visitSummaryData struct {
	PatientName   string
	ClinicName    string
	ClinicAddress string
	GeneratedAt   time.Time
	Urgency       string
	AppointmentID string
	Symptoms      string
	Notes         string
	Prescription  string
}

// ReportService renders visit summaries once a visit has been confirmed
type ReportService struct {
	appointments repositories.AppointmentRepository
	users        repositories.UserRepository
	clinics      repositories.ClinicRepository
	notifier     *NotificationService
	logger       zerolog.Logger
	now          func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	appointments repositories.AppointmentRepository,
	users repositories.UserRepository,
	clinics repositories.ClinicRepository,
	notifier *NotificationService,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		appointments: appointments,
		users:        users,
		clinics:      clinics,
		notifier:     notifier,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GenerateVisitSummary renders the summary for a confirmed or completed
// appointment and emails it to the patient
func (s *ReportService) GenerateVisitSummary(ctx context.Context, appointmentID string, notes *string) (*entities.VisitReport, error) {
	if strings.TrimSpace(appointmentID) == "" {
		return nil, apperrors.NewValidationError("appointment_id is required")
	}

	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != entities.AppointmentStatusConfirmed && appointment.Status != entities.AppointmentStatusCompleted {
		return nil, apperrors.NewInvalidStateError("report available after visit confirmation")
	}

	user, err := s.users.GetByID(ctx, appointment.UserID)
	if err != nil {
		return nil, err
	}
	clinic, err := s.clinics.GetByID(ctx, appointment.ClinicID)
	if err != nil {
		return nil, err
	}

	content, err := renderVisitSummary(s.buildData(user, clinic, appointment, notes))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to render visit summary", err)
	}

	report := &entities.VisitReport{
		Filename:    fmt.Sprintf("waitwise-summary-%s.pdf", appointment.ID),
		ContentType: reportContentType,
		PDFBase64:   base64.StdEncoding.EncodeToString(content),
	}

	if s.notifier != nil {
		s.notifier.SendVisitSummary(ctx, NewNotificationContext(user, clinic, appointment), report)
	}

	s.logger.Info().Str("appointment_id", appointment.ID).Msg("Visit summary generated")
	return report, nil
}

func (s *ReportService) buildData(user *entities.User, clinic *entities.Clinic, appointment *entities.Appointment, notes *string) visitSummaryData {
	data := visitSummaryData{
		PatientName:   user.Name,
		ClinicName:    clinic.Name,
		ClinicAddress: clinic.Address,
		GeneratedAt:   s.now(),
		Urgency:       "Not set",
		AppointmentID: appointment.ID,
		Notes:         defaultVisitNotes,
		Prescription:  defaultPrescription,
	}
	if urgency := user.Urgency(); urgency != "" {
		data.Urgency = string(urgency)
	}
	if appointment.Symptoms != nil {
		data.Symptoms = *appointment.Symptoms
	}
	if notes != nil && strings.TrimSpace(*notes) != "" {
		data.Notes = strings.TrimSpace(*notes)
	}
	return data
}

// renderVisitSummary lays the summary out on one A4 page. Core fonts are
// cp1252, so free text goes through the unicode translator first.
func renderVisitSummary(data visitSummaryData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator("WaitWise Health", true)
	pdf.SetCreationDate(data.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(reportFont, "B", 14)
	pdf.CellFormat(0, 10, reportTitle, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	lines := []string{
		"Patient: " + data.PatientName,
		"Clinic: " + data.ClinicName,
		"Address: " + data.ClinicAddress,
		"Date: " + data.GeneratedAt.Format("2006-01-02 15:04 UTC"),
		"Urgency: " + data.Urgency,
		"Appointment: " + data.AppointmentID,
	}
	if data.Symptoms != "" {
		lines = append(lines, "Reported symptoms: "+data.Symptoms)
	}
	pdf.SetFont(reportFont, "", 12)
	for _, line := range lines {
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	for _, section := range [][2]string{
		{"Visit Notes:", data.Notes},
		{"Prescription:", data.Prescription},
	} {
		pdf.Ln(8)
		pdf.SetFont(reportFont, "B", 12)
		pdf.MultiCell(0, 8, section[0], "", "L", false)
		pdf.SetFont(reportFont, "", 12)
		pdf.MultiCell(0, 8, tr(section[1]), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
