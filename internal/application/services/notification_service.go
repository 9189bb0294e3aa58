package services

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/infrastructure/observability"
)

const visitSummarySubject = "WaitWise Visit Summary"

var smsTemplates = map[entities.NotificationType]*template.Template{
	entities.NotificationQueued: template.Must(template.New("queued").Parse(
		"You are #{{.Position}} in line for {{.ClinicName}}. We'll notify you when it's your turn.")),
	entities.NotificationTurnNear: template.Must(template.New("turn_near").Parse(
		"A spot at {{.ClinicName}} is now available. Reply YES within 5 minutes to confirm.")),
	entities.NotificationConfirmed: template.Must(template.New("confirmed").Parse(
		"Your visit at {{.ClinicName}} is confirmed. Please head to the clinic.")),
	entities.NotificationCancellation: template.Must(template.New("cancellation").Parse(
		"Your place in line at {{.ClinicName}} has been cancelled.")),
}

var visitSummaryEmail = template.Must(template.New("visit_summary").Parse(
	`Hi {{.PatientName}},

Thank you for visiting {{.ClinicName}}. Your visit summary is attached.

WaitWise Health
`))

// NotificationContext contains all data needed for notification rendering
type NotificationContext struct {
	AppointmentID string
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	ClinicName    string
	Position      int
}

// NewNotificationContext builds the rendering context for an appointment
func NewNotificationContext(user *entities.User, clinic *entities.Clinic, appointment *entities.Appointment) NotificationContext {
	return NotificationContext{
		AppointmentID: appointment.ID,
		PatientName:   user.Name,
		PatientEmail:  user.Email,
		PatientPhone:  user.Phone,
		ClinicName:    clinic.Name,
		Position:      appointment.Position,
	}
}

// NotificationService renders and sends patient messages. Delivery failures
// are logged and reported in the result, never returned to the caller.
type NotificationService struct {
	sms     providers.SMSSender
	email   providers.EmailSender
	metrics *observability.QueueMetrics
	logger  zerolog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(sms providers.SMSSender, email providers.EmailSender, metrics *observability.QueueMetrics, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		sms:     sms,
		email:   email,
		metrics: metrics,
		logger:  logger,
	}
}

// SendSMS renders the SMS template for notificationType and sends it
func (n *NotificationService) SendSMS(ctx context.Context, notificationType entities.NotificationType, notifCtx NotificationContext) entities.NotificationResult {
	result := entities.NotificationResult{
		AppointmentID: notifCtx.AppointmentID,
		Type:          notificationType,
		Channel:       entities.ChannelSMS,
		Recipient:     notifCtx.PatientPhone,
		SentAt:        time.Now().UTC(),
	}

	tmpl, ok := smsTemplates[notificationType]
	if !ok {
		return n.fail(result, fmt.Errorf("no sms template for %s", notificationType))
	}
	body, err := render(tmpl, notifCtx)
	if err != nil {
		return n.fail(result, err)
	}
	result.Message = body

	if err := n.sms.SendSMS(ctx, notifCtx.PatientPhone, body); err != nil {
		return n.fail(result, err)
	}
	return n.sent(result)
}

// SendVisitSummary emails the rendered report to the patient
func (n *NotificationService) SendVisitSummary(ctx context.Context, notifCtx NotificationContext, report *entities.VisitReport) entities.NotificationResult {
	result := entities.NotificationResult{
		AppointmentID: notifCtx.AppointmentID,
		Type:          entities.NotificationVisitSummary,
		Channel:       entities.ChannelEmail,
		Recipient:     notifCtx.PatientEmail,
		Subject:       visitSummarySubject,
		SentAt:        time.Now().UTC(),
	}

	body, err := render(visitSummaryEmail, notifCtx)
	if err != nil {
		return n.fail(result, err)
	}
	result.Message = body

	msg := providers.EmailMessage{
		To:      notifCtx.PatientEmail,
		ToName:  notifCtx.PatientName,
		Subject: visitSummarySubject,
		Body:    body,
	}
	if report != nil {
		msg.Attachments = []providers.EmailAttachment{{
			Filename:      report.Filename,
			ContentType:   report.ContentType,
			ContentBase64: report.PDFBase64,
		}}
	}

	if err := n.email.SendEmail(ctx, msg); err != nil {
		return n.fail(result, err)
	}
	return n.sent(result)
}

func (n *NotificationService) sent(result entities.NotificationResult) entities.NotificationResult {
	result.Status = entities.NotificationStatusSent
	n.metrics.ObserveNotification(string(result.Channel), string(result.Status))
	return result
}

func (n *NotificationService) fail(result entities.NotificationResult, err error) entities.NotificationResult {
	result.Status = entities.NotificationStatusFailed
	result.Error = err.Error()
	n.metrics.ObserveNotification(string(result.Channel), string(result.Status))
	n.logger.Warn().
		Err(err).
		Str("appointment_id", result.AppointmentID).
		Str("channel", string(result.Channel)).
		Str("type", string(result.Type)).
		Msg("Failed to send notification")
	return result
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
