package notifications

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
)

const sendGridHost = "https://api.sendgrid.com"

// SendGridConfig holds configuration for SendGrid
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides the API base URL
	Host string
}

// SendGridEmailSender sends email through the SendGrid v3 mail API
type SendGridEmailSender struct {
	cfg    SendGridConfig
	logger zerolog.Logger
}

// NewSendGridEmailSender creates a SendGrid sender
func NewSendGridEmailSender(cfg SendGridConfig, logger zerolog.Logger) (*SendGridEmailSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY must be set")
	}
	if cfg.Host == "" {
		cfg.Host = sendGridHost
	}
	if cfg.FromName == "" {
		cfg.FromName = "WaitWise Health"
	}
	return &SendGridEmailSender{cfg: cfg, logger: logger}, nil
}

var _ providers.EmailSender = (*SendGridEmailSender)(nil)

// SendEmail sends msg, attaching any files it carries
func (s *SendGridEmailSender) SendEmail(ctx context.Context, msg providers.EmailMessage) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")

	for _, file := range msg.Attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(file.ContentBase64)
		attachment.SetType(file.ContentType)
		attachment.SetFilename(file.Filename)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	request := sendgrid.GetRequest(s.cfg.APIKey, "/v3/mail/send", s.cfg.Host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("SendGrid send failed")
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error().Int("status", response.StatusCode).Str("body", response.Body).Str("to", msg.To).Msg("SendGrid returned error status")
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("status", response.StatusCode).Msg("Email sent via SendGrid")
	return nil
}

// LogEmailSender logs outbound email instead of sending it. Used when no
// SendGrid key is configured.
type LogEmailSender struct {
	logger zerolog.Logger
}

// NewLogEmailSender creates a logging email sender
func NewLogEmailSender(logger zerolog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

var _ providers.EmailSender = (*LogEmailSender)(nil)

// SendEmail logs the message
func (s *LogEmailSender) SendEmail(_ context.Context, msg providers.EmailMessage) error {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("Email delivery disabled, message logged")
	return nil
}
