package notifications

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
)

// LogSMSSender records text messages in the log. No SMS gateway is wired.
type LogSMSSender struct {
	logger zerolog.Logger
}

// NewLogSMSSender creates a logging SMS sender
func NewLogSMSSender(logger zerolog.Logger) *LogSMSSender {
	return &LogSMSSender{logger: logger}
}

var _ providers.SMSSender = (*LogSMSSender)(nil)

// SendSMS logs the message
func (s *LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().Str("to", to).Str("body", body).Msg("SMS")
	return nil
}
