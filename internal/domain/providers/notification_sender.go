package providers

import "context"

// SMSSender delivers text messages to a phone number
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailAttachment is a file attached to an email, already base64 encoded
type EmailAttachment struct {
	Filename      string
	ContentType   string
	ContentBase64 string
}

// EmailMessage represents an email to be sent
type EmailMessage struct {
	To          string
	ToName      string
	Subject     string
	Body        string
	Attachments []EmailAttachment
}

// EmailSender delivers email
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}
