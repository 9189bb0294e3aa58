package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
)

func testNotificationContext() services.NotificationContext {
	return services.NotificationContext{
		AppointmentID: "a-1",
		PatientName:   "Ada Lovelace",
		PatientEmail:  "ada@example.com",
		PatientPhone:  "555-0100",
		ClinicName:    "Uptown Care Clinic",
		Position:      3,
	}
}

func TestNotificationService_SendSMS(t *testing.T) {
	sms := new(MockSMSSender)
	sms.On("SendSMS", mock.Anything, "555-0100", "You are #3 in line for Uptown Care Clinic. We'll notify you when it's your turn.").Return(nil)
	service := services.NewNotificationService(sms, new(MockEmailSender), nil, zerolog.Nop())

	result := service.SendSMS(context.Background(), entities.NotificationQueued, testNotificationContext())

	assert.Equal(t, entities.NotificationStatusSent, result.Status)
	assert.Equal(t, entities.ChannelSMS, result.Channel)
	assert.Equal(t, "555-0100", result.Recipient)
	sms.AssertExpectations(t)
}

func TestNotificationService_SendSMSFailureIsReported(t *testing.T) {
	sms := new(MockSMSSender)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("gateway timeout"))
	service := services.NewNotificationService(sms, new(MockEmailSender), nil, zerolog.Nop())

	result := service.SendSMS(context.Background(), entities.NotificationCancellation, testNotificationContext())

	assert.Equal(t, entities.NotificationStatusFailed, result.Status)
	assert.Equal(t, "gateway timeout", result.Error)
	assert.Equal(t, "Your place in line at Uptown Care Clinic has been cancelled.", result.Message)
}

func TestNotificationService_UnknownSMSTemplate(t *testing.T) {
	sms := new(MockSMSSender)
	service := services.NewNotificationService(sms, new(MockEmailSender), nil, zerolog.Nop())

	result := service.SendSMS(context.Background(), entities.NotificationVisitSummary, testNotificationContext())

	assert.Equal(t, entities.NotificationStatusFailed, result.Status)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_SendVisitSummary(t *testing.T) {
	email := new(MockEmailSender)
	email.On("SendEmail", mock.Anything, mock.MatchedBy(func(msg providers.EmailMessage) bool {
		return msg.To == "ada@example.com" &&
			msg.Subject == "WaitWise Visit Summary" &&
			len(msg.Attachments) == 1 &&
			msg.Attachments[0].Filename == "waitwise-summary-a-1.pdf" &&
			msg.Attachments[0].ContentBase64 == "JVBERi0xLjM="
	})).Return(nil)
	service := services.NewNotificationService(new(MockSMSSender), email, nil, zerolog.Nop())

	result := service.SendVisitSummary(context.Background(), testNotificationContext(), &entities.VisitReport{
		Filename:    "waitwise-summary-a-1.pdf",
		ContentType: "application/pdf",
		PDFBase64:   "JVBERi0xLjM=",
	})

	assert.Equal(t, entities.NotificationStatusSent, result.Status)
	assert.Contains(t, result.Message, "Thank you for visiting Uptown Care Clinic")
	email.AssertExpectations(t)
}
