package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/tracking"
	"github.com/zatekoja/waitwise/backend/pkg/geo"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input services.RegisterInput) (*entities.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

type MockClinicDirectory struct {
	mock.Mock
}

func (m *MockClinicDirectory) ListSortedBy(ctx context.Context, criterion services.SortCriterion, origin *geo.Point) ([]*entities.ClinicWithDistance, error) {
	args := m.Called(ctx, criterion, origin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ClinicWithDistance), args.Error(1)
}

func (m *MockClinicDirectory) GetClinic(ctx context.Context, id string) (*entities.Clinic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Clinic), args.Error(1)
}

type MockTriageService struct {
	mock.Mock
}

func (m *MockTriageService) Triage(ctx context.Context, userID, symptoms string) (services.Assessment, error) {
	args := m.Called(ctx, userID, symptoms)
	return args.Get(0).(services.Assessment), args.Error(1)
}

type MockQueueService struct {
	mock.Mock
}

func (m *MockQueueService) appointment(args mock.Arguments) (*entities.Appointment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *MockQueueService) Book(ctx context.Context, input services.BookInput) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, input))
}

func (m *MockQueueService) GetAppointment(ctx context.Context, appointmentID string) (*entities.AppointmentView, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AppointmentView), args.Error(1)
}

func (m *MockQueueService) Cancel(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, appointmentID))
}

func (m *MockQueueService) Confirm(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, appointmentID))
}

func (m *MockQueueService) Complete(ctx context.Context, appointmentID string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, appointmentID))
}

func (m *MockQueueService) NotifyNext(ctx context.Context, clinicID string) (*entities.Appointment, error) {
	return m.appointment(m.Called(ctx, clinicID))
}

func (m *MockQueueService) ListQueue(ctx context.Context, clinicID string) ([]*entities.Appointment, error) {
	args := m.Called(ctx, clinicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Appointment), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GenerateVisitSummary(ctx context.Context, appointmentID string, notes *string) (*entities.VisitReport, error) {
	args := m.Called(ctx, appointmentID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VisitReport), args.Error(1)
}

// stubTracker replays fixed updates and then closes the stream
type stubTracker struct {
	updates []tracking.Update
	wake    <-chan struct{}
}

func (s *stubTracker) Track(_ context.Context, _ string, wake <-chan struct{}) <-chan tracking.Update {
	s.wake = wake
	out := make(chan tracking.Update, len(s.updates))
	for _, update := range s.updates {
		out <- update
	}
	close(out)
	return out
}
