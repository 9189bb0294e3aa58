package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/waitwise/backend/internal/adapters/events"
	"github.com/zatekoja/waitwise/backend/internal/adapters/locking"
	"github.com/zatekoja/waitwise/backend/internal/adapters/memory"
	"github.com/zatekoja/waitwise/backend/internal/application/services"
	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	"github.com/zatekoja/waitwise/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/waitwise/backend/pkg/errors"
)

type MockSMSSender struct {
	mock.Mock
	mu   sync.Mutex
	sent []string
}

func (m *MockSMSSender) SendSMS(ctx context.Context, to, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, body)
	m.mu.Unlock()
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

func (m *MockSMSSender) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, msg providers.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// queueEnv wires the queue over in-memory repositories
type queueEnv struct {
	users        *memory.UserRepository
	clinics      *memory.ClinicRepository
	appointments *memory.AppointmentRepository
	bus          *events.MemoryEventBus
	sms          *MockSMSSender
	email        *MockEmailSender
	notifier     *services.NotificationService
	queue        *services.QueueService
}

func newQueueEnv(t *testing.T) *queueEnv {
	t.Helper()
	clinics := memory.NewClinicRepository()
	env := &queueEnv{
		users:        memory.NewUserRepository(),
		clinics:      clinics,
		appointments: memory.NewAppointmentRepository(clinics),
		bus:          events.NewMemoryEventBus(),
		sms:          new(MockSMSSender),
		email:        new(MockEmailSender),
	}
	env.sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	env.email.On("SendEmail", mock.Anything, mock.Anything).Return(nil)

	env.notifier = services.NewNotificationService(env.sms, env.email, nil, zerolog.Nop())
	env.queue = services.NewQueueService(services.QueueDependencies{
		Appointments: env.appointments,
		Clinics:      env.clinics,
		Users:        env.users,
		Locker:       locking.NewMemoryLocker(),
		Events:       env.bus,
		Notifier:     env.notifier,
	}, 15, zerolog.Nop())
	t.Cleanup(func() { env.bus.Close() })
	return env
}

// queueOver builds a second queue service sharing the environment's users
// and clinics but writing appointments through appointments
func (e *queueEnv) queueOver(appointments repositories.AppointmentRepository) *services.QueueService {
	return services.NewQueueService(services.QueueDependencies{
		Appointments: appointments,
		Clinics:      e.clinics,
		Users:        e.users,
		Locker:       locking.NewMemoryLocker(),
	}, 15, zerolog.Nop())
}

// rolledBackChanges fails the next status changes without writing anything,
// as a store does when its transaction is rolled back
type rolledBackChanges struct {
	repositories.AppointmentRepository
	mu       sync.Mutex
	failures int
}

func (r *rolledBackChanges) ApplyStatusChange(ctx context.Context, change repositories.StatusChange) error {
	r.mu.Lock()
	fail := r.failures > 0
	if fail {
		r.failures--
	}
	r.mu.Unlock()
	if fail {
		return apperrors.NewInternalError("failed to compact queue", errors.New("connection reset by peer"))
	}
	return r.AppointmentRepository.ApplyStatusChange(ctx, change)
}

func (e *queueEnv) addClinic(t *testing.T, id, name string) *entities.Clinic {
	t.Helper()
	clinic := &entities.Clinic{ID: id, Name: name, Address: "123 Main St", CurrentWait: 25, Capacity: 30}
	require.NoError(t, e.clinics.Create(context.Background(), clinic))
	return clinic
}

func (e *queueEnv) addUser(t *testing.T, id string) *entities.User {
	t.Helper()
	user := &entities.User{
		ID:     id,
		Name:   "Patient " + id,
		Email:  id + "@example.com",
		Phone:  "555-0100",
		IDType: entities.IDTypeHealthcard,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *queueEnv) book(t *testing.T, userID, clinicID string) *entities.Appointment {
	t.Helper()
	appointment, err := e.queue.Book(context.Background(), services.BookInput{UserID: userID, ClinicID: clinicID})
	require.NoError(t, err)
	return appointment
}

// queuedPositions returns queued appointment IDs and positions in order
func (e *queueEnv) queuedPositions(t *testing.T, clinicID string) ([]string, []int) {
	t.Helper()
	queued, err := e.queue.ListQueue(context.Background(), clinicID)
	require.NoError(t, err)
	ids := make([]string, len(queued))
	positions := make([]int, len(queued))
	for i, appointment := range queued {
		ids[i] = appointment.ID
		positions[i] = appointment.Position
	}
	return ids, positions
}

func (e *queueEnv) activePatients(t *testing.T, clinicID string) int {
	t.Helper()
	clinic, err := e.clinics.GetByID(context.Background(), clinicID)
	require.NoError(t, err)
	return clinic.ActivePatients
}

func denseUpTo(n int) []int {
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i + 1
	}
	return positions
}
