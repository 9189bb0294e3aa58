// Package tracking follows a single appointment through the queue and turns
// successive reads into a stream of updates.
package tracking

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

// UpdateKind names the change an Update reports
type UpdateKind string

const (
	KindSnapshot        UpdateKind = "snapshot"
	KindGetReady        UpdateKind = "get_ready"
	KindPositionChanged UpdateKind = "position_changed"
	KindStatusChanged   UpdateKind = "status_changed"
	KindCompleted       UpdateKind = "completed"
	KindCancelled       UpdateKind = "cancelled"
)

// Update is one observation emitted by Track
type Update struct {
	Kind                 UpdateKind                 `json:"kind"`
	AppointmentID        string                     `json:"appointment_id"`
	Status               entities.AppointmentStatus `json:"status"`
	PreviousStatus       entities.AppointmentStatus `json:"previous_status,omitempty"`
	Position             int                        `json:"position"`
	PreviousPosition     int                        `json:"previous_position,omitempty"`
	EstimatedWaitMinutes int                        `json:"estimated_wait_minutes"`
	Timestamp            time.Time                  `json:"timestamp"`
}

// Source reads the current state of an appointment
type Source interface {
	GetAppointment(ctx context.Context, appointmentID string) (*entities.AppointmentView, error)
}

// Config holds tracker settings
type Config struct {
	// Interval between reads
	Interval time.Duration
	// GetReadyPosition is the queued position at or below which the
	// patient is told to get ready
	GetReadyPosition int
}

// DefaultConfig returns a 5 second interval and a get-ready position of 2
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Second, GetReadyPosition: 2}
}

// Tracker polls appointments on a fixed interval
type Tracker struct {
	source Source
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a tracker. Zero config values fall back to DefaultConfig.
func New(source Source, cfg Config, logger zerolog.Logger) *Tracker {
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.GetReadyPosition <= 0 {
		cfg.GetReadyPosition = defaults.GetReadyPosition
	}
	return &Tracker{
		source: source,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Track reads the appointment immediately and then on every tick or wake
// signal. The returned channel closes when the appointment reaches a
// terminal status or ctx is done. Read failures are logged and retried on
// the next tick. wake may be nil.
func (t *Tracker) Track(ctx context.Context, appointmentID string, wake <-chan struct{}) <-chan Update {
	updates := make(chan Update, 16)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(t.cfg.Interval)
		defer ticker.Stop()

		s := &trackState{}
		for {
			if done := t.poll(ctx, appointmentID, s, updates); done {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case _, ok := <-wake:
				if !ok {
					wake = nil
				}
			}
		}
	}()

	return updates
}

type trackState struct {
	last     *entities.AppointmentView
	getReady bool
}

// poll performs one read and emits its updates. It reports true when
// tracking is over.
func (t *Tracker) poll(ctx context.Context, appointmentID string, s *trackState, updates chan<- Update) bool {
	current, err := t.source.GetAppointment(ctx, appointmentID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		t.logger.Warn().Err(err).Str("appointment_id", appointmentID).Msg("Appointment read failed, retrying on next tick")
		return false
	}

	for _, update := range t.diff(s, current) {
		select {
		case updates <- update:
		case <-ctx.Done():
			return true
		}
	}
	s.last = current
	return current.Status.IsTerminal()
}

func (t *Tracker) diff(s *trackState, current *entities.AppointmentView) []Update {
	var out []Update
	emit := func(kind UpdateKind) *Update {
		out = append(out, Update{
			Kind:                 kind,
			AppointmentID:        current.ID,
			Status:               current.Status,
			Position:             current.Position,
			EstimatedWaitMinutes: current.EstimatedWaitMinutes,
			Timestamp:            t.now(),
		})
		return &out[len(out)-1]
	}

	previous := s.last
	switch {
	case previous == nil:
		emit(KindSnapshot)
	case previous.Status != current.Status:
		emit(KindStatusChanged).PreviousStatus = previous.Status
	case previous.Position != current.Position:
		emit(KindPositionChanged).PreviousPosition = previous.Position
	}

	if !s.getReady && current.IsQueued() && current.Position <= t.cfg.GetReadyPosition {
		s.getReady = true
		emit(KindGetReady)
	}

	switch current.Status {
	case entities.AppointmentStatusCompleted:
		emit(KindCompleted)
	case entities.AppointmentStatusCancelled:
		emit(KindCancelled)
	}
	return out
}
