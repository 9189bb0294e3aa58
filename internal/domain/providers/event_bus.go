package providers

import (
	"context"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to queue events
type EventBus interface {
	// Publish publishes an event to all subscribers of channel
	Publish(ctx context.Context, channel string, event *entities.QueueEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelQueueUpdates receives every queue event
	EventChannelQueueUpdates = "queue:updates"

	// EventChannelClinicPrefix is the prefix for clinic-specific channels
	EventChannelClinicPrefix = "clinic:"
)

// GetClinicChannel returns the channel name for a specific clinic
func GetClinicChannel(clinicID string) string {
	return EventChannelClinicPrefix + clinicID
}
