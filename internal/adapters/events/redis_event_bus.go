package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zatekoja/waitwise/backend/internal/domain/entities"
	"github.com/zatekoja/waitwise/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/waitwise/backend/internal/infrastructure/clients/redis"
)

type redisSubscription struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.QueueEvent]struct{}
}

// RedisEventBus implements the EventBus interface using Redis Pub/Sub. One
// Redis subscription is shared by every local subscriber of a channel.
type RedisEventBus struct {
	client        *redisclient.Client
	logger        zerolog.Logger
	subscriptions map[string]*redisSubscription
	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client, logger zerolog.Logger) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client:        client,
		logger:        logger,
		subscriptions: make(map[string]*redisSubscription),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.QueueEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug().Str("channel", channel).Str("event_id", event.ID).Str("event_type", string(event.EventType)).Msg("Published queue event")
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done, at which
// point the returned channel is closed
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		return nil, errors.New("event bus is closed")
	}

	sub, exists := b.subscriptions[channel]
	if !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		sub = &redisSubscription{
			pubsub:      pubsub,
			subscribers: make(map[chan *entities.QueueEvent]struct{}),
		}
		b.subscriptions[channel] = sub
		go b.receiveMessages(channel, sub)
	}

	eventChan := make(chan *entities.QueueEvent, 100)
	sub.subscribers[eventChan] = struct{}{}
	b.logger.Debug().Str("channel", channel).Int("subscribers", len(sub.subscribers)).Msg("Subscribed to queue events")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, sub, eventChan)
	}()

	return eventChan, nil
}

// receiveMessages fans messages from Redis out to local subscribers
func (b *RedisEventBus) receiveMessages(channel string, sub *redisSubscription) {
	for msg := range sub.pubsub.Channel() {
		var event entities.QueueEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			b.logger.Warn().Err(err).Str("channel", channel).Msg("Failed to unmarshal queue event")
			continue
		}

		b.mu.Lock()
		for subscriber := range sub.subscribers {
			select {
			case subscriber <- &event:
			default:
				b.logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber channel full, dropping event")
			}
		}
		b.mu.Unlock()
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, sub *redisSubscription, eventChan chan *entities.QueueEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := sub.subscribers[eventChan]; !ok {
		return
	}
	delete(sub.subscribers, eventChan)
	close(eventChan)

	if len(sub.subscribers) == 0 {
		_ = sub.pubsub.Close()
		if b.subscriptions[channel] == sub {
			delete(b.subscriptions, channel)
		}
		b.logger.Debug().Str("channel", channel).Msg("Closed queue event subscription")
	}
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for channel, sub := range b.subscriptions {
		for subscriber := range sub.subscribers {
			close(subscriber)
		}
		sub.subscribers = map[chan *entities.QueueEvent]struct{}{}
		if err := sub.pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close subscription %s: %w", channel, err))
		}
		delete(b.subscriptions, channel)
	}

	return errors.Join(errs...)
}
