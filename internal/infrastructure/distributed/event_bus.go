package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrClosed is returned by Run once Close has been called.
var ErrClosed = errors.New("event bus closed")

// envelope is the wire form on the relay channel
type envelope struct {
	InstanceID string       `json:"instance_id"`
	Event      domain.Event `json:"event"`
}

// EventBus delivers events to the local publisher and relays them to other
// instances over Redis pub/sub. Relayed events are handed to their local
// publisher only, so they never bounce back onto the channel.
type EventBus struct {
	client     *redis.Client
	instanceID string
	channel    string
	local      ports.EventPublisher
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	pubsub *redis.PubSub
	closed bool
}

func NewEventBus(
	client *redis.Client,
	channel string,
	instanceID string,
	local ports.EventPublisher,
	logger *zap.SugaredLogger,
) *EventBus {
	return &EventBus{
		client:     client,
		instanceID: instanceID,
		channel:    channel,
		local:      local,
		logger:     logger,
	}
}

// Publish delivers locally first. A relay failure is returned but the local
// observers have already been served.
func (eb *EventBus) Publish(ctx context.Context, event domain.Event) error {
	if err := eb.local.Publish(ctx, event); err != nil {
		return err
	}

	data, err := json.Marshal(envelope{InstanceID: eb.instanceID, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := eb.client.Publish(ctx, eb.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to relay event: %w", err)
	}

	eb.logger.Debugw("relayed event", "type", event.Type, "channel", eb.channel)
	return nil
}

// Run forwards events from other instances to the local publisher until ctx is done
func (eb *EventBus) Run(ctx context.Context) error {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return ErrClosed
	}
	if eb.pubsub != nil {
		eb.mu.Unlock()
		return fmt.Errorf("already subscribed")
	}
	pubsub := eb.client.Subscribe(ctx, eb.channel)
	eb.pubsub = pubsub
	eb.mu.Unlock()
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			eb.handle(ctx, msg.Payload)
		}
	}
}

func (eb *EventBus) handle(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		eb.logger.Warnw("failed to unmarshal relayed event",
			"error", err,
			"payload", payload,
		)
		return
	}

	if env.InstanceID == eb.instanceID {
		return
	}

	if err := eb.local.Publish(ctx, env.Event); err != nil {
		eb.logger.Warnw("error delivering relayed event",
			"type", env.Event.Type,
			"from", env.InstanceID,
			"error", err,
		)
	}
}

// Close ends the subscription, which makes a running Run return. Later
// calls to Run fail with ErrClosed.
func (eb *EventBus) Close() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return nil
	}
	eb.closed = true
	if eb.pubsub != nil {
		return eb.pubsub.Close()
	}
	return nil
}
