package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"llmdesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventChannel is the Redis channel change events are mirrored on
const EventChannel = "llmdesk:events"

// eventEnvelope tags a mirrored event with the instance that produced it
type eventEnvelope struct {
	InstanceID string             `json:"instance_id"`
	Event      models.ChangeEvent `json:"event"`
}

// EventBus fans change events out to in-process subscribers (the /ws/events
// stream) and, when Redis is attached, to other instances.
// A nil *EventBus discards everything published to it.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]chan models.ChangeEvent // subID -> chan
	instanceID  string
	remoteHooks []func(models.ChangeEvent)

	redis  *RedisService
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// NewEventBus creates an event bus for this instance
func NewEventBus(instanceID string) *EventBus {
	return &EventBus{
		subscribers: make(map[string]chan models.ChangeEvent),
		instanceID:  instanceID,
	}
}

// Subscribe registers a subscriber. Events are dropped for subscribers whose
// buffer is full.
func (b *EventBus) Subscribe(subID string, bufSize int) <-chan models.ChangeEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.ChangeEvent, bufSize)
	b.subscribers[subID] = ch

	log.Printf("[EVENT-BUS] Subscribe: sub=%s (total=%d)", subID, len(b.subscribers))
	return ch
}

// Unsubscribe removes a subscription. The channel is not closed.
func (b *EventBus) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, subID)
	log.Printf("[EVENT-BUS] Unsubscribe: sub=%s (remaining=%d)", subID, len(b.subscribers))
}

// OnRemote registers fn to run synchronously for every event mirrored from
// another instance, before local subscribers see it
func (b *EventBus) OnRemote(fn func(models.ChangeEvent)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remoteHooks = append(b.remoteHooks, fn)
}

// Mirrored reports whether events are exchanged with other instances
func (b *EventBus) Mirrored() bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.redis != nil
}

// SubscriberCount returns the number of local subscribers
func (b *EventBus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish stamps the event and delivers it locally and to Redis
func (b *EventBus) Publish(ctx context.Context, event models.ChangeEvent) {
	if b == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.deliver(event)

	b.mu.RLock()
	rs := b.redis
	b.mu.RUnlock()
	if rs == nil {
		return
	}

	data, err := json.Marshal(eventEnvelope{InstanceID: b.instanceID, Event: event})
	if err != nil {
		log.Printf("⚠️ [EVENT-BUS] Failed to marshal event %s: %v", event.Type, err)
		return
	}
	if err := rs.Publish(ctx, EventChannel, data); err != nil {
		log.Printf("⚠️ [EVENT-BUS] Failed to mirror event %s to Redis: %v", event.Type, err)
	}
}

func (b *EventBus) deliver(event models.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is full, skip it
		}
	}
}

// AttachRedis mirrors published events to Redis and delivers events
// published by other instances to local subscribers
func (b *EventBus) AttachRedis(ctx context.Context, rs *RedisService) error {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := rs.Subscribe(subCtx, EventChannel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", EventChannel, err)
	}

	b.mu.Lock()
	b.redis = rs
	b.pubsub = pubsub
	b.cancel = cancel
	b.mu.Unlock()

	go b.processMessages(subCtx, pubsub.Channel())

	log.Printf("✅ [EVENT-BUS] Mirroring events via Redis (instance: %s)", b.instanceID)
	return nil
}

func (b *EventBus) processMessages(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleRemote([]byte(msg.Payload))
		}
	}
}

// handleRemote delivers a mirrored event unless this instance produced it
func (b *EventBus) handleRemote(payload []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		log.Printf("⚠️ [EVENT-BUS] Failed to unmarshal mirrored event: %v", err)
		return
	}
	if envelope.InstanceID == b.instanceID {
		return
	}

	b.mu.RLock()
	hooks := b.remoteHooks
	b.mu.RUnlock()
	for _, fn := range hooks {
		fn(envelope.Event)
	}
	b.deliver(envelope.Event)
}

// Close detaches from Redis
func (b *EventBus) Close() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.redis = nil
	if b.pubsub != nil {
		err := b.pubsub.Close()
		b.pubsub = nil
		return err
	}
	return nil
}
