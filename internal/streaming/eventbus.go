package streaming

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

const subscriberBuffer = 100

// EventBus distributes honeypot events to local subscribers and, when
// configured, to other instances over NATS.
type EventBus struct {
	nats   *NATSPublisher
	origin string
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]*subscriber
}

type subscriber struct {
	ch     chan *HoneypotEvent
	sub    *Subscription
	cancel context.CancelFunc
}

// NewEventBus creates a new event bus. nats may be nil.
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		origin:      uuid.New().String(),
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]*subscriber),
	}
}

// Publish publishes an event to NATS (if connected) and all local subscribers
func (eb *EventBus) Publish(ctx context.Context, event *HoneypotEvent) error {
	event.Origin = eb.origin

	if eb.nats != nil && eb.nats.IsConnected() {
		if err := eb.nats.PublishEvent(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Msg("failed to publish to NATS, using local broadcast only")
		}
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, s := range eb.subscribers {
		if !s.sub.Matches(event) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}

	return nil
}

// Subscribe creates a new subscription and returns a channel for events.
// Events published by other instances arrive through NATS when connected.
func (eb *EventBus) Subscribe(ctx context.Context, sub *Subscription) (<-chan *HoneypotEvent, func()) {
	ctx, cancel := context.WithCancel(ctx)
	id := uuid.New().String()
	s := &subscriber{
		ch:     make(chan *HoneypotEvent, subscriberBuffer),
		sub:    sub,
		cancel: cancel,
	}

	// Remote consumer first: a counted subscriber already receives remote events
	var natsCh <-chan *HoneypotEvent
	if eb.nats != nil && eb.nats.IsConnected() {
		var err error
		natsCh, err = eb.nats.Subscribe(ctx, sub)
		if err != nil {
			eb.logger.Warn().Err(err).Msg("failed to subscribe to NATS, local events only")
		}
	}

	eb.mu.Lock()
	eb.subscribers[id] = s
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Msg("new subscriber")

	unsubscribe := func() {
		cancel()
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(s.ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}

	if natsCh != nil {
		go eb.forward(ctx, id, natsCh)
	}

	return s.ch, unsubscribe
}

// forward relays remote events, skipping ones this bus already delivered locally
func (eb *EventBus) forward(ctx context.Context, id string, natsCh <-chan *HoneypotEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-natsCh:
			if !ok {
				return
			}
			if event.Origin == eb.origin {
				continue
			}
			eb.deliver(id, event)
		}
	}
}

func (eb *EventBus) deliver(id string, event *HoneypotEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	s, ok := eb.subscribers[id]
	if !ok {
		return
	}
	select {
	case s.ch <- event:
	default:
		eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping remote event")
	}
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close closes every subscription and the NATS connection
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, s := range eb.subscribers {
		s.cancel()
		close(s.ch)
		delete(eb.subscribers, id)
	}

	if eb.nats != nil {
		eb.nats.Close()
	}
}
