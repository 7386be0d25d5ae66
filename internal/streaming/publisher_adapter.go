package streaming

import (
	"context"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
)

// EventBusPublisher implements services.EventPublisher using the EventBus.
// Dashboards receive events through WebSocketHub.Relay.
type EventBusPublisher struct {
	eventBus *EventBus
}

// NewEventBusPublisher creates a new publisher adapter. eventBus may be nil.
func NewEventBusPublisher(eventBus *EventBus) *EventBusPublisher {
	return &EventBusPublisher{eventBus: eventBus}
}

// PublishScamDetected publishes the first scam verdict for a conversation
func (p *EventBusPublisher) PublishScamDetected(ctx context.Context, conv *models.Conversation, detection models.DetectionResult) error {
	return p.publish(ctx, NewScamDetectedEvent(conv, detection))
}

// PublishIntelligence publishes indicators not previously seen in the conversation
func (p *EventBusPublisher) PublishIntelligence(ctx context.Context, conversationID string, novel *models.ExtractedIntelligence) error {
	return p.publish(ctx, NewIntelligenceEvent(conversationID, novel))
}

func (p *EventBusPublisher) publish(ctx context.Context, event *HoneypotEvent) error {
	if p.eventBus == nil {
		return nil
	}
	return p.eventBus.Publish(ctx, event)
}
