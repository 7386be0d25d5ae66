package streaming

import (
	"time"

	"github.com/google/uuid"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
)

// EventType represents the type of honeypot event
type EventType string

const (
	EventTypeScamDetected EventType = "scam_detected"
	EventTypeIntelligence EventType = "intelligence"
)

// HoneypotEvent is a real-time notification about an engaged conversation
type HoneypotEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Origin identifies the process that produced the event
	Origin string `json:"origin,omitempty"`

	ConversationID string  `json:"conversation_id"`
	Confidence     float64 `json:"confidence,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	TurnCount      int     `json:"turn_count,omitempty"`

	// Newly seen indicators, set on intelligence events
	Intelligence *models.ExtractedIntelligence `json:"intelligence,omitempty"`
	Categories   []string                      `json:"categories,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewScamDetectedEvent creates an event for a conversation's first scam verdict
func NewScamDetectedEvent(conv *models.Conversation, detection models.DetectionResult) *HoneypotEvent {
	return &HoneypotEvent{
		ID:             uuid.New().String(),
		Type:           EventTypeScamDetected,
		Timestamp:      time.Now(),
		ConversationID: conv.ID,
		Confidence:     detection.Confidence,
		Reason:         detection.Reason,
		TurnCount:      conv.TurnCount(),
		Metadata: map[string]any{
			"matched_keywords":   detection.Signals.MatchedKeywords,
			"external_available": detection.Signals.ExternalAvailable,
		},
	}
}

// NewIntelligenceEvent creates an event carrying newly extracted indicators
func NewIntelligenceEvent(conversationID string, novel *models.ExtractedIntelligence) *HoneypotEvent {
	var categories []string
	for _, category := range []string{
		models.CategoryBankAccount,
		models.CategoryIFSC,
		models.CategoryUPI,
		models.CategoryURL,
		models.CategoryPhone,
	} {
		if len(novel.ByCategory()[category]) > 0 {
			categories = append(categories, category)
		}
	}

	return &HoneypotEvent{
		ID:             uuid.New().String(),
		Type:           EventTypeIntelligence,
		Timestamp:      time.Now(),
		ConversationID: conversationID,
		Intelligence:   novel,
		Categories:     categories,
	}
}

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by event types (empty = all)
	Types []EventType `json:"types,omitempty"`

	// Filter intelligence events by indicator category (empty = all)
	Categories []string `json:"categories,omitempty"`

	// Filter by conversations (empty = all)
	ConversationIDs []string `json:"conversation_ids,omitempty"`

	// Drop scam events below this confidence
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *HoneypotEvent) bool {
	if s == nil {
		return true
	}

	if len(s.Types) > 0 && !containsType(s.Types, event.Type) {
		return false
	}

	if len(s.ConversationIDs) > 0 && !containsString(s.ConversationIDs, event.ConversationID) {
		return false
	}

	if event.Type == EventTypeScamDetected && event.Confidence < s.MinConfidence {
		return false
	}

	if event.Type == EventTypeIntelligence && len(s.Categories) > 0 {
		found := false
		for _, c := range event.Categories {
			if containsString(s.Categories, c) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func containsType(types []EventType, t EventType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
