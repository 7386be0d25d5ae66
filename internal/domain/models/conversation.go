package models

import (
	"time"
)

// MessageRole identifies who authored a conversation message
type MessageRole string

const (
	RoleSender MessageRole = "scammer"
	RoleAgent  MessageRole = "agent"
)

// Message is one entry in a conversation log
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Conversation is the accumulated state of one honeypot session.
// Messages are append-only; ScamDetected and AgentActive never revert and
// ConfidenceScore never decreases.
type Conversation struct {
	ID              string    `json:"conversation_id"`
	Messages        []Message `json:"messages"`
	ScamDetected    bool      `json:"scam_detected"`
	AgentActive     bool      `json:"agent_active"`
	ConfidenceScore float64   `json:"confidence_score"`
	StartTime       time.Time `json:"start_time"`
	LastActivity    time.Time `json:"last_activity"`
}

// EngagementMetrics summarizes how long a sender has been kept talking
type EngagementMetrics struct {
	TurnCount                 int     `json:"turn_count"`
	EngagementDurationSeconds float64 `json:"engagement_duration_seconds"`
	MessagesExchanged         int     `json:"messages_exchanged"`
}

// NewConversation starts an empty conversation at the given time
func NewConversation(id string, now time.Time) *Conversation {
	return &Conversation{
		ID:           id,
		Messages:     []Message{},
		StartTime:    now,
		LastActivity: now,
	}
}

// TurnCount is the number of sender/agent pairs, counting a dangling message
// as a full turn.
func (c *Conversation) TurnCount() int {
	return (len(c.Messages) + 1) / 2
}

// EngagementDuration is the time between the first and latest activity
func (c *Conversation) EngagementDuration() time.Duration {
	return c.LastActivity.Sub(c.StartTime)
}

// Metrics returns the derived engagement metrics
func (c *Conversation) Metrics() EngagementMetrics {
	return EngagementMetrics{
		TurnCount:                 c.TurnCount(),
		EngagementDurationSeconds: c.EngagementDuration().Seconds(),
		MessagesExchanged:         len(c.Messages),
	}
}

// Snapshot returns a deep copy safe to hand out of the store
func (c *Conversation) Snapshot() *Conversation {
	cp := *c
	cp.Messages = make([]Message, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}

// TailMessages copies the last max messages (all when max <= 0)
func TailMessages(messages []Message, max int) []Message {
	start := 0
	if max > 0 && len(messages) > max {
		start = len(messages) - max
	}
	out := make([]Message, len(messages)-start)
	copy(out, messages[start:])
	return out
}

// InboundResult is what the honeypot pipeline returns for one sender message
type InboundResult struct {
	ConversationID string                 `json:"conversation_id"`
	Reply          string                 `json:"response_message"`
	IsScam         bool                   `json:"scam_detected"`
	Confidence     float64                `json:"confidence_score"`
	Intelligence   *ExtractedIntelligence `json:"extracted_intelligence"`
	Metrics        EngagementMetrics      `json:"engagement_metrics"`
	AgentActive    bool                   `json:"agent_active"`
}

// ConversationReport is a conversation snapshot with its derived data
type ConversationReport struct {
	*Conversation
	Intelligence *ExtractedIntelligence `json:"extracted_intelligence"`
	Metrics      EngagementMetrics      `json:"metrics"`
}
