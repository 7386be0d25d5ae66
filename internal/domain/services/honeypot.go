package services

import (
	"context"
	"fmt"
	"math"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/internal/domain/services/ai"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// Reply sent when the pipeline fails unexpectedly
const recoveryReply = "Hello! How can I help you today?"

// EventPublisher receives honeypot events. Publishing is best effort.
type EventPublisher interface {
	PublishScamDetected(ctx context.Context, conv *models.Conversation, detection models.DetectionResult) error
	PublishIntelligence(ctx context.Context, conversationID string, novel *models.ExtractedIntelligence) error
}

// HoneypotService runs the per-message pipeline: record, score, reply, mine
type HoneypotService struct {
	store        ConversationStore
	detector     *ai.ScamDetector
	extractor    *ai.EntityExtractor
	policy       *ai.ResponsePolicy
	publisher    EventPublisher
	replyHistory int
	logger       *logger.Logger
}

// HoneypotConfig holds pipeline tuning
type HoneypotConfig struct {
	ReplyHistory int
}

// NewHoneypotService creates a new HoneypotService. publisher may be nil.
func NewHoneypotService(
	cfg HoneypotConfig,
	store ConversationStore,
	detector *ai.ScamDetector,
	extractor *ai.EntityExtractor,
	policy *ai.ResponsePolicy,
	publisher EventPublisher,
	log *logger.Logger,
) *HoneypotService {
	if cfg.ReplyHistory <= 0 {
		cfg.ReplyHistory = 6
	}
	return &HoneypotService{
		store:        store,
		detector:     detector,
		extractor:    extractor,
		policy:       policy,
		publisher:    publisher,
		replyHistory: cfg.ReplyHistory,
		logger:       log.WithComponent("honeypot"),
	}
}

type pendingEvents struct {
	scamDetected *models.Conversation
	detection    models.DetectionResult
	novel        *models.ExtractedIntelligence
}

// ProcessInbound handles one sender message end to end. It always returns a
// complete result; internal faults yield a conservative non-scam answer.
func (s *HoneypotService) ProcessInbound(ctx context.Context, conversationID, text string) (result *models.InboundResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("conversation_id", conversationID).
				Interface("panic", r).
				Msg("recovered from pipeline fault")
			result = conservativeResult(conversationID)
		}
	}()

	result, events, err := s.process(ctx, conversationID, text)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("pipeline failed")
		return conservativeResult(conversationID)
	}

	s.publish(ctx, conversationID, events)
	return result
}

// process holds the session lock for the whole read-modify-write sequence
func (s *HoneypotService) process(ctx context.Context, conversationID, text string) (*models.InboundResult, pendingEvents, error) {
	var events pendingEvents

	unlock := s.store.Lock(conversationID)
	defer unlock()

	prior := s.store.GetOrCreate(conversationID)
	history := prior.Messages

	if _, err := s.store.Append(conversationID, models.RoleSender, text); err != nil {
		return nil, events, fmt.Errorf("failed to append sender message: %w", err)
	}

	detection := s.detector.Detect(ctx, text, history)
	if err := s.store.UpdateConfidence(conversationID, detection.Confidence); err != nil {
		return nil, events, fmt.Errorf("failed to update confidence: %w", err)
	}
	if detection.IsScam {
		if err := s.store.MarkScamDetected(conversationID, detection.Confidence); err != nil {
			return nil, events, fmt.Errorf("failed to mark scam: %w", err)
		}
	}

	playAlong := detection.IsScam || prior.ScamDetected
	reply := s.policy.Reply(ctx, text, models.TailMessages(history, s.replyHistory), playAlong)

	conv, err := s.store.Append(conversationID, models.RoleAgent, reply)
	if err != nil {
		return nil, events, fmt.Errorf("failed to append agent reply: %w", err)
	}

	intel := s.extractor.ExtractFromConversation(conv.Messages)

	if detection.IsScam && !prior.ScamDetected {
		events.scamDetected = conv
		events.detection = detection
	}
	previous := s.extractor.ExtractFromConversation(history)
	if novel := intel.Difference(previous); !novel.IsEmpty() {
		events.novel = novel
	}

	s.logger.Debug().
		Str("conversation_id", conversationID).
		Bool("is_scam", detection.IsScam).
		Float64("confidence", detection.Confidence).
		Int("message_len", len(text)).
		Int("indicators", intel.Count()).
		Msg("message processed")

	return &models.InboundResult{
		ConversationID: conversationID,
		Reply:          reply,
		IsScam:         detection.IsScam || conv.ScamDetected,
		Confidence:     math.Max(detection.Confidence, conv.ConfidenceScore),
		Intelligence:   intel,
		Metrics:        conv.Metrics(),
		AgentActive:    conv.AgentActive,
	}, events, nil
}

func (s *HoneypotService) publish(ctx context.Context, conversationID string, events pendingEvents) {
	if s.publisher == nil {
		return
	}
	if events.scamDetected != nil {
		if err := s.publisher.PublishScamDetected(ctx, events.scamDetected, events.detection); err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to publish scam event")
		}
	}
	if events.novel != nil {
		if err := s.publisher.PublishIntelligence(ctx, conversationID, events.novel); err != nil {
			s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to publish intelligence event")
		}
	}
}

func conservativeResult(conversationID string) *models.InboundResult {
	return &models.InboundResult{
		ConversationID: conversationID,
		Reply:          recoveryReply,
		Intelligence:   models.NewExtractedIntelligence(),
	}
}

// GetConversation returns a snapshot with its mined intelligence and metrics
func (s *HoneypotService) GetConversation(conversationID string) (*models.ConversationReport, error) {
	conv, err := s.store.Get(conversationID)
	if err != nil {
		return nil, err
	}
	return &models.ConversationReport{
		Conversation: conv,
		Intelligence: s.extractor.ExtractFromConversation(conv.Messages),
		Metrics:      conv.Metrics(),
	}, nil
}

// DeleteConversation removes a conversation
func (s *HoneypotService) DeleteConversation(conversationID string) error {
	unlock := s.store.Lock(conversationID)
	defer unlock()
	return s.store.Delete(conversationID)
}

// Detect scores a standalone message without touching any conversation
func (s *HoneypotService) Detect(ctx context.Context, text string) models.DetectionResult {
	return s.detector.Detect(ctx, text, nil)
}

// Extract mines a standalone text without touching any conversation
func (s *HoneypotService) Extract(text string) *models.ExtractedIntelligence {
	return s.extractor.ExtractFromText(text)
}

// ActiveConversations returns the number of live conversations
func (s *HoneypotService) ActiveConversations() int {
	return s.store.Count()
}
