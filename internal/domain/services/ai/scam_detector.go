package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

const defaultPatternReason = "Pattern analysis indicates potential scam"

// Assessor is an external text-classification capability
type Assessor interface {
	Assess(ctx context.Context, message string, history []models.Message) (*models.ExternalAssessment, error)
}

// NeutralExternalAssessment is the signal used whenever the external assessor
// is missing, fails, times out or answers with something unusable.
var NeutralExternalAssessment = models.ExternalAssessment{
	IsScam:     false,
	Confidence: 0.5,
	Reason:     "",
}

// ScamDetector combines keyword, structural and external signals into one
// scam verdict. It never returns an error.
type ScamDetector struct {
	logger          *logger.Logger
	patterns        *PatternLibrary
	assessor        Assessor
	externalTimeout time.Duration
	historyWindow   int
}

// DetectorConfig holds scorer tuning
type DetectorConfig struct {
	ExternalTimeout time.Duration
	HistoryWindow   int
}

// NewScamDetector creates a new scam detector. assessor may be nil.
func NewScamDetector(cfg DetectorConfig, assessor Assessor, log *logger.Logger) *ScamDetector {
	if cfg.ExternalTimeout <= 0 {
		cfg.ExternalTimeout = 8 * time.Second
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	return &ScamDetector{
		logger:          log.WithComponent("scam-detector"),
		patterns:        NewPatternLibrary(),
		assessor:        assessor,
		externalTimeout: cfg.ExternalTimeout,
		historyWindow:   cfg.HistoryWindow,
	}
}

// Detect scores a message. history holds the messages that preceded it.
func (d *ScamDetector) Detect(ctx context.Context, message string, history []models.Message) models.DetectionResult {
	keywordScore, matched := KeywordSignal(message)
	patternScore := d.PatternSignal(message)
	external, available := d.externalSignal(ctx, message, history)

	confidence := clamp01(
		keywordSignalWeight*keywordScore +
			patternSignalWeight*patternScore +
			externalSignalWeight*external.Confidence,
	)

	var reason string
	switch {
	case len(matched) > 0:
		n := len(matched)
		if n > maxReasonKeywords {
			n = maxReasonKeywords
		}
		reason = "Scam keywords detected: " + strings.Join(matched[:n], ", ")
	case external.Reason != "":
		reason = external.Reason
	default:
		reason = defaultPatternReason
	}

	return models.DetectionResult{
		IsScam:     confidence >= ScamThreshold,
		Confidence: confidence,
		Reason:     reason,
		Signals: models.DetectionSignals{
			Keyword:           keywordScore,
			Pattern:           patternScore,
			External:          external.Confidence,
			ExternalAvailable: available,
			MatchedKeywords:   matched,
		},
	}
}

// KeywordSignal returns the lexicon score in [0,1] and the keywords that hit,
// high-confidence terms first.
func KeywordSignal(message string) (float64, []string) {
	lower := strings.ToLower(message)
	var score float64
	var matched []string
	for _, kw := range highConfidenceKeywords {
		if strings.Contains(lower, kw) {
			score += highKeywordWeight
			matched = append(matched, kw)
		}
	}
	for _, kw := range mediumConfidenceKeywords {
		if strings.Contains(lower, kw) {
			score += mediumKeywordWeight
			matched = append(matched, kw)
		}
	}
	return math.Min(score, 1.0), matched
}

// PatternSignal scores structural scam markers in [0,1]
func (d *ScamDetector) PatternSignal(message string) float64 {
	upper := strings.ToUpper(message)
	lower := strings.ToLower(message)

	var score float64
	for _, marker := range urgencyMarkers {
		if strings.Contains(upper, marker) {
			score += urgencyWeight
		}
	}
	if d.patterns.HasAmount(message) {
		score += amountWeight
	}
	for _, word := range largeDenominations {
		if strings.Contains(lower, word) {
			score += denominationWeight
		}
	}
	for _, phrase := range sensitiveRequests {
		if strings.Contains(lower, phrase) {
			score += sensitiveWeight
		}
	}
	return math.Min(score, 1.0)
}

// externalSignal asks the assessor, bounded by the external timeout, and
// falls back to NeutralExternalAssessment on any problem.
func (d *ScamDetector) externalSignal(ctx context.Context, message string, history []models.Message) (models.ExternalAssessment, bool) {
	if d.assessor == nil {
		return NeutralExternalAssessment, false
	}

	ctx, cancel := context.WithTimeout(ctx, d.externalTimeout)
	defer cancel()

	assessment, err := d.assessor.Assess(ctx, message, models.TailMessages(history, d.historyWindow))
	if err != nil {
		d.logger.Warn().Err(err).Msg("external assessment unavailable, using neutral signal")
		return NeutralExternalAssessment, false
	}
	if err := validateAssessment(assessment); err != nil {
		d.logger.Warn().Err(err).Msg("external assessment unusable, using neutral signal")
		return NeutralExternalAssessment, false
	}
	return *assessment, true
}

func validateAssessment(a *models.ExternalAssessment) error {
	if a == nil {
		return fmt.Errorf("empty assessment")
	}
	if math.IsNaN(a.Confidence) || a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence out of range: %v", a.Confidence)
	}
	return nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
