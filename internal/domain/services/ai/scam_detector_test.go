package ai

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

type fakeAssessor struct {
	assessment *models.ExternalAssessment
	err        error
	delay      time.Duration
	calls      int
	history    []models.Message
}

func (f *fakeAssessor) Assess(ctx context.Context, message string, history []models.Message) (*models.ExternalAssessment, error) {
	f.calls++
	f.history = history
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.assessment, f.err
}

func newTestDetector(assessor Assessor) *ScamDetector {
	return NewScamDetector(DetectorConfig{ExternalTimeout: 50 * time.Millisecond, HistoryWindow: 5}, assessor, logger.NewNop())
}

func TestScamDetector_EndToEndScenario(t *testing.T) {
	d := newTestDetector(nil)

	result := d.Detect(context.Background(),
		"Congratulations! You won Rs 50000. Send your bank account and IFSC SBIN0001234 to claim. Call 9876543210.", nil)

	assert.True(t, result.IsScam)
	assert.GreaterOrEqual(t, result.Confidence, ScamThreshold)
	assert.Contains(t, result.Reason, "Scam keywords detected: ")
	assert.False(t, result.Signals.ExternalAvailable)
	assert.Equal(t, 0.5, result.Signals.External)
}

func TestScamDetector_ReasonListsFirstThreeKeywords(t *testing.T) {
	d := newTestDetector(nil)

	result := d.Detect(context.Background(), "lottery prize winner claim", nil)
	assert.Equal(t, "Scam keywords detected: lottery, prize, winner", result.Reason)
	assert.Len(t, result.Signals.MatchedKeywords, 4)
}

func TestScamDetector_ReasonPrecedence(t *testing.T) {
	ext := &fakeAssessor{assessment: &models.ExternalAssessment{IsScam: true, Confidence: 0.9, Reason: "impersonation"}}

	t.Run("external reason when no keywords", func(t *testing.T) {
		result := newTestDetector(ext).Detect(context.Background(), "hello there", nil)
		assert.Equal(t, "impersonation", result.Reason)
	})

	t.Run("generic when nothing else", func(t *testing.T) {
		result := newTestDetector(nil).Detect(context.Background(), "hello there", nil)
		assert.Equal(t, "Pattern analysis indicates potential scam", result.Reason)
	})
}

func TestScamDetector_NeutralFallbackIsExplicit(t *testing.T) {
	ctx := context.Background()
	msg := "good morning sir"

	tests := []struct {
		name     string
		assessor Assessor
	}{
		{"no assessor", nil},
		{"error", &fakeAssessor{err: errors.New("boom")}},
		{"timeout", &fakeAssessor{assessment: &models.ExternalAssessment{Confidence: 1}, delay: time.Second}},
		{"nil assessment", &fakeAssessor{}},
		{"nan", &fakeAssessor{assessment: &models.ExternalAssessment{Confidence: math.NaN()}}},
		{"out of range", &fakeAssessor{assessment: &models.ExternalAssessment{Confidence: 7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestDetector(tt.assessor).Detect(ctx, msg, nil)
			assert.False(t, result.Signals.ExternalAvailable)
			assert.Equal(t, NeutralExternalAssessment.Confidence, result.Signals.External)
			// neutral external alone: 0.40 * 0.5
			assert.InDelta(t, 0.2, result.Confidence, 1e-9)
			assert.False(t, result.IsScam)
		})
	}
}

func TestScamDetector_ExternalSignalUsed(t *testing.T) {
	ext := &fakeAssessor{assessment: &models.ExternalAssessment{IsScam: true, Confidence: 1.0, Reason: "fraud"}}
	result := newTestDetector(ext).Detect(context.Background(), "good morning sir", nil)

	assert.True(t, result.Signals.ExternalAvailable)
	assert.InDelta(t, 0.4, result.Confidence, 1e-9)
	assert.False(t, result.IsScam)
}

func TestScamDetector_HistoryWindow(t *testing.T) {
	ext := &fakeAssessor{assessment: &models.ExternalAssessment{Confidence: 0.5}}
	d := newTestDetector(ext)

	history := make([]models.Message, 8)
	for i := range history {
		history[i] = models.Message{Role: models.RoleSender, Content: string(rune('a' + i))}
	}

	d.Detect(context.Background(), "next", history)
	require.Len(t, ext.history, 5)
	assert.Equal(t, "d", ext.history[0].Content)
}

func TestScamDetector_ConfidenceBounds(t *testing.T) {
	ext := &fakeAssessor{assessment: &models.ExternalAssessment{Confidence: 1.0}}
	d := newTestDetector(ext)

	messages := []string{
		"",
		"hi",
		"URGENT!!! IMMEDIATELY NOW TODAY ONLY LIMITED TIME lottery won prize lakh crore million Rs 5,00,000 send your OTP share your pin provide your cvv give me your password",
		"click the link to download the app for cashback offer",
	}

	for _, msg := range messages {
		result := d.Detect(context.Background(), msg, nil)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 1.0)
		assert.Equal(t, result.Confidence >= ScamThreshold, result.IsScam)
	}
}

func TestScamDetector_WordEndingInRsIsNotAnAmount(t *testing.T) {
	d := newTestDetector(nil)

	result := d.Detect(context.Background(), "Hello brothers, please share the app link for the offer.", nil)
	assert.Zero(t, result.Signals.Pattern)
	assert.False(t, result.IsScam)
	assert.Less(t, result.Confidence, ScamThreshold)
}

func TestKeywordSignal(t *testing.T) {
	score, matched := KeywordSignal("Please TRANSFER the payment")
	assert.InDelta(t, 0.3, score, 1e-9)
	assert.Equal(t, []string{"transfer", "payment"}, matched)

	score, _ = KeywordSignal("lottery prize winner claim reward")
	assert.Equal(t, 1.0, score)

	score, matched = KeywordSignal("good morning")
	assert.Zero(t, score)
	assert.Empty(t, matched)
}

func TestPatternSignal(t *testing.T) {
	d := newTestDetector(nil)

	tests := []struct {
		name string
		msg  string
		want float64
	}{
		{"none", "good morning", 0},
		{"urgency", "reply urgent!!!", 0.4},
		{"currency", "pay ₹500", 0.25},
		{"currency letters without digits", "Thanks brothers.", 0},
		{"possessive is not rupees", "Send yours, please", 0.25},
		{"denomination", "5 lakh", 0.3},
		{"sensitive request", "share your details", 0.25},
		{"capped", "URGENT!!! NOW send your share your 10 lakh crore", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, d.PatternSignal(tt.msg), 1e-9)
		})
	}
}
