package ai

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

type stubGenerator struct {
	reply     string
	err       error
	playAlong bool
	history   []models.Message
}

func (s *stubGenerator) GenerateReply(_ context.Context, _ string, history []models.Message, playAlong bool) (string, error) {
	s.playAlong = playAlong
	s.history = history
	return s.reply, s.err
}

func TestFallbackResponder_DeterministicWithoutSource(t *testing.T) {
	f := NewFallbackResponder(nil)

	tests := []struct {
		name      string
		msg       string
		playAlong bool
		want      string
	}{
		{"bank", "Share your bank details", true, playAlongRules[0].templates[0]},
		{"upi", "pay via PhonePe", true, playAlongRules[1].templates[0]},
		{"link", "click here", true, playAlongRules[2].templates[0]},
		{"otp", "tell me the OTP", true, playAlongRules[3].templates[0]},
		{"prize", "you are a winner", true, playAlongRules[4].templates[0]},
		{"kyc", "complete KYC", true, playAlongRules[5].templates[0]},
		{"scam default", "sir please respond", true, playAlongDefault[0]},
		{"greeting", "Namaste", false, "Namaste ji, kaun bol raha hai?"},
		{"question", "are you there?", false, "Ji haan, please tell me more."},
		{"casual default", "ok", false, "Achha ji, please continue."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Reply(tt.msg, tt.playAlong))
		})
	}
}

func TestFallbackResponder_SeededIsReproducible(t *testing.T) {
	a := NewFallbackResponder(rand.New(rand.NewSource(42)))
	b := NewFallbackResponder(rand.New(rand.NewSource(42)))

	for i := 0; i < 10; i++ {
		ra := a.Reply("send to my bank account", true)
		rb := b.Reply("send to my bank account", true)
		assert.Equal(t, ra, rb)
		assert.Contains(t, playAlongRules[0].templates, ra)
	}
}

func TestResponsePolicy(t *testing.T) {
	ctx := context.Background()
	fallback := NewFallbackResponder(nil)

	t.Run("uses generator", func(t *testing.T) {
		gen := &stubGenerator{reply: "  Haan ji, bataiye  "}
		p := NewResponsePolicy(gen, fallback, logger.NewNop())
		assert.Equal(t, "Haan ji, bataiye", p.Reply(ctx, "hello", nil, true))
		assert.True(t, gen.playAlong)
	})

	t.Run("falls back on error", func(t *testing.T) {
		p := NewResponsePolicy(&stubGenerator{err: errors.New("down")}, fallback, logger.NewNop())
		assert.Equal(t, "Namaste ji, kaun bol raha hai?", p.Reply(ctx, "hello", nil, false))
	})

	t.Run("falls back on empty reply", func(t *testing.T) {
		p := NewResponsePolicy(&stubGenerator{reply: "   "}, fallback, logger.NewNop())
		assert.NotEmpty(t, p.Reply(ctx, "", nil, true))
	})

	t.Run("no generator", func(t *testing.T) {
		p := NewResponsePolicy(nil, nil, logger.NewNop())
		assert.Equal(t, playAlongDefault[0], p.Reply(ctx, "", nil, true))
	})
}

func TestLLMReplyGenerator_SystemPrompt(t *testing.T) {
	g := NewLLMReplyGenerator(nil, Persona{
		Name:            "Ramesh Kumar",
		Age:             58,
		Occupation:      "retired government employee",
		Location:        "Lucknow",
		Characteristics: []string{"Trusting"},
	})

	scam := g.systemPrompt(true)
	assert.Contains(t, scam, "You are roleplaying as Ramesh Kumar, a 58-year-old retired government employee from Lucknow.")
	assert.Contains(t, scam, "- Trusting")
	assert.Contains(t, scam, "STRATEGIC OBJECTIVES")

	casual := g.systemPrompt(false)
	assert.NotContains(t, casual, "STRATEGIC OBJECTIVES")
}
