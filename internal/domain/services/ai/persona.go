package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// Persona is the believable target the agent role-plays
type Persona struct {
	Name            string
	Age             int
	Occupation      string
	Location        string
	Characteristics []string
}

// ReplyGenerator produces the persona's next message
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, latest string, history []models.Message, playAlong bool) (string, error)
}

// LLMReplyGenerator writes persona replies with the chat model
type LLMReplyGenerator struct {
	client  *LLMClient
	persona Persona
}

// NewLLMReplyGenerator creates a reply generator backed by client
func NewLLMReplyGenerator(client *LLMClient, persona Persona) *LLMReplyGenerator {
	return &LLMReplyGenerator{client: client, persona: persona}
}

// GenerateReply implements ReplyGenerator
func (g *LLMReplyGenerator) GenerateReply(ctx context.Context, latest string, history []models.Message, playAlong bool) (string, error) {
	messages := make([]ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		role := "assistant"
		if msg.Role == models.RoleSender {
			role = "user"
		}
		messages = append(messages, ChatMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: latest})

	reply, err := g.client.Chat(ctx, g.systemPrompt(playAlong), messages, ChatOptions{
		Temperature: 0.7,
		MaxTokens:   150,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	return reply, nil
}

func (g *LLMReplyGenerator) systemPrompt(playAlong bool) string {
	p := g.persona
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are roleplaying as %s, a %d-year-old %s from %s.\n\n", p.Name, p.Age, p.Occupation, p.Location))

	sb.WriteString("PERSONA CHARACTERISTICS:\n")
	for _, c := range p.Characteristics {
		sb.WriteString("- " + c + "\n")
	}
	sb.WriteString("\n")

	if playAlong {
		sb.WriteString(`STRATEGIC OBJECTIVES (hidden from response):
1. Keep the conversation going to extract more information
2. Ask for specific details like bank account, UPI ID, or payment links
3. Show interest but appear slightly confused to make them explain more
4. Ask clarifying questions about how to send money or claim prizes
5. Request them to repeat or confirm sensitive details
6. NEVER reveal that you know this is a scam
7. Act increasingly trusting and eager to comply
`)
	} else {
		sb.WriteString(`OBJECTIVES:
1. Respond naturally as the persona would
2. Show appropriate level of interest based on the message
3. Be polite and conversational
`)
	}

	sb.WriteString(`
RULES:
- Keep responses natural, 1-3 sentences
- Use simple Hindi-English mix if appropriate
- DO NOT reveal you know this is a scam
- DO NOT add any system notes or explanations
- Just provide the direct response`)
	return sb.String()
}

type replyRule struct {
	triggers  []string
	question  bool
	templates []string
}

// Checked in order; the first rule whose trigger appears wins.
var playAlongRules = []replyRule{
	{
		triggers: []string{"account", "bank", "transfer"},
		templates: []string{
			"Ji haan, I want to receive the money. Which bank account should I give? Please tell me what details you need.",
			"Which bank you are calling from? Tell me the account number where I should send, I will note it down.",
			"Achha, bank transfer. My son usually does this. You tell me the full account details and IFSC slowly.",
		},
	},
	{
		triggers: []string{"upi", "paytm", "phonepe", "gpay"},
		templates: []string{
			"I have UPI. Should I send you my UPI ID? Or do you have a UPI ID where I should send?",
			"PhonePe is there in my phone. What is your UPI ID exactly? Please spell it for me.",
		},
	},
	{
		triggers: []string{"link", "click", "website"},
		templates: []string{
			"Please send the link again, I could not see properly. My phone is little old, sometimes links don't open.",
			"Link is not opening ji. Can you send the full website address once more?",
		},
	},
	{
		triggers: []string{"otp", "code", "verification"},
		templates: []string{
			"OTP? You mean the number that comes on phone? Yes yes, I can share. What should I do?",
			"One message has come with some number. Which one you want, the first or the second?",
		},
	},
	{
		triggers: []string{"lottery", "prize", "won", "winner"},
		templates: []string{
			"Really? I won? This is so wonderful! How much is the prize? How do I claim it?",
			"Bhagwan ki kripa! I never won anything before. What I have to do to get the prize?",
		},
	},
	{
		triggers: []string{"kyc", "verify", "update"},
		templates: []string{
			"Yes, I need to do KYC. Please guide me step by step, I am not very good with phones.",
			"KYC again? Bank people told me it is done. But you tell me, what details you need?",
		},
	},
}

var playAlongDefault = []string{
	"Ji, I am interested. Please tell me more details. What should I do next?",
	"Achha achha, I understand little bit. Please explain what I should do now.",
}

var casualRules = []replyRule{
	{
		triggers: []string{"hello", "hi", "namaste"},
		templates: []string{
			"Namaste ji, kaun bol raha hai?",
			"Hello ji, who is this? I don't have this number saved.",
		},
	},
	{
		question: true,
		templates: []string{
			"Ji haan, please tell me more.",
			"Sorry ji, I did not understand fully. Please tell me more.",
		},
	},
}

var casualDefault = []string{
	"Achha ji, please continue.",
	"Ji, I am listening. Please continue.",
}

// FallbackResponder produces keyword-triggered templated replies without any
// network access. With no random source it always picks the first template.
type FallbackResponder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallbackResponder creates a fallback responder. rng may be nil.
func NewFallbackResponder(rng *rand.Rand) *FallbackResponder {
	return &FallbackResponder{rng: rng}
}

// Reply returns a non-empty templated reply
func (f *FallbackResponder) Reply(message string, playAlong bool) string {
	lower := strings.ToLower(message)

	rules, def := casualRules, casualDefault
	if playAlong {
		rules, def = playAlongRules, playAlongDefault
	}

	for _, rule := range rules {
		if rule.matches(message, lower) {
			return f.pick(rule.templates)
		}
	}
	return f.pick(def)
}

func (r replyRule) matches(message, lower string) bool {
	if r.question && strings.Contains(message, "?") {
		return true
	}
	for _, t := range r.triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func (f *FallbackResponder) pick(templates []string) string {
	if f.rng == nil || len(templates) == 1 {
		return templates[0]
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return templates[f.rng.Intn(len(templates))]
}

// ResponsePolicy chooses the agent reply: the generator when it works, the
// local fallback otherwise. It never returns an empty reply.
type ResponsePolicy struct {
	generator ReplyGenerator
	fallback  *FallbackResponder
	logger    *logger.Logger
}

// NewResponsePolicy creates a response policy. generator may be nil.
func NewResponsePolicy(generator ReplyGenerator, fallback *FallbackResponder, log *logger.Logger) *ResponsePolicy {
	if fallback == nil {
		fallback = NewFallbackResponder(nil)
	}
	return &ResponsePolicy{
		generator: generator,
		fallback:  fallback,
		logger:    log.WithComponent("response-policy"),
	}
}

// Reply produces the persona's answer to latest given the preceding history
func (p *ResponsePolicy) Reply(ctx context.Context, latest string, history []models.Message, playAlong bool) string {
	if p.generator != nil {
		reply, err := p.generator.GenerateReply(ctx, latest, history, playAlong)
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply)
		}
		if err != nil {
			p.logger.Warn().Err(err).Msg("reply generation failed, using fallback")
		}
	}
	return p.fallback.Reply(latest, playAlong)
}
