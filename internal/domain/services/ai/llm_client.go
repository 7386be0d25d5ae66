package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"

	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultClaudeBaseURL = "https://api.anthropic.com"

	defaultRetryBackoff = 250 * time.Millisecond
	// Under half the default detection deadline so a timed-out attempt can retry
	defaultLLMTimeout = 3 * time.Second
)

// LLMClient talks to an OpenAI-compatible (Groq, OpenAI) or Claude chat API
type LLMClient struct {
	httpClient *http.Client
	logger     *logger.Logger
	config     LLMConfig
	limiter    *rate.Limiter
}

// LLMConfig holds LLM client configuration
type LLMConfig struct {
	Provider          string // groq, openai, claude
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// ChatMessage is one turn sent to the chat API
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a single completion
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

// NewLLMClient creates a new LLM client
func NewLLMClient(cfg LLMConfig, log *logger.Logger) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key required", cfg.Provider)
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderGroq
	}
	if cfg.BaseURL == "" {
		switch cfg.Provider {
		case ProviderGroq:
			cfg.BaseURL = defaultGroqBaseURL
		case ProviderOpenAI:
			cfg.BaseURL = defaultOpenAIBaseURL
		case ProviderClaude:
			cfg.BaseURL = defaultClaudeBaseURL
		default:
			return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		switch cfg.Provider {
		case ProviderClaude:
			cfg.Model = "claude-3-5-haiku-latest"
		case ProviderOpenAI:
			cfg.Model = "gpt-4o-mini"
		default:
			cfg.Model = "llama-3.1-8b-instant"
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLLMTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxRetries > 1 {
		cfg.MaxRetries = 1
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &LLMClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.WithComponent("llm-client"),
		config:     cfg,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Model returns the configured model name
func (c *LLMClient) Model() string {
	return c.config.Model
}

// Chat sends a system prompt plus messages and returns the completion text.
// Transient failures are retried at most MaxRetries times.
func (c *LLMClient) Chat(ctx context.Context, system string, messages []ChatMessage, opts ChatOptions) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(defaultRetryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		var content string
		var err error
		switch c.config.Provider {
		case ProviderClaude:
			content, err = c.callClaude(ctx, system, messages, opts)
		default:
			content, err = c.callOpenAICompatible(ctx, system, messages, opts)
		}
		if err == nil {
			return content, nil
		}

		lastErr = err
		if ctx.Err() != nil || !isRetryableError(err) {
			return "", err
		}
		c.logger.Debug().Err(err).Int("attempt", attempt+1).Msg("retryable LLM error")
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Assess asks the model whether message is part of a scam. It implements Assessor.
func (c *LLMClient) Assess(ctx context.Context, message string, history []models.Message) (*models.ExternalAssessment, error) {
	prompt := buildAssessmentPrompt(message, history)
	content, err := c.Chat(ctx, "", []ChatMessage{{Role: "user", Content: prompt}}, ChatOptions{
		Temperature: 0.1,
		MaxTokens:   100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assess message: %w", err)
	}
	return parseAssessment(content)
}

func buildAssessmentPrompt(message string, history []models.Message) string {
	var sb strings.Builder
	sb.WriteString("Analyze if the following message is part of a scam attempt.\n")
	sb.WriteString("Common scam types in India include: lottery scams, KYC fraud, OTP fraud, job scams,\n")
	sb.WriteString("loan scams, investment fraud, and impersonation of bank officials.\n\n")

	if len(history) > 0 {
		sb.WriteString("Conversation history:\n")
		for _, msg := range history {
			sb.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Latest message to analyze: %q\n\n", message))
	sb.WriteString("Respond with ONLY a JSON object in this exact format (no markdown):\n")
	sb.WriteString(`{"is_scam": true, "confidence": 0.85, "reason": "brief explanation"}`)
	return sb.String()
}

// parseAssessment pulls the JSON verdict out of a model reply. A missing
// confidence reads as the neutral 0.5.
func parseAssessment(content string) (*models.ExternalAssessment, error) {
	content = extractJSONObject(content)

	var raw struct {
		IsScam     bool     `json:"is_scam"`
		Confidence *float64 `json:"confidence"`
		Reason     string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	assessment := &models.ExternalAssessment{
		IsScam:     raw.IsScam,
		Confidence: NeutralExternalAssessment.Confidence,
		Reason:     strings.TrimSpace(raw.Reason),
	}
	if raw.Confidence != nil {
		assessment.Confidence = *raw.Confidence
	}
	return assessment, nil
}

func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)

	// Handle markdown code blocks
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx != -1 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}
	return content
}

// callOpenAICompatible covers Groq and OpenAI, which share the chat completions schema
func (c *LLMClient) callOpenAICompatible(ctx context.Context, system string, messages []ChatMessage, opts ChatOptions) (string, error) {
	msgs := make([]ChatMessage, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Content: system})
	}
	msgs = append(msgs, messages...)

	reqBody := map[string]interface{}{
		"model":       c.config.Model,
		"messages":    msgs,
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		reqBody["max_tokens"] = opts.MaxTokens
	}

	body, err := c.post(ctx, c.config.BaseURL+"/chat/completions", reqBody, map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", c.config.Provider)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *LLMClient) callClaude(ctx context.Context, system string, messages []ChatMessage, opts ChatOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	reqBody := map[string]interface{}{
		"model":       c.config.Model,
		"max_tokens":  maxTokens,
		"temperature": opts.Temperature,
		"messages":    messages,
	}
	if system != "" {
		reqBody["system"] = system
	}

	body, err := c.post(ctx, c.config.BaseURL+"/v1/messages", reqBody, map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from claude")
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *LLMClient) post(ctx context.Context, url string, payload interface{}, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return nil, &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, truncate(string(body), 200))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// retryableError marks failures worth one more attempt
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var re *retryableError
	if errors.As(err, &re) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// AssessmentCache stores external verdicts keyed by message and context
type AssessmentCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedAssessor memoizes an Assessor so repeated messages skip the network
type CachedAssessor struct {
	next   Assessor
	cache  AssessmentCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedAssessor wraps next with cache. A nil cache returns next unchanged.
func NewCachedAssessor(next Assessor, cache AssessmentCache, ttl time.Duration, log *logger.Logger) Assessor {
	if cache == nil || next == nil {
		return next
	}
	return &CachedAssessor{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithComponent("assessment-cache"),
	}
}

// Assess returns a cached verdict when present, otherwise delegates and stores
func (a *CachedAssessor) Assess(ctx context.Context, message string, history []models.Message) (*models.ExternalAssessment, error) {
	key := AssessmentCacheKey(message, history)

	var cached models.ExternalAssessment
	if err := a.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	assessment, err := a.next.Assess(ctx, message, history)
	if err != nil {
		return nil, err
	}
	if err := a.cache.SetJSON(ctx, key, assessment, a.ttl); err != nil {
		a.logger.Debug().Err(err).Msg("failed to cache assessment")
	}
	return assessment, nil
}

// AssessmentCacheKey hashes the message together with the context it was judged in
func AssessmentCacheKey(message string, history []models.Message) string {
	h := sha256.New()
	for _, msg := range history {
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
		h.Write([]byte{0})
	}
	h.Write([]byte(message))
	return "assessment:" + hex.EncodeToString(h.Sum(nil))
}
