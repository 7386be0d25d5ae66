package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/internal/domain/services"
	"github.com/Navadeep1830/honeypot-api/internal/domain/services/ai"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, *services.HoneypotService) {
	t.Helper()
	log := logger.NewNop()
	store := services.NewMemoryConversationStore()
	detector := ai.NewScamDetector(ai.DetectorConfig{ExternalTimeout: time.Second}, nil, log)
	policy := ai.NewResponsePolicy(nil, ai.NewFallbackResponder(nil), log)
	svc := services.NewHoneypotService(services.HoneypotConfig{}, store, detector, ai.NewEntityExtractor(nil), policy, nil, log)

	h := NewHandlers(Dependencies{Honeypot: svc, LLMConfigured: false, Logger: log})

	r := chi.NewRouter()
	r.Get("/", h.Health.Root)
	r.Get("/health", h.Health.Check)
	r.Get("/ready", h.Health.Ready)
	r.Post("/honeypot", h.Honeypot.Handle)
	r.Get("/conversation/{id}", h.Honeypot.GetConversation)
	r.Delete("/conversation/{id}", h.Honeypot.DeleteConversation)
	r.Post("/api/v1/extract", h.Analysis.Extract)
	r.Post("/api/v1/detect", h.Analysis.Detect)
	r.Get("/api/v1/events/ws", h.Streaming.HandleWebSocket)
	r.Get("/api/v1/events/stats", h.Streaming.GetStats)
	return r, svc
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHoneypotHandler_Handle(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/honeypot",
		`{"conversation_id":"c1","message":"Congratulations! You won Rs 50000. Pay to winner@ybl or visit http://claim-prize.in now"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "c1", body["conversation_id"])
	assert.Equal(t, true, body["scam_detected"])
	assert.Equal(t, true, body["agent_active"])
	assert.NotEmpty(t, body["response_message"])

	intel := body["extracted_intelligence"].(map[string]any)
	assert.Equal(t, []any{"winner@ybl"}, intel["upi_ids"])
	assert.Equal(t, []any{"http://claim-prize.in"}, intel["phishing_urls"])

	metrics := body["engagement_metrics"].(map[string]any)
	assert.EqualValues(t, 1, metrics["turn_count"])
	assert.EqualValues(t, 2, metrics["messages_exchanged"])
}

func TestHoneypotHandler_Handle_AnyBody(t *testing.T) {
	r, svc := newTestRouter(t)

	for _, body := range []string{"", "plain text message", `"json string"`, "{not json"} {
		rec := do(t, r, http.MethodPost, "/honeypot", body)
		require.Equal(t, http.StatusOK, rec.Code, "body %q", body)

		resp := decode[HoneypotResponse](t, rec)
		assert.Equal(t, "success", resp.Status)
		assert.Equal(t, "default-conv", resp.ConversationID)
		assert.NotEmpty(t, resp.Reply)
	}

	report, err := svc.GetConversation("default-conv")
	require.NoError(t, err)
	assert.Len(t, report.Messages, 8)
}

func TestHoneypotHandler_StickyVerdict(t *testing.T) {
	r, _ := newTestRouter(t)

	first := decode[HoneypotResponse](t, do(t, r, http.MethodPost, "/honeypot",
		`{"id":"s","message":"URGENT: your account is blocked, share OTP and verify KYC immediately"}`))
	require.True(t, first.IsScam)

	second := decode[HoneypotResponse](t, do(t, r, http.MethodPost, "/honeypot", `{"id":"s","message":"ok"}`))
	assert.True(t, second.IsScam)
	assert.GreaterOrEqual(t, second.Confidence, first.Confidence)
	assert.Equal(t, 2, second.Metrics.TurnCount)
}

func TestHoneypotHandler_GetAndDeleteConversation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/conversation/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decode[ErrorResponse](t, rec)
	assert.Equal(t, "error", errBody.Status)
	assert.Equal(t, "Conversation missing not found", errBody.Message)

	do(t, r, http.MethodPost, "/honeypot", `{"id":"c9","message":"Call me on 9876543210"}`)

	rec = do(t, r, http.MethodGet, "/conversation/c9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "c9", report["conversation_id"])
	assert.Len(t, report["messages"], 2)
	assert.Contains(t, report, "metrics")
	intel := report["extracted_intelligence"].(map[string]any)
	assert.Equal(t, []any{"9876543210"}, intel["phone_numbers"])

	rec = do(t, r, http.MethodDelete, "/conversation/c9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DeleteResponse{Status: "deleted", ConversationID: "c9"}, decode[DeleteResponse](t, rec))

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/conversation/c9", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/conversation/c9", "").Code)
}

func TestAnalysisHandler(t *testing.T) {
	r, svc := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/v1/extract", `{"text":"Transfer to 123456789012 IFSC HDFC0001234"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	intel := decode[models.ExtractedIntelligence](t, rec)
	assert.Equal(t, []string{"123456789012"}, intel.BankAccounts)
	assert.Equal(t, []string{"HDFC0001234"}, intel.IFSCCodes)

	rec = do(t, r, http.MethodPost, "/api/v1/detect", `{"text":"Your account is blocked. Share OTP urgently"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	det := decode[models.DetectionResult](t, rec)
	assert.True(t, det.IsScam)
	assert.NotEmpty(t, det.Reason)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/v1/detect", `{"text":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/v1/extract", `nope`).Code)

	assert.Zero(t, svc.ActiveConversations(), "stateless endpoints create no conversations")
}

func TestHealthHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	root := decode[RootResponse](t, do(t, r, http.MethodGet, "/", ""))
	assert.Equal(t, "online", root.Status)
	assert.Equal(t, "1.0.0", root.Version)

	do(t, r, http.MethodPost, "/honeypot", `{"id":"a","message":"hi"}`)

	health := decode[HealthResponse](t, do(t, r, http.MethodGet, "/health", ""))
	assert.Equal(t, "healthy", health.Status)
	assert.False(t, health.LLMConfigured)
	assert.Equal(t, 1, health.ActiveConversations)

	rec := do(t, r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[HealthResponse](t, rec)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "not configured", ready.Checks["redis"])
	assert.Equal(t, "not configured", ready.Checks["nats"])
}

func TestStreamingHandler_Unavailable(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodGet, "/api/v1/events/ws", "").Code)

	stats := decode[StreamingStats](t, do(t, r, http.MethodGet, "/api/v1/events/stats", ""))
	assert.Zero(t, stats.WebSocketClients)
	assert.Zero(t, stats.EventBusSubscribers)
}
