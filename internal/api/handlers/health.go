package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Navadeep1830/honeypot-api/internal/domain/services"
	"github.com/Navadeep1830/honeypot-api/internal/infrastructure/cache"
	"github.com/Navadeep1830/honeypot-api/internal/streaming"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

const serviceName = "Agentic Honey-Pot System"

// HealthHandler handles health check endpoints
type HealthHandler struct {
	honeypot      *services.HoneypotService
	cache         *cache.RedisCache
	nats          *streaming.NATSPublisher
	llmConfigured bool
	version       string
	logger        *logger.Logger
	startTime     time.Time
}

// NewHealthHandler creates a new HealthHandler. cache and nats may be nil.
func NewHealthHandler(honeypot *services.HoneypotService, c *cache.RedisCache, nats *streaming.NATSPublisher, llmConfigured bool, version string, log *logger.Logger) *HealthHandler {
	if version == "" {
		version = "1.0.0"
	}
	return &HealthHandler{
		honeypot:      honeypot,
		cache:         c,
		nats:          nats,
		llmConfigured: llmConfigured,
		version:       version,
		logger:        log.WithComponent("health"),
		startTime:     time.Now(),
	}
}

// RootResponse is the service banner
type RootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status              string            `json:"status"`
	LLMConfigured       bool              `json:"llm_configured"`
	ActiveConversations int               `json:"active_conversations"`
	Version             string            `json:"version"`
	Uptime              string            `json:"uptime"`
	Timestamp           string            `json:"timestamp"`
	Checks              map[string]string `json:"checks,omitempty"`
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, RootResponse{
		Status:  "online",
		Service: serviceName,
		Version: h.version,
	})
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.response("healthy", nil))
}

// Ready handles GET /ready - checks optional dependencies
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := http.StatusOK
	overallStatus := "ready"

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	if h.nats != nil {
		if h.nats.IsConnected() {
			checks["nats"] = "healthy"
		} else {
			checks["nats"] = "unhealthy: disconnected"
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
		}
	} else {
		checks["nats"] = "not configured"
	}

	respondJSON(w, status, h.response(overallStatus, checks))
}

func (h *HealthHandler) response(status string, checks map[string]string) HealthResponse {
	active := 0
	if h.honeypot != nil {
		active = h.honeypot.ActiveConversations()
	}
	return HealthResponse{
		Status:              status,
		LLMConfigured:       h.llmConfigured,
		ActiveConversations: active,
		Version:             h.version,
		Uptime:              time.Since(h.startTime).String(),
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		Checks:              checks,
	}
}
