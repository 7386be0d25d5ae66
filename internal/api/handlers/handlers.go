package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Navadeep1830/honeypot-api/internal/domain/services"
	"github.com/Navadeep1830/honeypot-api/internal/infrastructure/cache"
	"github.com/Navadeep1830/honeypot-api/internal/streaming"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// maxBodyBytes caps inbound request bodies
const maxBodyBytes = 1 << 20

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Honeypot  *HoneypotHandler
	Analysis  *AnalysisHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Honeypot      *services.HoneypotService
	Cache         *cache.RedisCache
	NATS          *streaming.NATSPublisher
	EventBus      *streaming.EventBus
	WSHub         *streaming.WebSocketHub
	LLMConfigured bool
	Version       string
	Logger        *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Honeypot, deps.Cache, deps.NATS, deps.LLMConfigured, deps.Version, deps.Logger),
		Honeypot:  NewHoneypotHandler(deps.Honeypot, deps.Logger),
		Analysis:  NewAnalysisHandler(deps.Honeypot, deps.Logger),
		Streaming: NewStreamingHandler(deps.WSHub, deps.EventBus, deps.Logger),
	}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Status: "error", Message: message})
}
