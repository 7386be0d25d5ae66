package handlers

import (
	"net/http"

	"github.com/Navadeep1830/honeypot-api/internal/streaming"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// StreamingHandler handles real-time event endpoints
type StreamingHandler struct {
	wsHub    *streaming.WebSocketHub
	eventBus *streaming.EventBus
	logger   *logger.Logger
}

// NewStreamingHandler creates a new streaming handler
func NewStreamingHandler(wsHub *streaming.WebSocketHub, eventBus *streaming.EventBus, log *logger.Logger) *StreamingHandler {
	return &StreamingHandler{
		wsHub:    wsHub,
		eventBus: eventBus,
		logger:   log.WithComponent("streaming-handler"),
	}
}

// StreamingStats reports live feed usage
type StreamingStats struct {
	WebSocketClients    int `json:"websocket_clients"`
	EventBusSubscribers int `json:"event_bus_subscribers"`
}

// HandleWebSocket handles GET /api/v1/events/ws
func (h *StreamingHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "event streaming not available")
		return
	}

	h.logger.Debug().
		Str("remote_addr", r.RemoteAddr).
		Str("user_agent", r.UserAgent()).
		Msg("WebSocket connection request")

	h.wsHub.ServeWebSocket(w, r)
}

// GetStats handles GET /api/v1/events/stats
func (h *StreamingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats StreamingStats
	if h.wsHub != nil {
		stats.WebSocketClients = h.wsHub.ClientCount()
	}
	if h.eventBus != nil {
		stats.EventBusSubscribers = h.eventBus.SubscriberCount()
	}
	respondJSON(w, http.StatusOK, stats)
}
