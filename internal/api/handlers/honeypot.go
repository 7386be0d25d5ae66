package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
	"github.com/Navadeep1830/honeypot-api/internal/domain/services"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// HoneypotHandler serves the conversation endpoints
type HoneypotHandler struct {
	service *services.HoneypotService
	logger  *logger.Logger
}

// NewHoneypotHandler creates a new honeypot handler
func NewHoneypotHandler(service *services.HoneypotService, log *logger.Logger) *HoneypotHandler {
	return &HoneypotHandler{
		service: service,
		logger:  log.WithComponent("honeypot-handler"),
	}
}

// HoneypotResponse is returned for every inbound message
type HoneypotResponse struct {
	*models.InboundResult
	Status string `json:"status"`
}

// DeleteResponse confirms a conversation was removed
type DeleteResponse struct {
	Status         string `json:"status"`
	ConversationID string `json:"conversation_id"`
}

// Handle handles POST /honeypot. The body may be any JSON object, a JSON
// string, plain text or empty; the reply is always a complete result.
func (h *HoneypotHandler) Handle(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.logger.Warn().Err(err).Msg("failed to read request body")
		raw = nil
	}

	req := ParseInbound(raw)

	log := h.logger.WithConversation(req.ConversationID).WithRequestID(middleware.GetReqID(r.Context()))
	log.Debug().Int("message_length", len(req.Message)).Msg("inbound message")

	result := h.service.ProcessInbound(r.Context(), req.ConversationID, req.Message)

	log.Info().
		Bool("scam_detected", result.IsScam).
		Float64("confidence", result.Confidence).
		Int("turn_count", result.Metrics.TurnCount).
		Msg("message processed")

	respondJSON(w, http.StatusOK, HoneypotResponse{InboundResult: result, Status: "success"})
}

// GetConversation handles GET /conversation/{id}
func (h *HoneypotHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.service.GetConversation(id)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Conversation %s not found", id))
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", id).Msg("failed to get conversation")
		respondError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// DeleteConversation handles DELETE /conversation/{id}
func (h *HoneypotHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteConversation(id); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("Conversation %s not found", id))
			return
		}
		h.logger.Error().Err(err).Str("conversation_id", id).Msg("failed to delete conversation")
		respondError(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}

	respondJSON(w, http.StatusOK, DeleteResponse{Status: "deleted", ConversationID: id})
}
