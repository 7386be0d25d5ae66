package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Navadeep1830/honeypot-api/internal/domain/services"
	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

// AnalysisHandler exposes the scorer and extractor without a conversation
type AnalysisHandler struct {
	service *services.HoneypotService
	logger  *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.HoneypotService, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  log.WithComponent("analysis-handler"),
	}
}

// AnalysisRequest carries the text to analyze
type AnalysisRequest struct {
	Text string `json:"text"`
}

// Extract handles POST /api/v1/extract
func (h *AnalysisHandler) Extract(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.service.Extract(req.Text))
}

// Detect handles POST /api/v1/detect
func (h *AnalysisHandler) Detect(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.service.Detect(r.Context(), req.Text))
}

func (h *AnalysisHandler) decode(w http.ResponseWriter, r *http.Request) (AnalysisRequest, bool) {
	var req AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return req, false
	}
	return req, true
}
