package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"flowtune/internal/service"
)

// FlowHandler exposes flow state detection results
type FlowHandler struct {
	detector *service.FlowStateDetector
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(detector *service.FlowStateDetector) *FlowHandler {
	return &FlowHandler{detector: detector}
}

// Get handles GET /v1/players/{playerId}/flow
func (h *FlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]

	latest, ok := h.detector.Latest(playerID)
	if !ok {
		writeError(w, http.StatusNotFound, "no flow samples for player")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// History handles GET /v1/players/{playerId}/flow/history
func (h *FlowHandler) History(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId": playerID,
		"samples":  h.detector.History(playerID),
	})
}
