package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"flowtune/internal/service"
)

const defaultPredictionHorizon = 10 * time.Minute

// DifficultyHandler exposes the live difficulty state and its history
type DifficultyHandler struct {
	engine *service.AdjustmentEngine
}

// NewDifficultyHandler creates a new difficulty handler
func NewDifficultyHandler(engine *service.AdjustmentEngine) *DifficultyHandler {
	return &DifficultyHandler{engine: engine}
}

// Get handles GET /v1/players/{playerId}/difficulty
func (h *DifficultyHandler) Get(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]
	writeJSON(w, http.StatusOK, h.engine.GetDifficulty(playerID))
}

// Transitions handles GET /v1/players/{playerId}/transitions
func (h *DifficultyHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	transitions := h.engine.TransitionHistory(r.Context(), playerID, limit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId":    playerID,
		"transitions": transitions,
	})
}

// Prediction handles GET /v1/players/{playerId}/prediction
func (h *DifficultyHandler) Prediction(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]

	horizon := defaultPredictionHorizon
	if s := r.URL.Query().Get("horizonSec"); s != "" {
		sec, err := strconv.Atoi(s)
		if err != nil || sec < 1 {
			writeError(w, http.StatusBadRequest, "invalid horizonSec")
			return
		}
		horizon = time.Duration(sec) * time.Second
	}

	optimal, confidence := h.engine.PredictOptimalDifficulty(playerID, horizon)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId":          playerID,
		"horizonSec":        int(horizon.Seconds()),
		"optimalDifficulty": optimal,
		"confidence":        confidence,
	})
}

// EndSession handles DELETE /v1/players/{playerId}/session
func (h *DifficultyHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]
	h.engine.EndSession(r.Context(), playerID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}
