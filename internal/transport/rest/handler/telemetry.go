package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"flowtune/internal/model"
	"flowtune/internal/service"
)

// TelemetryHandler handles telemetry ingestion
type TelemetryHandler struct {
	engine *service.AdjustmentEngine
}

// NewTelemetryHandler creates a new telemetry handler
func NewTelemetryHandler(engine *service.AdjustmentEngine) *TelemetryHandler {
	return &TelemetryHandler{engine: engine}
}

// Ingest handles POST /v1/players/{playerId}/telemetry
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["playerId"]

	var batch model.TelemetryBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(batch.Actions) == 0 {
		writeError(w, http.StatusBadRequest, "empty telemetry batch")
		return
	}
	for i := range batch.Actions {
		batch.Actions[i].PlayerID = playerID
	}

	transition, err := h.engine.ProcessAdjustment(r.Context(), playerID, batch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"accepted": len(batch.Actions),
		"adjusted": transition != nil,
	}
	if transition != nil {
		resp["transition"] = transition
	}
	writeJSON(w, http.StatusOK, resp)
}
