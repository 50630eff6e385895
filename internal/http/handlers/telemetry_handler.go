package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dronewatch/internal/service"
)

// TelemetryHandler accepts telemetry reports over HTTP POST.
type TelemetryHandler struct {
	ingest *service.IngestService
	logger *zap.Logger
}

// NewTelemetryHandler returns handler.
func NewTelemetryHandler(ingest *service.IngestService, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{ingest: ingest, logger: logger}
}

// RegisterRoutes mounts the ingestion endpoint.
func (h *TelemetryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/telemetry", h.Ingest)
}

// Ingest handles POST /telemetry.
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var input service.TelemetryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	drone, sample, err := h.ingest.Ingest(r.Context(), input)
	if err != nil {
		if _, ok := service.AsValidation(err); !ok {
			h.logger.Error("failed to ingest telemetry",
				zap.String("serial", input.Serial), zap.Error(err))
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"detail":       "Telemetry ingested",
		"drone_id":     drone.ID,
		"telemetry_id": sample.ID,
	})
}
