package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dronewatch/internal/service"
)

// DroneHandler serves the read-only drone queries plus mark-safe.
type DroneHandler struct {
	queries *service.QueryService
	logger  *zap.Logger
	admin   func(http.Handler) http.Handler
}

// NewDroneHandler returns handler. admin wraps mutating endpoints.
func NewDroneHandler(queries *service.QueryService, admin func(http.Handler) http.Handler, logger *zap.Logger) *DroneHandler {
	return &DroneHandler{queries: queries, logger: logger, admin: admin}
}

// RegisterRoutes mounts the drone query endpoints.
func (h *DroneHandler) RegisterRoutes(r chi.Router) {
	r.Route("/drones", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/online", h.ListOnline)
		r.Get("/nearby", h.ListNearby)
		r.Get("/dangerous", h.ListDangerous)
		r.Route("/{serial}", func(r chi.Router) {
			r.Get("/telemetry", h.ListTelemetry)
			r.Get("/path", h.GetPath)
			r.Get("/live", h.LiveState)
			r.With(h.admin).Post("/mark-safe", h.MarkSafe)
		})
	})
}

// List handles GET /drones with an optional serial filter.
func (h *DroneHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.queries.ListDrones(r.Context(), r.URL.Query().Get("serial"))
	if err != nil {
		h.logger.Error("failed to list drones", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListOnline handles GET /drones/online.
func (h *DroneHandler) ListOnline(w http.ResponseWriter, r *http.Request) {
	views, err := h.queries.ListOnline(r.Context())
	if err != nil {
		h.logger.Error("failed to list online drones", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListNearby handles GET /drones/nearby?lat=&lng=.
func (h *DroneHandler) ListNearby(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	if latStr == "" || lngStr == "" {
		writeError(w, http.StatusBadRequest, "Query parameters 'lat' and 'lng' are required.")
		return
	}
	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "Query parameters 'lat' and 'lng' must be valid numbers.")
		return
	}

	views, err := h.queries.ListNearby(r.Context(), lat, lng)
	if err != nil {
		h.logger.Error("failed to list nearby drones", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListDangerous handles GET /drones/dangerous.
func (h *DroneHandler) ListDangerous(w http.ResponseWriter, r *http.Request) {
	views, err := h.queries.ListDangerous(r.Context())
	if err != nil {
		h.logger.Error("failed to list dangerous drones", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListTelemetry handles GET /drones/{serial}/telemetry.
func (h *DroneHandler) ListTelemetry(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	views, err := h.queries.ListTelemetry(r.Context(), serial)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetPath handles GET /drones/{serial}/path, rendered as a GeoJSON
// LineString Feature with [lng, lat] coordinates.
func (h *DroneHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	path, err := h.queries.GetPath(r.Context(), serial)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"type": "Feature",
		"geometry": map[string]interface{}{
			"type":        "LineString",
			"coordinates": path.Points,
		},
		"properties": map[string]interface{}{
			"serial": path.Serial,
			"count":  path.Count,
		},
	})
}

// LiveState handles GET /drones/{serial}/live.
func (h *DroneHandler) LiveState(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	view, err := h.queries.LiveState(r.Context(), serial)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// MarkSafe handles POST /drones/{serial}/mark-safe.
func (h *DroneHandler) MarkSafe(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	view, err := h.queries.MarkSafe(r.Context(), serial)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.logger.Info("drone marked safe", zap.String("serial", serial))
	writeJSON(w, http.StatusOK, view)
}
