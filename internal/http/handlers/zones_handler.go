package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dronewatch/internal/models"
	"dronewatch/internal/service"
)

// ZoneHandler administers no-fly zones.
type ZoneHandler struct {
	zones  *service.ZoneService
	logger *zap.Logger
	admin  func(http.Handler) http.Handler
}

// NewZoneHandler returns handler. admin wraps mutating endpoints.
func NewZoneHandler(zones *service.ZoneService, admin func(http.Handler) http.Handler, logger *zap.Logger) *ZoneHandler {
	return &ZoneHandler{zones: zones, logger: logger, admin: admin}
}

// RegisterRoutes mounts the geofence endpoints.
func (h *ZoneHandler) RegisterRoutes(r chi.Router) {
	r.Route("/geofences", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(h.admin).Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.With(h.admin).Delete("/{id}", h.Delete)
	})
}

type zoneInput struct {
	Name     string   `json:"name"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	RadiusKM *float64 `json:"radius_km"`
}

// List handles GET /geofences.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.zones.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list zones", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	if zones == nil {
		zones = []models.Zone{}
	}
	writeJSON(w, http.StatusOK, zones)
}

// Create handles POST /geofences.
func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input zoneInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fields := map[string]string{}
	if input.Name == "" {
		fields["name"] = "this field is required"
	}
	if input.Lat == nil {
		fields["lat"] = "this field is required"
	}
	if input.Lng == nil {
		fields["lng"] = "this field is required"
	}
	if input.RadiusKM == nil {
		fields["radius_km"] = "this field is required"
	} else if *input.RadiusKM <= 0 {
		fields["radius_km"] = "must be greater than zero"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}

	zone := &models.Zone{
		Name:      input.Name,
		CenterLat: *input.Lat,
		CenterLng: *input.Lng,
		RadiusKM:  *input.RadiusKM,
	}
	if err := h.zones.Create(r.Context(), zone); err != nil {
		h.logger.Error("failed to create zone", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	h.logger.Info("no-fly zone created", zap.String("name", zone.Name), zap.Int64("id", zone.ID))
	writeJSON(w, http.StatusCreated, zone)
}

// Get handles GET /geofences/{id}.
func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid zone id")
		return
	}
	zone, err := h.zones.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// Delete handles DELETE /geofences/{id}.
func (h *ZoneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid zone id")
		return
	}
	if err := h.zones.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	h.logger.Info("no-fly zone deleted", zap.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}
