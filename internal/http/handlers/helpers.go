package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dronewatch/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// writeServiceError maps typed service failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	if verr, ok := service.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, verr.Fields)
		return
	}
	switch {
	case errors.Is(err, service.ErrDroneNotFound):
		writeError(w, http.StatusNotFound, "drone not found")
	case errors.Is(err, service.ErrZoneNotFound):
		writeError(w, http.StatusNotFound, "zone not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
