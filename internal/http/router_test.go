package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"dronewatch/internal/danger"
	"dronewatch/internal/models"
	"dronewatch/internal/service"
	"dronewatch/internal/store/memory"
)

func newTestAPI(t *testing.T, secret string) http.Handler {
	t.Helper()

	st := memory.New()
	registry := danger.NewZoneRegistry([]models.Zone{
		{ID: 1, Name: "Airport Zone", CenterLat: 31.99, CenterLng: 35.98, RadiusKM: 2.0},
	})
	logger := zap.NewNop()

	return NewRouter(RouterDeps{
		Ingest:     service.NewIngestService(st, danger.NewDefaultClassifier(registry), nil, logger),
		Queries:    service.NewQueryService(st, nil, service.DefaultOnlineWindow, logger),
		Zones:      service.NewZoneService(st, registry, logger),
		AuthSecret: secret,
		Logger:     logger,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func ingestSample(t *testing.T, h http.Handler, serial string, lat, lng float64, extra map[string]interface{}) {
	t.Helper()
	body := map[string]interface{}{"serial": serial, "lat": lat, "lng": lng}
	for k, v := range extra {
		body[k] = v
	}
	rec := doJSON(t, h, http.MethodPost, "/api/v1/telemetry", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest %s: got status %d, body %s", serial, rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t, "")

	rec := doJSON(t, h, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("got status %q, want ok", body["status"])
	}
}

func TestIngestTelemetry(t *testing.T) {
	h := newTestAPI(t, "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/telemetry", map[string]interface{}{
		"serial": "DJI-001",
		"lat":    31.95,
		"lng":    35.91,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	if body["detail"] != "Telemetry ingested" {
		t.Errorf("got detail %v", body["detail"])
	}
	if _, ok := body["drone_id"]; !ok {
		t.Error("response missing drone_id")
	}
	if _, ok := body["telemetry_id"]; !ok {
		t.Error("response missing telemetry_id")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/drones", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list drones: got status %d", rec.Code)
	}
	var drones []models.DroneView
	decodeBody(t, rec, &drones)
	if len(drones) != 1 || drones[0].Serial != "DJI-001" {
		t.Fatalf("got drones %+v, want one with serial DJI-001", drones)
	}
}

func TestIngestValidation(t *testing.T) {
	h := newTestAPI(t, "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/telemetry", map[string]interface{}{
		"serial": "DJI-001",
	}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	var fields map[string]string
	decodeBody(t, rec, &fields)
	for _, name := range []string{"lat", "lng"} {
		if fields[name] != "this field is required" {
			t.Errorf("field %s: got %q", name, fields[name])
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/telemetry", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: got status %d, want 400", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["detail"] != "invalid request body" {
		t.Errorf("got detail %q", body["detail"])
	}
}

func TestNearbyQuery(t *testing.T) {
	h := newTestAPI(t, "")
	ingestSample(t, h, "NEAR-1", 31.0, 35.0, nil)
	ingestSample(t, h, "FAR-1", 45.0, 10.0, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/drones/nearby?lat=31.0&lng=35.0", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var drones []models.DroneView
	decodeBody(t, rec, &drones)
	if len(drones) != 1 || drones[0].Serial != "NEAR-1" {
		t.Fatalf("got drones %+v, want only NEAR-1", drones)
	}
}

func TestNearbyQueryValidation(t *testing.T) {
	h := newTestAPI(t, "")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/drones/nearby?lat=31.0", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["detail"] != "Query parameters 'lat' and 'lng' are required." {
		t.Errorf("got detail %q", body["detail"])
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/drones/nearby?lat=abc&lng=35.0", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	decodeBody(t, rec, &body)
	if body["detail"] != "Query parameters 'lat' and 'lng' must be valid numbers." {
		t.Errorf("got detail %q", body["detail"])
	}
}

func TestDangerousList(t *testing.T) {
	h := newTestAPI(t, "")
	ingestSample(t, h, "SAFE-1", 31.0, 35.0, nil)
	ingestSample(t, h, "HIGH-1", 31.0, 35.0, map[string]interface{}{"height_m": 600.0})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/drones/dangerous", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var drones []models.DroneView
	decodeBody(t, rec, &drones)
	if len(drones) != 1 || drones[0].Serial != "HIGH-1" {
		t.Fatalf("got drones %+v, want only HIGH-1", drones)
	}
	if len(drones[0].DangerReasons) != 1 || drones[0].DangerReasons[0] != "Altitude greater than 500 meters" {
		t.Errorf("got reasons %v", drones[0].DangerReasons)
	}
}

func TestPathGeoJSON(t *testing.T) {
	h := newTestAPI(t, "")
	ingestSample(t, h, "PATH-1", 31.0, 35.0, map[string]interface{}{"timestamp": "2026-08-30T10:00:00Z"})
	ingestSample(t, h, "PATH-1", 31.1, 35.1, map[string]interface{}{"timestamp": "2026-08-30T10:01:00Z"})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/drones/PATH-1/path", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}
	var feature struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Serial string `json:"serial"`
			Count  int    `json:"count"`
		} `json:"properties"`
	}
	decodeBody(t, rec, &feature)
	if feature.Type != "Feature" || feature.Geometry.Type != "LineString" {
		t.Errorf("got types %s/%s", feature.Type, feature.Geometry.Type)
	}
	if feature.Properties.Serial != "PATH-1" || feature.Properties.Count != 2 {
		t.Errorf("got properties %+v", feature.Properties)
	}
	if len(feature.Geometry.Coordinates) != 2 {
		t.Fatalf("got %d coordinates", len(feature.Geometry.Coordinates))
	}
	first := feature.Geometry.Coordinates[0]
	if first[0] != 35.0 || first[1] != 31.0 {
		t.Errorf("coordinates not in lng,lat order: %v", first)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/drones/UNKNOWN/path", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown serial: got status %d, want 404", rec.Code)
	}
}

func TestMarkSafeAuth(t *testing.T) {
	const secret = "test-secret"
	h := newTestAPI(t, secret)
	ingestSample(t, h, "HIGH-1", 31.0, 35.0, map[string]interface{}{"height_m": 600.0})

	rec := doJSON(t, h, http.MethodPost, "/api/v1/drones/HIGH-1/mark-safe", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got status %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/drones/HIGH-1/mark-safe", nil, "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got status %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/drones/HIGH-1/mark-safe", nil, signToken(t, secret))
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: got status %d, body %s", rec.Code, rec.Body.String())
	}
	var view models.DroneView
	decodeBody(t, rec, &view)
	if view.IsDangerous || len(view.DangerReasons) != 0 {
		t.Errorf("drone still dangerous after mark-safe: %+v", view)
	}
}

func TestZoneEndpoints(t *testing.T) {
	const secret = "test-secret"
	h := newTestAPI(t, secret)
	token := signToken(t, secret)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/geofences", map[string]interface{}{
		"name":      "Stadium",
		"lat":       31.5,
		"lng":       35.5,
		"radius_km": -1.0,
	}, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative radius: got status %d, want 400", rec.Code)
	}
	var fields map[string]string
	decodeBody(t, rec, &fields)
	if fields["radius_km"] != "must be greater than zero" {
		t.Errorf("got field %q", fields["radius_km"])
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/geofences", map[string]interface{}{
		"name":      "Stadium",
		"lat":       31.5,
		"lng":       35.5,
		"radius_km": 1.5,
	}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got status %d, body %s", rec.Code, rec.Body.String())
	}
	var created models.Zone
	decodeBody(t, rec, &created)
	if created.ID == 0 || created.Name != "Stadium" {
		t.Fatalf("got zone %+v", created)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/geofences", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got status %d", rec.Code)
	}
	var zones []models.Zone
	decodeBody(t, rec, &zones)
	if len(zones) != 1 {
		t.Fatalf("got %d zones, want 1", len(zones))
	}

	zonePath := fmt.Sprintf("/api/v1/geofences/%d", created.ID)
	rec = doJSON(t, h, http.MethodDelete, zonePath, nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("delete without token: got status %d, want 401", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, zonePath, nil, token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got status %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, zonePath, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got status %d, want 404", rec.Code)
	}
}
