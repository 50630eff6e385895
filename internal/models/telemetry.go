package models

import "time"

// Telemetry represents a single ingested report. Rows are append-only
// and immutable once written.
type Telemetry struct {
	ID                 int64     `db:"id" json:"id"`
	DroneID            int64     `db:"drone_id" json:"drone_id"`
	Timestamp          time.Time `db:"timestamp" json:"timestamp"`
	Lat                float64   `db:"lat" json:"lat"`
	Lng                float64   `db:"lng" json:"lng"`
	HeightM            *float64  `db:"height_m" json:"height_m"`
	HorizontalSpeedMPS *float64  `db:"horizontal_speed_mps" json:"horizontal_speed_mps"`
}

// TelemetryView is the outward-facing representation of one sample.
type TelemetryView struct {
	ID                 int64     `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	Lat                float64   `json:"lat"`
	Lng                float64   `json:"lng"`
	HeightM            *float64  `json:"height_m"`
	HorizontalSpeedMPS *float64  `json:"horizontal_speed_mps"`
}

// View projects a telemetry row to its API representation.
func (t *Telemetry) View() TelemetryView {
	return TelemetryView{
		ID:                 t.ID,
		Timestamp:          t.Timestamp,
		Lat:                t.Lat,
		Lng:                t.Lng,
		HeightM:            t.HeightM,
		HorizontalSpeedMPS: t.HorizontalSpeedMPS,
	}
}

// Path is a drone's historical positions as a lng/lat polyline.
type Path struct {
	Serial string       `json:"serial"`
	Points [][2]float64 `json:"points"`
	Count  int          `json:"count"`
}
