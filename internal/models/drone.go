package models

import "time"

// Drone holds the latest known state for one tracked drone.
// Exactly one row exists per serial.
type Drone struct {
	ID            int64      `db:"id" json:"id"`
	Serial        string     `db:"serial" json:"serial"`
	LastSeen      *time.Time `db:"last_seen" json:"last_seen"`
	LastLat       *float64   `db:"last_lat" json:"last_lat"`
	LastLng       *float64   `db:"last_lng" json:"last_lng"`
	IsDangerous   bool       `db:"is_dangerous" json:"is_dangerous"`
	DangerReasons []string   `db:"danger_reasons" json:"danger_reasons"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// DroneView is the outward-facing representation of a drone.
type DroneView struct {
	ID            int64      `json:"id"`
	Serial        string     `json:"serial"`
	LastSeen      *time.Time `json:"last_seen"`
	LastLat       *float64   `json:"last_lat"`
	LastLng       *float64   `json:"last_lng"`
	IsDangerous   bool       `json:"is_dangerous"`
	DangerReasons []string   `json:"danger_reasons"`
}

// View projects a drone to its API representation.
func (d *Drone) View() DroneView {
	reasons := d.DangerReasons
	if reasons == nil {
		reasons = []string{}
	}
	return DroneView{
		ID:            d.ID,
		Serial:        d.Serial,
		LastSeen:      d.LastSeen,
		LastLat:       d.LastLat,
		LastLng:       d.LastLng,
		IsDangerous:   d.IsDangerous,
		DangerReasons: reasons,
	}
}
