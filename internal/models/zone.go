package models

// Zone is a circular no-fly region. Entering it makes a drone dangerous.
type Zone struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	CenterLat float64 `db:"center_lat" json:"lat"`
	CenterLng float64 `db:"center_lng" json:"lng"`
	RadiusKM  float64 `db:"radius_km" json:"radius_km"`
}
