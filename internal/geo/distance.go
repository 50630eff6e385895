package geo

import "math"

// EarthRadiusKM is Earth's mean radius in kilometers.
const EarthRadiusKM = 6371.0

// DistanceKM calculates the great-circle distance between two points
// on Earth in kilometers using the haversine formula.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLng/2)*math.Sin(dLng/2)

	// Floating point can overshoot [0,1] for antipodal or identical
	// points, which would make the square roots produce NaN.
	if a < 0 {
		a = 0
	} else if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}
