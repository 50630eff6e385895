package danger

import (
	"fmt"

	"dronewatch/internal/geo"
)

// Sample carries the telemetry fields the rules look at. Any field may
// be absent; a rule that needs a missing field simply does not apply.
type Sample struct {
	HeightM            *float64
	HorizontalSpeedMPS *float64
	Lat                *float64
	Lng                *float64
}

// Rule inspects one sample and reports zero or more danger reasons.
type Rule interface {
	Check(sample Sample) []string
}

// AltitudeRule fires when reported height strictly exceeds the threshold.
type AltitudeRule struct {
	ThresholdM float64
}

// Check implements Rule. The boundary is exclusive: a sample at exactly
// the threshold is not dangerous.
func (r AltitudeRule) Check(sample Sample) []string {
	if sample.HeightM != nil && *sample.HeightM > r.ThresholdM {
		return []string{fmt.Sprintf("Altitude greater than %d meters", int(r.ThresholdM))}
	}
	return nil
}

// SpeedRule fires when horizontal speed strictly exceeds the threshold.
type SpeedRule struct {
	ThresholdMPS float64
}

// Check implements Rule. The boundary is exclusive, same as altitude.
func (r SpeedRule) Check(sample Sample) []string {
	if sample.HorizontalSpeedMPS != nil && *sample.HorizontalSpeedMPS > r.ThresholdMPS {
		return []string{fmt.Sprintf("Horizontal speed greater than %d m/s", int(r.ThresholdMPS))}
	}
	return nil
}

// GeofenceRule fires once per no-fly zone containing the sample
// position. The zone boundary is inclusive: a drone at exactly
// radius_km from the center is inside.
type GeofenceRule struct {
	Zones ZoneSource
}

// Check implements Rule. Without a position there is nothing to test.
func (r GeofenceRule) Check(sample Sample) []string {
	if sample.Lat == nil || sample.Lng == nil || r.Zones == nil {
		return nil
	}
	var reasons []string
	for _, zone := range r.Zones.Zones() {
		d := geo.DistanceKM(*sample.Lat, *sample.Lng, zone.CenterLat, zone.CenterLng)
		if d <= zone.RadiusKM {
			reasons = append(reasons, fmt.Sprintf("Entered no-fly zone: %s", zone.Name))
		}
	}
	return reasons
}
