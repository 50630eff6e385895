package danger

import (
	"sync"

	"dronewatch/internal/models"
)

// ZoneSource supplies the current no-fly zones to the geofence rule.
type ZoneSource interface {
	Zones() []models.Zone
}

// ZoneRegistry is an in-memory zone list safe for concurrent use.
// It is seeded at startup and updated when zones are administered.
type ZoneRegistry struct {
	mu    sync.RWMutex
	zones []models.Zone
}

// NewZoneRegistry returns a registry holding the given zones.
func NewZoneRegistry(zones []models.Zone) *ZoneRegistry {
	r := &ZoneRegistry{}
	r.Replace(zones)
	return r
}

// Zones returns a copy of the current zone list in registry order.
func (r *ZoneRegistry) Zones() []models.Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Zone, len(r.zones))
	copy(out, r.zones)
	return out
}

// Replace swaps the whole zone list.
func (r *ZoneRegistry) Replace(zones []models.Zone) {
	copied := make([]models.Zone, len(zones))
	copy(copied, zones)
	r.mu.Lock()
	r.zones = copied
	r.mu.Unlock()
}

// Add appends a zone to the end of the registry.
func (r *ZoneRegistry) Add(zone models.Zone) {
	r.mu.Lock()
	r.zones = append(r.zones, zone)
	r.mu.Unlock()
}

// Remove drops the zone with the given id, if present.
func (r *ZoneRegistry) Remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, zone := range r.zones {
		if zone.ID == id {
			r.zones = append(r.zones[:i], r.zones[i+1:]...)
			return
		}
	}
}
