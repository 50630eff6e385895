package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

// Store is an in-memory store.Store implementation. It backs unit tests
// and the `store: memory` run mode; state is lost on restart.
//
// A store-level RWMutex guards the maps and id counters; each drone
// record carries its own mutex so ingests for one serial serialize
// without blocking other serials or readers.
type Store struct {
	mu       sync.RWMutex
	drones   map[string]*droneRecord
	byID     map[int64]*droneRecord
	zones    []models.Zone
	nextID   int64
	nextTmID int64
	nextZnID int64
}

type droneRecord struct {
	mu      sync.Mutex
	drone   models.Drone
	samples []models.Telemetry
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		drones: make(map[string]*droneRecord),
		byID:   make(map[int64]*droneRecord),
	}
}

// GetOrCreateDrone implements store.Store.
func (s *Store) GetOrCreateDrone(_ context.Context, serial string) (*models.Drone, error) {
	s.mu.Lock()
	rec, ok := s.drones[serial]
	if !ok {
		s.nextID++
		now := time.Now().UTC()
		rec = &droneRecord{
			drone: models.Drone{
				ID:            s.nextID,
				Serial:        serial,
				DangerReasons: []string{},
				CreatedAt:     now,
				UpdatedAt:     now,
			},
		}
		s.drones[serial] = rec
		s.byID[rec.drone.ID] = rec
	}
	s.mu.Unlock()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return copyDrone(rec.drone), nil
}

// AppendAndUpdate implements store.Store. The record mutex makes the
// sample append and the latest-state overwrite one unit: readers copy
// records under the same mutex and never observe one without the other.
func (s *Store) AppendAndUpdate(_ context.Context, drone *models.Drone, sample *models.Telemetry, state store.LatestState) (*models.Drone, error) {
	s.mu.RLock()
	rec, ok := s.drones[drone.Serial]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	s.mu.Lock()
	s.nextTmID++
	sample.ID = s.nextTmID
	s.mu.Unlock()

	sample.DroneID = rec.drone.ID
	rec.samples = append(rec.samples, *sample)

	seen := state.LastSeen
	lat := state.LastLat
	lng := state.LastLng
	rec.drone.LastSeen = &seen
	rec.drone.LastLat = &lat
	rec.drone.LastLng = &lng
	rec.drone.IsDangerous = state.IsDangerous
	rec.drone.DangerReasons = append([]string{}, state.DangerReasons...)
	rec.drone.UpdatedAt = time.Now().UTC()

	return copyDrone(rec.drone), nil
}

// FindDroneBySerial implements store.Store.
func (s *Store) FindDroneBySerial(_ context.Context, serial string) (*models.Drone, error) {
	s.mu.RLock()
	rec, ok := s.drones[serial]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return copyDrone(rec.drone), nil
}

// ListDrones implements store.Store.
func (s *Store) ListDrones(_ context.Context, serialFilter string) ([]models.Drone, error) {
	needle := strings.ToLower(serialFilter)
	return s.collect(func(d models.Drone) bool {
		return needle == "" || strings.Contains(strings.ToLower(d.Serial), needle)
	}), nil
}

// ListOnline implements store.Store.
func (s *Store) ListOnline(_ context.Context, cutoff time.Time) ([]models.Drone, error) {
	return s.collect(func(d models.Drone) bool {
		return d.LastSeen != nil && !d.LastSeen.Before(cutoff)
	}), nil
}

// ListDangerous implements store.Store.
func (s *Store) ListDangerous(_ context.Context) ([]models.Drone, error) {
	return s.collect(func(d models.Drone) bool { return d.IsDangerous }), nil
}

// ListWithPosition implements store.Store.
func (s *Store) ListWithPosition(_ context.Context) ([]models.Drone, error) {
	return s.collect(func(d models.Drone) bool {
		return d.LastLat != nil && d.LastLng != nil
	}), nil
}

// ListTelemetry implements store.Store.
func (s *Store) ListTelemetry(_ context.Context, droneID int64) ([]models.Telemetry, error) {
	s.mu.RLock()
	rec, ok := s.byID[droneID]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}

	rec.mu.Lock()
	samples := make([]models.Telemetry, len(rec.samples))
	copy(samples, rec.samples)
	rec.mu.Unlock()

	// Stable sort keeps arrival order for equal timestamps.
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	return samples, nil
}

// MarkSafe implements store.Store.
func (s *Store) MarkSafe(_ context.Context, serial string) (*models.Drone, error) {
	s.mu.RLock()
	rec, ok := s.drones[serial]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.drone.IsDangerous = false
	rec.drone.DangerReasons = []string{}
	rec.drone.UpdatedAt = time.Now().UTC()
	return copyDrone(rec.drone), nil
}

// ListZones implements store.Store.
func (s *Store) ListZones(_ context.Context) ([]models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Zone, len(s.zones))
	copy(out, s.zones)
	return out, nil
}

// GetZone implements store.Store.
func (s *Store) GetZone(_ context.Context, id int64) (*models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, zone := range s.zones {
		if zone.ID == id {
			z := zone
			return &z, nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateZone implements store.Store.
func (s *Store) CreateZone(_ context.Context, zone *models.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextZnID++
	zone.ID = s.nextZnID
	s.zones = append(s.zones, *zone)
	return nil
}

// DeleteZone implements store.Store.
func (s *Store) DeleteZone(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, zone := range s.zones {
		if zone.ID == id {
			s.zones = append(s.zones[:i], s.zones[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) collect(keep func(models.Drone) bool) []models.Drone {
	s.mu.RLock()
	records := make([]*droneRecord, 0, len(s.drones))
	for _, rec := range s.drones {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	var out []models.Drone
	for _, rec := range records {
		rec.mu.Lock()
		d := *copyDrone(rec.drone)
		rec.mu.Unlock()
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out
}

func copyDrone(d models.Drone) *models.Drone {
	out := d
	if d.LastSeen != nil {
		seen := *d.LastSeen
		out.LastSeen = &seen
	}
	if d.LastLat != nil {
		lat := *d.LastLat
		out.LastLat = &lat
	}
	if d.LastLng != nil {
		lng := *d.LastLng
		out.LastLng = &lng
	}
	out.DangerReasons = append([]string{}, d.DangerReasons...)
	return &out
}
