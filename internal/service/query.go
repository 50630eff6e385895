package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"dronewatch/internal/geo"
	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

const (
	// DefaultOnlineWindow is how far back last_seen may be for a drone
	// to count as online. Computed fresh on every query.
	DefaultOnlineWindow = 30 * time.Second

	// NearbyRadiusKM is the fixed radius of the nearby query, boundary
	// inclusive.
	NearbyRadiusKM = 5.0
)

// QueryService answers read-only queries over ingested state.
type QueryService struct {
	store        store.Store
	cache        LiveCache
	onlineWindow time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewQueryService builds the query layer. cache may be nil.
func NewQueryService(st store.Store, cache LiveCache, onlineWindow time.Duration, logger *zap.Logger) *QueryService {
	if onlineWindow <= 0 {
		onlineWindow = DefaultOnlineWindow
	}
	return &QueryService{
		store:        st,
		cache:        cache,
		onlineWindow: onlineWindow,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ListDrones returns all drones, optionally filtered by a
// case-insensitive serial substring.
func (s *QueryService) ListDrones(ctx context.Context, serialFilter string) ([]models.DroneView, error) {
	drones, err := s.store.ListDrones(ctx, serialFilter)
	if err != nil {
		return nil, err
	}
	return views(drones), nil
}

// ListOnline returns drones seen within the online window. A drone
// whose last_seen is exactly at the cutoff is online.
func (s *QueryService) ListOnline(ctx context.Context) ([]models.DroneView, error) {
	cutoff := s.now().Add(-s.onlineWindow)
	drones, err := s.store.ListOnline(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return views(drones), nil
}

// ListNearby returns drones with a known position within NearbyRadiusKM
// of the query point, boundary inclusive.
func (s *QueryService) ListNearby(ctx context.Context, lat, lng float64) ([]models.DroneView, error) {
	drones, err := s.store.ListWithPosition(ctx)
	if err != nil {
		return nil, err
	}
	nearby := drones[:0]
	for _, drone := range drones {
		if geo.DistanceKM(lat, lng, *drone.LastLat, *drone.LastLng) <= NearbyRadiusKM {
			nearby = append(nearby, drone)
		}
	}
	return views(nearby), nil
}

// ListDangerous returns dangerous drones ordered by serial ascending.
func (s *QueryService) ListDangerous(ctx context.Context) ([]models.DroneView, error) {
	drones, err := s.store.ListDangerous(ctx)
	if err != nil {
		return nil, err
	}
	return views(drones), nil
}

// ListTelemetry returns all samples for a serial ordered by timestamp.
func (s *QueryService) ListTelemetry(ctx context.Context, serial string) ([]models.TelemetryView, error) {
	drone, err := s.findDrone(ctx, serial)
	if err != nil {
		return nil, err
	}
	samples, err := s.store.ListTelemetry(ctx, drone.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TelemetryView, 0, len(samples))
	for i := range samples {
		out = append(out, samples[i].View())
	}
	return out, nil
}

// GetPath returns a drone's flight path as lng/lat points in timestamp
// order. A known serial with no samples yields a valid empty path.
func (s *QueryService) GetPath(ctx context.Context, serial string) (*models.Path, error) {
	drone, err := s.findDrone(ctx, serial)
	if err != nil {
		return nil, err
	}
	samples, err := s.store.ListTelemetry(ctx, drone.ID)
	if err != nil {
		return nil, err
	}
	points := make([][2]float64, 0, len(samples))
	for _, sample := range samples {
		points = append(points, [2]float64{sample.Lng, sample.Lat})
	}
	return &models.Path{Serial: drone.Serial, Points: points, Count: len(points)}, nil
}

// LiveState returns the drone's latest view, served from the live cache
// when possible and from the store otherwise.
func (s *QueryService) LiveState(ctx context.Context, serial string) (*models.DroneView, error) {
	if s.cache != nil {
		view, err := s.cache.GetView(ctx, serial)
		if err != nil {
			s.logger.Warn("live cache read failed", zap.String("serial", serial), zap.Error(err))
		} else if view != nil {
			return view, nil
		}
	}
	drone, err := s.findDrone(ctx, serial)
	if err != nil {
		return nil, err
	}
	view := drone.View()
	return &view, nil
}

// MarkSafe clears a drone's danger classification.
func (s *QueryService) MarkSafe(ctx context.Context, serial string) (*models.DroneView, error) {
	drone, err := s.store.MarkSafe(ctx, serial)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDroneNotFound
		}
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SaveView(ctx, drone.View()); err != nil {
			s.logger.Warn("failed to refresh live cache", zap.String("serial", serial), zap.Error(err))
		}
	}
	view := drone.View()
	return &view, nil
}

func (s *QueryService) findDrone(ctx context.Context, serial string) (*models.Drone, error) {
	drone, err := s.store.FindDroneBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDroneNotFound
		}
		return nil, err
	}
	return drone, nil
}

func views(drones []models.Drone) []models.DroneView {
	out := make([]models.DroneView, 0, len(drones))
	for i := range drones {
		out = append(out, drones[i].View())
	}
	return out
}
