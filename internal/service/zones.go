package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"dronewatch/internal/danger"
	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

// ZoneService administers no-fly zones. Writes go to the store and the
// in-memory registry together so the classifier sees changes without a
// restart; the classifier itself only ever reads the registry.
type ZoneService struct {
	store    store.Store
	registry *danger.ZoneRegistry
	logger   *zap.Logger
}

// NewZoneService returns the zone admin service.
func NewZoneService(st store.Store, registry *danger.ZoneRegistry, logger *zap.Logger) *ZoneService {
	return &ZoneService{store: st, registry: registry, logger: logger}
}

// SeedRegistry loads persisted zones plus any configured defaults into
// the registry. Configured zones that are not yet stored are persisted
// first, so registry order matches store order.
func (s *ZoneService) SeedRegistry(ctx context.Context, configured []models.Zone) error {
	stored, err := s.store.ListZones(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(stored))
	for _, zone := range stored {
		known[zone.Name] = true
	}
	for _, zone := range configured {
		if known[zone.Name] {
			continue
		}
		z := zone
		if err := s.store.CreateZone(ctx, &z); err != nil {
			return err
		}
		stored = append(stored, z)
	}

	s.registry.Replace(stored)
	s.logger.Info("seeded no-fly zone registry", zap.Int("zones", len(stored)))
	return nil
}

// List returns all zones in registry order.
func (s *ZoneService) List(ctx context.Context) ([]models.Zone, error) {
	return s.store.ListZones(ctx)
}

// Get returns one zone by id.
func (s *ZoneService) Get(ctx context.Context, id int64) (*models.Zone, error) {
	zone, err := s.store.GetZone(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	return zone, nil
}

// Create persists a zone and appends it to the registry.
func (s *ZoneService) Create(ctx context.Context, zone *models.Zone) error {
	if err := s.store.CreateZone(ctx, zone); err != nil {
		return err
	}
	s.registry.Add(*zone)
	return nil
}

// Delete removes a zone from the store and the registry.
func (s *ZoneService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteZone(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrZoneNotFound
		}
		return err
	}
	s.registry.Remove(id)
	return nil
}
