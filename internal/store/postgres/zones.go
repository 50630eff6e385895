package postgres

import (
	"context"
	"database/sql"
	"errors"

	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

// ListZones implements store.Store.
func (s *Store) ListZones(ctx context.Context) ([]models.Zone, error) {
	const query = `
		SELECT id, name, center_lat, center_lng, radius_km
		FROM no_fly_zones
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var zone models.Zone
		if err := rows.Scan(&zone.ID, &zone.Name, &zone.CenterLat, &zone.CenterLng, &zone.RadiusKM); err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return zones, nil
}

// GetZone implements store.Store.
func (s *Store) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	const query = `
		SELECT id, name, center_lat, center_lng, radius_km
		FROM no_fly_zones
		WHERE id = $1
	`
	var zone models.Zone
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&zone.ID, &zone.Name, &zone.CenterLat, &zone.CenterLng, &zone.RadiusKM)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// CreateZone implements store.Store.
func (s *Store) CreateZone(ctx context.Context, zone *models.Zone) error {
	const query = `
		INSERT INTO no_fly_zones (name, center_lat, center_lng, radius_km)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, query,
		zone.Name,
		zone.CenterLat,
		zone.CenterLng,
		zone.RadiusKM,
	).Scan(&zone.ID)
}

// DeleteZone implements store.Store.
func (s *Store) DeleteZone(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM no_fly_zones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
