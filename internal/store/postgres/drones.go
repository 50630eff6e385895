package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

const droneColumns = `id, serial, last_seen, last_lat, last_lng, is_dangerous, danger_reasons, created_at, updated_at`

// GetOrCreateDrone implements store.Store. The insert races resolve on
// the unique serial constraint: ON CONFLICT DO NOTHING lets the first
// writer win and everyone re-reads the surviving row.
func (s *Store) GetOrCreateDrone(ctx context.Context, serial string) (*models.Drone, error) {
	const insert = `
		INSERT INTO drones (serial)
		VALUES ($1)
		ON CONFLICT (serial) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, insert, serial); err != nil {
		return nil, err
	}
	return s.FindDroneBySerial(ctx, serial)
}

// FindDroneBySerial implements store.Store.
func (s *Store) FindDroneBySerial(ctx context.Context, serial string) (*models.Drone, error) {
	const query = `SELECT ` + droneColumns + ` FROM drones WHERE serial = $1`
	drone, err := scanDrone(s.db.QueryRowContext(ctx, query, serial))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return drone, err
}

// ListDrones implements store.Store.
func (s *Store) ListDrones(ctx context.Context, serialFilter string) ([]models.Drone, error) {
	if serialFilter == "" {
		const query = `SELECT ` + droneColumns + ` FROM drones ORDER BY serial`
		return s.queryDrones(ctx, query)
	}
	const query = `
		SELECT ` + droneColumns + `
		FROM drones
		WHERE serial ILIKE '%' || $1 || '%'
		ORDER BY serial
	`
	return s.queryDrones(ctx, query, serialFilter)
}

// ListOnline implements store.Store.
func (s *Store) ListOnline(ctx context.Context, cutoff time.Time) ([]models.Drone, error) {
	const query = `
		SELECT ` + droneColumns + `
		FROM drones
		WHERE last_seen >= $1
		ORDER BY serial
	`
	return s.queryDrones(ctx, query, cutoff)
}

// ListDangerous implements store.Store.
func (s *Store) ListDangerous(ctx context.Context) ([]models.Drone, error) {
	const query = `
		SELECT ` + droneColumns + `
		FROM drones
		WHERE is_dangerous
		ORDER BY serial
	`
	return s.queryDrones(ctx, query)
}

// ListWithPosition implements store.Store.
func (s *Store) ListWithPosition(ctx context.Context) ([]models.Drone, error) {
	const query = `
		SELECT ` + droneColumns + `
		FROM drones
		WHERE last_lat IS NOT NULL AND last_lng IS NOT NULL
		ORDER BY serial
	`
	return s.queryDrones(ctx, query)
}

// MarkSafe implements store.Store.
func (s *Store) MarkSafe(ctx context.Context, serial string) (*models.Drone, error) {
	const query = `
		UPDATE drones
		SET is_dangerous = FALSE, danger_reasons = '[]'::jsonb, updated_at = NOW()
		WHERE serial = $1
		RETURNING ` + droneColumns
	drone, err := scanDrone(s.db.QueryRowContext(ctx, query, serial))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return drone, err
}

func (s *Store) queryDrones(ctx context.Context, query string, args ...any) ([]models.Drone, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drones []models.Drone
	for rows.Next() {
		drone, err := scanDrone(rows)
		if err != nil {
			return nil, err
		}
		drones = append(drones, *drone)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return drones, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrone(row rowScanner) (*models.Drone, error) {
	var (
		drone      models.Drone
		lastSeen   sql.NullTime
		lastLat    sql.NullFloat64
		lastLng    sql.NullFloat64
		reasonsRaw []byte
	)
	if err := row.Scan(
		&drone.ID,
		&drone.Serial,
		&lastSeen,
		&lastLat,
		&lastLng,
		&drone.IsDangerous,
		&reasonsRaw,
		&drone.CreatedAt,
		&drone.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		drone.LastSeen = &t
	}
	if lastLat.Valid {
		v := lastLat.Float64
		drone.LastLat = &v
	}
	if lastLng.Valid {
		v := lastLng.Float64
		drone.LastLng = &v
	}
	drone.DangerReasons = []string{}
	if len(reasonsRaw) > 0 {
		if err := json.Unmarshal(reasonsRaw, &drone.DangerReasons); err != nil {
			return nil, err
		}
	}
	return &drone, nil
}
