package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

// AppendAndUpdate implements store.Store. The drone row is locked for
// the duration of the transaction, so ingests for one serial serialize
// while other serials proceed on their own rows. Readers run at read
// committed and see the telemetry row and the state update together or
// not at all.
func (s *Store) AppendAndUpdate(ctx context.Context, drone *models.Drone, sample *models.Telemetry, state store.LatestState) (*models.Drone, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var locked int64
	const lock = `SELECT id FROM drones WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lock, drone.ID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	const insert = `
		INSERT INTO drone_telemetry (drone_id, recorded_at, lat, lng, height_m, horizontal_speed_mps)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, insert,
		drone.ID,
		sample.Timestamp,
		sample.Lat,
		sample.Lng,
		sample.HeightM,
		sample.HorizontalSpeedMPS,
	).Scan(&sample.ID); err != nil {
		return nil, fmt.Errorf("insert telemetry: %w", err)
	}
	sample.DroneID = drone.ID

	reasons, err := json.Marshal(state.DangerReasons)
	if err != nil {
		return nil, err
	}

	const update = `
		UPDATE drones
		SET last_seen = $2,
		    last_lat = $3,
		    last_lng = $4,
		    is_dangerous = $5,
		    danger_reasons = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + droneColumns
	updated, err := scanDrone(tx.QueryRowContext(ctx, update,
		drone.ID,
		state.LastSeen,
		state.LastLat,
		state.LastLng,
		state.IsDangerous,
		reasons,
	))
	if err != nil {
		return nil, fmt.Errorf("update latest state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

// ListTelemetry implements store.Store. Ordering by (recorded_at, id)
// keeps arrival order for equal timestamps.
func (s *Store) ListTelemetry(ctx context.Context, droneID int64) ([]models.Telemetry, error) {
	const query = `
		SELECT id, drone_id, recorded_at, lat, lng, height_m, horizontal_speed_mps
		FROM drone_telemetry
		WHERE drone_id = $1
		ORDER BY recorded_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, droneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.Telemetry
	for rows.Next() {
		var (
			sample models.Telemetry
			height sql.NullFloat64
			speed  sql.NullFloat64
		)
		if err := rows.Scan(
			&sample.ID,
			&sample.DroneID,
			&sample.Timestamp,
			&sample.Lat,
			&sample.Lng,
			&height,
			&speed,
		); err != nil {
			return nil, err
		}
		if height.Valid {
			v := height.Float64
			sample.HeightM = &v
		}
		if speed.Valid {
			v := speed.Float64
			sample.HorizontalSpeedMPS = &v
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
