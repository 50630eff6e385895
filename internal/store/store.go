package store

import (
	"context"
	"errors"
	"time"

	"dronewatch/internal/models"
)

// ErrNotFound is returned when a drone or zone does not exist.
var ErrNotFound = errors.New("store: not found")

// LatestState is the set of drone fields overwritten on every ingest.
type LatestState struct {
	LastSeen      time.Time
	LastLat       float64
	LastLng       float64
	IsDangerous   bool
	DangerReasons []string
}

// Store is the persistence boundary for drones, telemetry and zones.
//
// GetOrCreateDrone and AppendAndUpdate together form the per-serial
// atomic unit of the ingestion pipeline: concurrent creators for one
// serial resolve to a single row, and the telemetry append plus the
// latest-state overwrite become visible together or not at all.
type Store interface {
	// GetOrCreateDrone returns the drone for serial, creating it with
	// empty state when missing. Safe under concurrent calls for the
	// same serial: the first writer wins, later creators get the
	// existing row.
	GetOrCreateDrone(ctx context.Context, serial string) (*models.Drone, error)

	// AppendAndUpdate atomically persists the telemetry row and
	// overwrites the drone's latest-state fields, serializing with
	// other ingests for the same drone. It fills in sample.ID and
	// returns the refreshed drone.
	AppendAndUpdate(ctx context.Context, drone *models.Drone, sample *models.Telemetry, state LatestState) (*models.Drone, error)

	// FindDroneBySerial returns ErrNotFound for unknown serials.
	FindDroneBySerial(ctx context.Context, serial string) (*models.Drone, error)

	// ListDrones returns drones ordered by serial, optionally filtered
	// by a case-insensitive serial substring.
	ListDrones(ctx context.Context, serialFilter string) ([]models.Drone, error)

	// ListOnline returns drones with last_seen >= cutoff.
	ListOnline(ctx context.Context, cutoff time.Time) ([]models.Drone, error)

	// ListDangerous returns dangerous drones ordered by serial.
	ListDangerous(ctx context.Context) ([]models.Drone, error)

	// ListWithPosition returns drones whose last position is known.
	ListWithPosition(ctx context.Context) ([]models.Drone, error)

	// ListTelemetry returns a drone's samples ordered by timestamp,
	// ties broken by insertion order.
	ListTelemetry(ctx context.Context, droneID int64) ([]models.Telemetry, error)

	// MarkSafe clears the danger flags and returns the updated drone.
	MarkSafe(ctx context.Context, serial string) (*models.Drone, error)

	ListZones(ctx context.Context) ([]models.Zone, error)
	GetZone(ctx context.Context, id int64) (*models.Zone, error)
	CreateZone(ctx context.Context, zone *models.Zone) error
	DeleteZone(ctx context.Context, id int64) error
}
