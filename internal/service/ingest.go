package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dronewatch/internal/danger"
	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

// LiveCache holds the most recent drone view per serial for quick
// lookups. Implementations must treat a miss as (nil, nil).
type LiveCache interface {
	SaveView(ctx context.Context, view models.DroneView) error
	GetView(ctx context.Context, serial string) (*models.DroneView, error)
	DeleteView(ctx context.Context, serial string) error
}

// IngestService is the telemetry ingestion pipeline.
type IngestService struct {
	store      store.Store
	classifier *danger.Classifier
	cache      LiveCache
	logger     *zap.Logger
	now        func() time.Time
}

// NewIngestService wires the pipeline. cache may be nil.
func NewIngestService(st store.Store, classifier *danger.Classifier, cache LiveCache, logger *zap.Logger) *IngestService {
	return &IngestService{
		store:      st,
		classifier: classifier,
		cache:      cache,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ingest processes one telemetry report: validate, get-or-create the
// drone, classify, then append the sample and overwrite the drone's
// latest state as one atomic unit keyed by serial. Returns the updated
// drone and the created sample.
func (s *IngestService) Ingest(ctx context.Context, input TelemetryInput) (*models.Drone, *models.Telemetry, error) {
	if err := input.Validate(); err != nil {
		return nil, nil, err
	}

	drone, err := s.store.GetOrCreateDrone(ctx, input.Serial)
	if err != nil {
		return nil, nil, err
	}

	timestamp := s.now()
	if input.Timestamp != nil {
		timestamp = input.Timestamp.UTC()
	}

	reasons := s.classifier.Classify(danger.Sample{
		HeightM:            input.HeightM,
		HorizontalSpeedMPS: input.HorizontalSpeedMPS,
		Lat:                input.Lat,
		Lng:                input.Lng,
	})

	sample := &models.Telemetry{
		DroneID:            drone.ID,
		Timestamp:          timestamp,
		Lat:                *input.Lat,
		Lng:                *input.Lng,
		HeightM:            input.HeightM,
		HorizontalSpeedMPS: input.HorizontalSpeedMPS,
	}

	updated, err := s.store.AppendAndUpdate(ctx, drone, sample, store.LatestState{
		LastSeen:      timestamp,
		LastLat:       *input.Lat,
		LastLng:       *input.Lng,
		IsDangerous:   len(reasons) > 0,
		DangerReasons: reasons,
	})
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		if err := s.cache.SaveView(ctx, updated.View()); err != nil {
			s.logger.Warn("failed to refresh live cache",
				zap.String("serial", updated.Serial), zap.Error(err))
		}
	}

	s.logger.Debug("ingested telemetry",
		zap.String("serial", updated.Serial),
		zap.Int64("drone_id", updated.ID),
		zap.Int64("telemetry_id", sample.ID),
		zap.Bool("is_dangerous", updated.IsDangerous))

	return updated, sample, nil
}
