package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"dronewatch/internal/models"
	"dronewatch/internal/store"
)

func TestGetOrCreateDrone_ConcurrentCreatorsYieldOneDrone(t *testing.T) {
	s := New()
	ctx := context.Background()

	const workers = 32
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			drone, err := s.GetOrCreateDrone(ctx, "DRONE001")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			ids[i] = drone.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got drone id %d, worker 0 got %d", i, ids[i], ids[0])
		}
	}

	drones, err := s.ListDrones(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(drones) != 1 {
		t.Fatalf("expected exactly one drone, got %d", len(drones))
	}
}

func TestAppendAndUpdate_ConcurrentIngestsNoLostUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	drone, err := s.GetOrCreateDrone(ctx, "RACE01")
	if err != nil {
		t.Fatal(err)
	}

	const n = 50
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts := base.Add(time.Duration(i) * time.Second)
			lat := 31.0 + float64(i)*0.001
			sample := &models.Telemetry{Timestamp: ts, Lat: lat, Lng: 35.0}
			_, err := s.AppendAndUpdate(ctx, drone, sample, store.LatestState{
				LastSeen:      ts,
				LastLat:       lat,
				LastLng:       35.0,
				DangerReasons: []string{},
			})
			if err != nil {
				t.Errorf("ingest %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	samples, err := s.ListTelemetry(ctx, drone.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != n {
		t.Fatalf("expected %d telemetry rows, got %d", n, len(samples))
	}

	// Final state must match exactly one of the ingested samples, never
	// an interleaving of fields from two of them.
	got, err := s.FindDroneBySerial(ctx, "RACE01")
	if err != nil {
		t.Fatal(err)
	}
	if got.LastSeen == nil || got.LastLat == nil || got.LastLng == nil {
		t.Fatal("latest state not populated")
	}
	matched := false
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		lat := 31.0 + float64(i)*0.001
		if got.LastSeen.Equal(ts) && *got.LastLat == lat && *got.LastLng == 35.0 {
			matched = true
			break
		}
	}
	if !matched {
		t.Fatalf("torn write: state %v/%v/%v matches no ingested sample",
			got.LastSeen, *got.LastLat, *got.LastLng)
	}
}

func TestListTelemetry_OrderedByTimestampTiesByArrival(t *testing.T) {
	s := New()
	ctx := context.Background()

	drone, err := s.GetOrCreateDrone(ctx, "ORD1")
	if err != nil {
		t.Fatal(err)
	}

	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(10 * time.Second)

	// Insert the later timestamp first, then two samples sharing t0.
	for i, in := range []struct {
		ts  time.Time
		lat float64
	}{
		{t1, 31.2},
		{t0, 31.0},
		{t0, 31.1},
	} {
		sample := &models.Telemetry{Timestamp: in.ts, Lat: in.lat, Lng: 35.0}
		if _, err := s.AppendAndUpdate(ctx, drone, sample, store.LatestState{
			LastSeen: in.ts, LastLat: in.lat, LastLng: 35.0, DangerReasons: []string{},
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	samples, err := s.ListTelemetry(ctx, drone.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if !samples[0].Timestamp.Equal(t0) || samples[0].Lat != 31.0 {
		t.Fatalf("first sample wrong: %+v", samples[0])
	}
	if !samples[1].Timestamp.Equal(t0) || samples[1].Lat != 31.1 {
		t.Fatalf("tie not broken by arrival order: %+v", samples[1])
	}
	if !samples[2].Timestamp.Equal(t1) {
		t.Fatalf("last sample wrong: %+v", samples[2])
	}
}

func TestFindDroneBySerial_UnknownIsNotFound(t *testing.T) {
	s := New()
	if _, err := s.FindDroneBySerial(context.Background(), "NOPE"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestZoneCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	zone := &models.Zone{Name: "Airport Zone", CenterLat: 31.99, CenterLng: 35.98, RadiusKM: 2.0}
	if err := s.CreateZone(ctx, zone); err != nil {
		t.Fatal(err)
	}
	if zone.ID == 0 {
		t.Fatal("zone id not assigned")
	}

	got, err := s.GetZone(ctx, zone.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Airport Zone" {
		t.Fatalf("unexpected zone %+v", got)
	}

	if err := s.DeleteZone(ctx, zone.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteZone(ctx, zone.ID); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
