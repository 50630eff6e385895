package danger

import (
	"reflect"
	"strings"
	"testing"

	"dronewatch/internal/models"
)

func f(v float64) *float64 { return &v }

func TestClassify_ExactThresholdsNotDangerous(t *testing.T) {
	c := NewDefaultClassifier(nil)
	reasons := c.Classify(Sample{HeightM: f(500.0), HorizontalSpeedMPS: f(10.0)})
	if len(reasons) != 0 {
		t.Fatalf("boundary values should be safe, got %v", reasons)
	}
}

func TestClassify_JustAboveThresholdsFiresBothInOrder(t *testing.T) {
	c := NewDefaultClassifier(nil)
	reasons := c.Classify(Sample{HeightM: f(500.0001), HorizontalSpeedMPS: f(10.0001)})
	want := []string{
		"Altitude greater than 500 meters",
		"Horizontal speed greater than 10 m/s",
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Fatalf("reasons = %v, want %v", reasons, want)
	}
}

func TestClassify_OnlyAltitude(t *testing.T) {
	c := NewDefaultClassifier(nil)
	reasons := c.Classify(Sample{HeightM: f(600), HorizontalSpeedMPS: f(5)})
	if len(reasons) != 1 || !strings.Contains(reasons[0], "Altitude") {
		t.Fatalf("want single altitude reason, got %v", reasons)
	}
}

func TestClassify_OnlySpeed(t *testing.T) {
	c := NewDefaultClassifier(nil)
	reasons := c.Classify(Sample{HeightM: f(100), HorizontalSpeedMPS: f(12)})
	if len(reasons) != 1 || !strings.Contains(strings.ToLower(reasons[0]), "speed") {
		t.Fatalf("want single speed reason, got %v", reasons)
	}
}

func TestClassify_MissingFieldsAreSafe(t *testing.T) {
	c := NewDefaultClassifier(NewZoneRegistry([]models.Zone{
		{ID: 1, Name: "Airport Zone", CenterLat: 31.99, CenterLng: 35.98, RadiusKM: 2.0},
	}))
	reasons := c.Classify(Sample{})
	if len(reasons) != 0 {
		t.Fatalf("empty sample should be safe, got %v", reasons)
	}
}

func TestClassify_EmptySliceNotNil(t *testing.T) {
	c := NewDefaultClassifier(nil)
	reasons := c.Classify(Sample{})
	if reasons == nil {
		t.Fatal("Classify must return an empty slice, not nil")
	}
}

func TestGeofenceRule_InclusiveBoundaryAndRegistryOrder(t *testing.T) {
	registry := NewZoneRegistry([]models.Zone{
		{ID: 1, Name: "Alpha", CenterLat: 31.0, CenterLng: 35.0, RadiusKM: 5.0},
		{ID: 2, Name: "Bravo", CenterLat: 31.0, CenterLng: 35.0, RadiusKM: 100.0},
	})
	c := NewDefaultClassifier(registry)

	// ~4.9 km from both centers: inside Alpha (5 km, inclusive) and Bravo.
	reasons := c.Classify(Sample{Lat: f(31.044), Lng: f(35.0)})
	want := []string{
		"Entered no-fly zone: Alpha",
		"Entered no-fly zone: Bravo",
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Fatalf("reasons = %v, want %v", reasons, want)
	}

	// ~6.6 km: outside Alpha, still inside Bravo.
	reasons = c.Classify(Sample{Lat: f(31.06), Lng: f(35.0)})
	if !reflect.DeepEqual(reasons, []string{"Entered no-fly zone: Bravo"}) {
		t.Fatalf("reasons = %v, want only Bravo", reasons)
	}
}

func TestGeofenceRule_ZoneCenterIsInside(t *testing.T) {
	registry := NewZoneRegistry([]models.Zone{
		{ID: 1, Name: "Airport Zone", CenterLat: 31.99, CenterLng: 35.98, RadiusKM: 2.0},
	})
	rule := GeofenceRule{Zones: registry}
	reasons := rule.Check(Sample{Lat: f(31.99), Lng: f(35.98)})
	if len(reasons) != 1 || reasons[0] != "Entered no-fly zone: Airport Zone" {
		t.Fatalf("unexpected reasons %v", reasons)
	}
}

func TestClassifier_RulesAreComposable(t *testing.T) {
	onlySpeed := NewClassifier(SpeedRule{ThresholdMPS: 10})
	reasons := onlySpeed.Classify(Sample{HeightM: f(9000), HorizontalSpeedMPS: f(12)})
	if len(reasons) != 1 || !strings.Contains(strings.ToLower(reasons[0]), "speed") {
		t.Fatalf("altitude rule should be absent, got %v", reasons)
	}

	none := NewClassifier()
	if got := none.Classify(Sample{HeightM: f(9000)}); len(got) != 0 {
		t.Fatalf("empty rule set should never fire, got %v", got)
	}
}

func TestZoneRegistry_AddRemove(t *testing.T) {
	registry := NewZoneRegistry(nil)
	registry.Add(models.Zone{ID: 7, Name: "Port", CenterLat: 1, CenterLng: 1, RadiusKM: 1})
	if got := registry.Zones(); len(got) != 1 || got[0].Name != "Port" {
		t.Fatalf("unexpected zones after add: %v", got)
	}
	registry.Remove(7)
	if got := registry.Zones(); len(got) != 0 {
		t.Fatalf("unexpected zones after remove: %v", got)
	}
}
