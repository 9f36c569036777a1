package stopfinder

import (
	"errors"
	"testing"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
)

const milesPerDegreeLatitude = 69.09

type mockCatalog struct {
	stops []cfdf.Stop
	err   error
}

func (m *mockCatalog) DieselStops() ([]cfdf.Stop, error) {
	return m.stops, m.err
}

func newFinder(stops ...cfdf.Stop) *StopFinder {
	return &StopFinder{
		Catalog: &mockCatalog{stops: stops},

		PilotRadiusMiles:    50,
		LovesRadiusMiles:    50,
		ExtendedRadiusMiles: 80,
		AtStopRadiusMiles:   0.15,
		MovingSpeedMPH:      5,
	}
}

// stopAt places a stop a given number of miles due north of the origin.
func stopAt(id string, brand string, milesNorth float64) cfdf.Stop {
	return cfdf.Stop{
		ID:        id,
		Name:      id,
		Brand:     brand,
		Latitude:  35.0 + milesNorth/milesPerDegreeLatitude,
		Longitude: -90.0,
		HasDiesel: true,
	}
}

func TestPriorityChainPrefersPilotNear(t *testing.T) {
	finder := newFinder(
		stopAt("loves-20", "Love's Travel Stop", 20),
		stopAt("pilot-40", "Pilot Travel Center", 40),
	)

	found, classification, err := finder.SelectStop(35.0, -90.0, 0, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationPilotNear {
		t.Fatalf("expected PILOT_NEAR, got %s", classification)
	}
	if found.ID != "pilot-40" {
		t.Errorf("expected pilot-40, got %s", found.ID)
	}
}

func TestPriorityChainFallsBackToLovesNear(t *testing.T) {
	// Pilot at 60 miles is outside the near radius, Love's at 40 is inside.
	// The chain picks the closer-step Love's, not the farther Pilot.
	finder := newFinder(
		stopAt("pilot-60", "Pilot Flying J", 60),
		stopAt("loves-40", "Love's", 40),
	)

	found, classification, err := finder.SelectStop(35.0, -90.0, 0, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationLovesNear {
		t.Fatalf("expected LOVES_NEAR, got %s", classification)
	}
	if found.ID != "loves-40" {
		t.Errorf("expected loves-40, got %s", found.ID)
	}
}

func TestPriorityChainExtendedSteps(t *testing.T) {
	finder := newFinder(
		stopAt("pilot-70", "One9 Fuel Stop", 70),
		stopAt("loves-60", "Love's", 60),
	)

	// nothing within 50 miles, Pilot family wins the extended step even
	// though the Love's is closer
	found, classification, err := finder.SelectStop(35.0, -90.0, 0, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationPilotExtended {
		t.Fatalf("expected PILOT_EXTENDED, got %s", classification)
	}
	if found.ID != "pilot-70" {
		t.Errorf("expected pilot-70, got %s", found.ID)
	}
}

func TestLovesExtendedLastResort(t *testing.T) {
	finder := newFinder(stopAt("loves-75", "LOVES COUNTRY STORE", 75))

	_, classification, err := finder.SelectStop(35.0, -90.0, 0, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationLovesExtended {
		t.Errorf("expected LOVES_EXTENDED, got %s", classification)
	}
}

func TestNothingFound(t *testing.T) {
	finder := newFinder(stopAt("pilot-100", "Pilot", 100))

	found, classification, err := finder.SelectStop(35.0, -90.0, 0, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationNone {
		t.Errorf("expected NONE, got %s", classification)
	}
	if found != nil {
		t.Errorf("expected no stop, got %s", found.ID)
	}
}

func TestParkedAtStop(t *testing.T) {
	finder := newFinder(
		stopAt("pilot-here", "Pilot Travel Center", 0.05),
		stopAt("loves-10", "Love's", 10),
	)

	found, classification, err := finder.SelectStop(35.0, -90.0, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationAtStop {
		t.Fatalf("expected AT_STOP, got %s", classification)
	}
	if found.ID != "pilot-here" {
		t.Errorf("expected pilot-here, got %s", found.ID)
	}
}

func TestParkedIgnoresBrandPriority(t *testing.T) {
	// parked vehicle gets the closest fuel regardless of brand
	finder := newFinder(
		stopAt("pilot-30", "Pilot", 30),
		stopAt("loves-10", "Love's Travel Stop", 10),
	)

	found, classification, err := finder.SelectStop(35.0, -90.0, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationNearestParked {
		t.Fatalf("expected NEAREST_PARKED, got %s", classification)
	}
	if found.ID != "loves-10" {
		t.Errorf("expected loves-10, got %s", found.ID)
	}
}

func TestUnknownBrandsSkipped(t *testing.T) {
	finder := newFinder(stopAt("ta-5", "TA Travel Center", 5))

	_, classification, err := finder.SelectStop(35.0, -90.0, 0, 55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classification != ClassificationNone {
		t.Errorf("expected NONE for unknown brand, got %s", classification)
	}
}

func TestBrandAliases(t *testing.T) {
	pilots := []string{"Pilot", "PILOT TRAVEL CENTER", "Flying J", "FlyingJ #204", "One9 Fuel"}
	for _, brand := range pilots {
		if !isPilotBrand(brand) {
			t.Errorf("expected %q to match the Pilot family", brand)
		}
	}

	loves := []string{"Love's", "LOVES", "Love's Travel Stop #33"}
	for _, brand := range loves {
		if !isLovesBrand(brand) {
			t.Errorf("expected %q to match the Love's family", brand)
		}
	}

	if isPilotBrand("Love's") || isLovesBrand("Pilot") {
		t.Error("brand families must not overlap")
	}
}

func TestCatalogErrorPropagates(t *testing.T) {
	finder := newFinder()
	finder.Catalog = &mockCatalog{err: errors.New("mongo down")}

	_, _, err := finder.SelectStop(35.0, -90.0, 0, 55)
	if err == nil {
		t.Fatal("expected error")
	}
}
