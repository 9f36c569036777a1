package geofence

import (
	"testing"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/geomath"
)

func TestIsInYardInside(t *testing.T) {
	g := NewYardGeofence([]cfdf.Yard{
		{Name: "Main Yard", Latitude: 28.4277, Longitude: -81.3816, RadiusMiles: 0.5},
	})

	if !g.IsInYard(28.4277, -81.3816) {
		t.Error("expected yard centre to be inside")
	}
}

func TestIsInYardOutside(t *testing.T) {
	g := NewYardGeofence([]cfdf.Yard{
		{Name: "Main Yard", Latitude: 28.4277, Longitude: -81.3816, RadiusMiles: 0.5},
	})

	if g.IsInYard(29.0, -82.0) {
		t.Error("expected distant point to be outside")
	}
}

func TestYardBoundaryIsInclusive(t *testing.T) {
	// one degree of latitude is ~69.09 miles, so a point 0.5 miles north of
	// the centre sits almost exactly on a 0.5 mile radius. Use the computed
	// distance as the radius so the point lands exactly on the boundary.
	centreLat, centreLng := 28.4277, -81.3816
	pointLat := centreLat + 0.5/69.09

	radius := geomath.DistanceMiles(centreLat, centreLng, pointLat, centreLng)

	g := NewYardGeofence([]cfdf.Yard{
		{Name: "Main Yard", Latitude: centreLat, Longitude: centreLng, RadiusMiles: radius},
	})

	if !g.IsInYard(pointLat, centreLng) {
		t.Error("point exactly at radius distance must be inside the yard")
	}
}

func TestOverlappingYardsFirstMatchWins(t *testing.T) {
	g := NewYardGeofence([]cfdf.Yard{
		{Name: "North Lot", Latitude: 28.4277, Longitude: -81.3816, RadiusMiles: 1},
		{Name: "South Lot", Latitude: 28.4277, Longitude: -81.3816, RadiusMiles: 2},
	})

	name, inYard := g.YardNameAt(28.4277, -81.3816)
	if !inYard {
		t.Fatal("expected point to be in a yard")
	}
	if name != "North Lot" {
		t.Errorf("expected first configured yard, got %s", name)
	}
}

func TestNoYardsConfigured(t *testing.T) {
	g := NewYardGeofence(nil)

	if g.IsInYard(28.4277, -81.3816) {
		t.Error("expected false with zero configured yards")
	}
	if name, inYard := g.YardNameAt(28.4277, -81.3816); inYard || name != "" {
		t.Errorf("expected no yard, got %q", name)
	}
}
