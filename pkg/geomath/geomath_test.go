package geomath

import (
	"math"
	"testing"
)

func TestDistanceMilesSamePoint(t *testing.T) {
	d := DistanceMiles(28.4277, -81.3816, 28.4277, -81.3816)
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDistanceMilesKnownPair(t *testing.T) {
	// Orlando to Tampa is roughly 80 miles straight line
	d := DistanceMiles(28.5384, -81.3789, 27.9506, -82.4572)
	if d < 75 || d > 85 {
		t.Errorf("expected ~80 miles, got %f", d)
	}
}

func TestDistanceMilesOneDegreeLatitude(t *testing.T) {
	// one degree of latitude is ~69 miles everywhere
	d := DistanceMiles(35.0, -90.0, 36.0, -90.0)
	if math.Abs(d-69.09) > 0.5 {
		t.Errorf("expected ~69.1 miles, got %f", d)
	}
}

func TestInitialBearing(t *testing.T) {
	// due north
	b := InitialBearing(35.0, -90.0, 36.0, -90.0)
	if math.Abs(b) > 0.01 {
		t.Errorf("expected 0, got %f", b)
	}

	// due east along the equator
	b = InitialBearing(0, 0, 0, 1)
	if math.Abs(b-90) > 0.01 {
		t.Errorf("expected 90, got %f", b)
	}

	// due south
	b = InitialBearing(36.0, -90.0, 35.0, -90.0)
	if math.Abs(b-180) > 0.01 {
		t.Errorf("expected 180, got %f", b)
	}
}

func TestCompassPoint(t *testing.T) {
	cases := []struct {
		heading  float64
		expected string
	}{
		{0, "N"},
		{11, "N"},
		{12, "NNE"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{348, "NNW"},
		{359, "N"},
		{360, "N"},
	}

	for _, c := range cases {
		if got := CompassPoint(c.heading); got != c.expected {
			t.Errorf("CompassPoint(%f) = %s, expected %s", c.heading, got, c.expected)
		}
	}
}
