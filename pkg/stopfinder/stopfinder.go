package stopfinder

import (
	"sort"
	"strings"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/geomath"
)

// Catalog supplies the diesel-capable stops the finder searches over.
type Catalog interface {
	DieselStops() ([]cfdf.Stop, error)
}

// FoundStop is a catalog stop annotated with its straight-line distance from
// the vehicle.
type FoundStop struct {
	cfdf.Stop

	DistanceMiles float64
}

// StopFinder selects the best diesel stop for a vehicle.
//
// Moving vehicles get a strict brand priority chain by pure distance:
// Pilot/Flying J near, Love's near, Pilot/Flying J extended, Love's
// extended. Parked vehicles get the single nearest stop of any brand within
// the extended radius, after first checking whether the vehicle is already
// sitting in a stop's lot.
//
// There is deliberately no heading filter - an earlier bearing-deviation
// check produced false negatives on curved approach roads.
type StopFinder struct {
	Catalog Catalog

	PilotRadiusMiles    float64
	LovesRadiusMiles    float64
	ExtendedRadiusMiles float64
	AtStopRadiusMiles   float64
	MovingSpeedMPH      float64
}

func (f *StopFinder) SelectStop(lat float64, lng float64, heading float64, speedMPH float64) (*FoundStop, Classification, error) {
	stops, err := f.Catalog.DieselStops()
	if err != nil {
		return nil, ClassificationNone, err
	}

	parked := speedMPH <= f.MovingSpeedMPH

	if parked {
		// Already in a stop's lot - nothing to recommend.
		if found := nearestWithin(stops, lat, lng, f.AtStopRadiusMiles, isKnownBrand); found != nil {
			return found, ClassificationAtStop, nil
		}

		// No meaningful direction of travel, so ignore brand priority and
		// take the closest fuel available.
		if found := nearestWithin(stops, lat, lng, f.ExtendedRadiusMiles, isKnownBrand); found != nil {
			return found, ClassificationNearestParked, nil
		}

		return nil, ClassificationNone, nil
	}

	steps := []struct {
		radiusMiles    float64
		matchBrand     func(string) bool
		classification Classification
	}{
		{f.PilotRadiusMiles, isPilotBrand, ClassificationPilotNear},
		{f.LovesRadiusMiles, isLovesBrand, ClassificationLovesNear},
		{f.ExtendedRadiusMiles, isPilotBrand, ClassificationPilotExtended},
		{f.ExtendedRadiusMiles, isLovesBrand, ClassificationLovesExtended},
	}

	for _, step := range steps {
		if found := nearestWithin(stops, lat, lng, step.radiusMiles, step.matchBrand); found != nil {
			return found, step.classification, nil
		}
	}

	return nil, ClassificationNone, nil
}

// nearestWithin returns the closest matching stop within radiusMiles, or nil
// when nothing qualifies. Ties break by distance ascending.
func nearestWithin(stops []cfdf.Stop, lat float64, lng float64, radiusMiles float64, matchBrand func(string) bool) *FoundStop {
	var candidates []FoundStop

	for _, stop := range stops {
		if !matchBrand(stop.Brand) {
			continue
		}

		distance := geomath.DistanceMiles(lat, lng, stop.Latitude, stop.Longitude)
		if distance > radiusMiles {
			continue
		}

		candidates = append(candidates, FoundStop{Stop: stop, DistanceMiles: distance})
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceMiles < candidates[j].DistanceMiles
	})

	return &candidates[0]
}

// Brand matching is a loose substring test because the source data is
// inconsistent about abbreviations and punctuation.

func isPilotBrand(brand string) bool {
	b := strings.ToLower(brand)

	return strings.Contains(b, "pilot") || strings.Contains(b, "flying j") ||
		strings.Contains(b, "flyingj") || strings.Contains(b, "one9")
}

func isLovesBrand(brand string) bool {
	return strings.Contains(strings.ToLower(brand), "love")
}

func isKnownBrand(brand string) bool {
	return isPilotBrand(brand) || isLovesBrand(brand)
}
