package geofence

import (
	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/geomath"
)

// YardGeofence tests coordinates against the configured circular yard zones.
// Containment is inclusive of the boundary. When yards overlap the first
// match in configuration order wins.
type YardGeofence struct {
	yards []cfdf.Yard
}

func NewYardGeofence(yards []cfdf.Yard) *YardGeofence {
	return &YardGeofence{yards: yards}
}

func (g *YardGeofence) IsInYard(lat float64, lng float64) bool {
	_, inYard := g.YardNameAt(lat, lng)

	return inYard
}

func (g *YardGeofence) YardNameAt(lat float64, lng float64) (string, bool) {
	for _, yard := range g.yards {
		distance := geomath.DistanceMiles(lat, lng, yard.Latitude, yard.Longitude)

		if distance <= yard.RadiusMiles {
			return yard.Name, true
		}
	}

	return "", false
}
