package geomath

import "math"

const EarthRadiusMiles = 3958.8

// DistanceMiles returns the great-circle distance in miles between two GPS
// coordinates using the haversine formula. A straight-line proxy is good
// enough for "is there fuel within reach" - no road routing here.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return EarthRadiusMiles * 2 * math.Asin(math.Sqrt(a))
}

// InitialBearing returns the initial great-circle bearing from the first
// coordinate to the second, in degrees clockwise from north (0-360).
func InitialBearing(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dLambda := toRadians(lng2 - lng1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	bearing := math.Atan2(y, x) * 180 / math.Pi

	return math.Mod(bearing+360, 360)
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassPoint maps a heading in degrees onto the 16-wind compass rose.
func CompassPoint(heading float64) string {
	index := int(math.Round(heading/22.5)) % 16
	if index < 0 {
		index += 16
	}

	return compassPoints[index]
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
