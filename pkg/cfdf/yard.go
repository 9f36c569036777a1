package cfdf

// Yard is a company-controlled circular geofence. Vehicles inside any yard
// are fully silenced - no fuel alerting of any kind.
type Yard struct {
	Name        string  `yaml:"name"`
	Latitude    float64 `yaml:"latitude"`
	Longitude   float64 `yaml:"longitude"`
	RadiusMiles float64 `yaml:"radius_miles"`
}
