package cfdf

// VehicleSnapshot is a single telemetry reading for a vehicle. It only lives
// for the duration of one poll cycle and is never persisted directly.
type VehicleSnapshot struct {
	VehicleID   string
	VehicleName string
	DriverName  string

	Latitude  float64
	Longitude float64
	Heading   float64 // degrees clockwise from north, 0-360
	SpeedMPH  float64

	FuelPercent float64
}
