package cfdf

import "time"

type LifecycleState string

const (
	LifecycleStateUnknown LifecycleState = "UNKNOWN"

	LifecycleStateInYard         = "IN_YARD"
	LifecycleStateHealthy        = "HEALTHY"
	LifecycleStateWatch          = "WATCH"
	LifecycleStateCriticalMoving = "CRITICAL_MOVING"
	LifecycleStateCriticalParked = "CRITICAL_PARKED"
)

// VehicleState is the persisted per-vehicle record. It is owned exclusively
// by the monitor state machine - everything else treats it as read-only.
type VehicleState struct {
	VehicleID   string `bson:"_id"`
	VehicleName string
	DriverName  string

	State LifecycleState

	FuelPercent float64
	Latitude    float64
	Longitude   float64
	SpeedMPH    float64
	Heading     float64

	NextPoll       time.Time
	ParkedSince    *time.Time
	Sleeping       bool
	FuelWhenParked *float64

	InYard   bool
	YardName string

	OpenAlertID        string
	AlertSent          bool
	OvernightAlertSent bool

	AssignedStopID   string
	AssignedStopName string
	AssignedStopLat  float64
	AssignedStopLng  float64
	AssignmentTime   *time.Time

	LastUpdated time.Time
}

// NewVehicleState returns the default record for a vehicle seen for the first
// time. NextPoll is now so the vehicle is evaluated immediately.
func NewVehicleState(snapshot VehicleSnapshot, now time.Time) *VehicleState {
	return &VehicleState{
		VehicleID:   snapshot.VehicleID,
		VehicleName: snapshot.VehicleName,
		DriverName:  snapshot.DriverName,

		State: LifecycleStateUnknown,

		FuelPercent: snapshot.FuelPercent,
		Latitude:    snapshot.Latitude,
		Longitude:   snapshot.Longitude,
		SpeedMPH:    snapshot.SpeedMPH,
		Heading:     snapshot.Heading,

		NextPoll:    now,
		LastUpdated: now,
	}
}
