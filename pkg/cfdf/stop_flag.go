package cfdf

import "time"

type FlagStatus string

const (
	FlagStatusPending FlagStatus = "pending"

	FlagStatusVisited = "visited"
	FlagStatusSkipped = "skipped"
)

// StopFlag tracks whether a vehicle actually reached the stop it was sent
// to. Created pending alongside an alert's stop assignment and closed as
// either visited or skipped.
type StopFlag struct {
	ID string `bson:"_id,omitempty"`

	AlertID   string
	VehicleID string
	StopID    string

	// Denormalised from the catalog so reconciliation never needs a join.
	StopName      string
	StopLatitude  float64
	StopLongitude float64

	Status    FlagStatus
	FlaggedAt time.Time

	SkipMessageID int

	// Populated on read from the owning alert, not stored on the flag.
	AlertMessageID int `bson:"-"`
}
