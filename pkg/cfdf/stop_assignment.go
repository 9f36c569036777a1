package cfdf

import "time"

// StopAssignment links an alert to the stop that was recommended for it.
type StopAssignment struct {
	ID string `bson:"_id,omitempty"`

	AlertID string
	StopID  string

	DistanceMiles float64
	AssignedAt    time.Time
}
