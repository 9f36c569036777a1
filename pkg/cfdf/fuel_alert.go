package cfdf

import "time"

type AlertStatus string

const (
	AlertStatusOpen AlertStatus = "open"

	AlertStatusResolved = "resolved"
	AlertStatusSkipped  = "skipped"
)

// FuelAlert records one low-fuel event, capturing the snapshot that
// triggered it.
type FuelAlert struct {
	ID string `bson:"_id,omitempty"`

	VehicleID   string
	VehicleName string
	DriverName  string

	FuelPercent float64
	Latitude    float64
	Longitude   float64
	Heading     float64
	SpeedMPH    float64

	SentAt time.Time
	Status AlertStatus

	// Message id of the dispatcher notification, kept for threaded replies.
	TelegramMessageID int
}
