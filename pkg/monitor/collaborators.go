package monitor

import (
	"time"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/stopfinder"
)

// The state machine talks to its collaborators through these interfaces so
// the decision logic stays testable without a real database or Telegram.
// pkg/database provides the mongo-backed implementations.

// StateStore holds the persisted per-vehicle records.
type StateStore interface {
	Get(vehicleID string) (*cfdf.VehicleState, error)
	Put(state *cfdf.VehicleState) error
	All() ([]*cfdf.VehicleState, error)
	ListDue(now time.Time) ([]*cfdf.VehicleState, error)
	Reset() error
}

// AlertStore owns alert and stop-assignment records.
type AlertStore interface {
	CreateAlert(alert *cfdf.FuelAlert) (string, error)
	ResolveAlert(alertID string) error
	MarkAlertSkipped(alertID string) error
	SetAlertMessageID(alertID string, messageID int) error
	CreateAssignment(assignment *cfdf.StopAssignment) error
}

// FlagStore owns the pending/visited/skipped stop trackers.
type FlagStore interface {
	CreatePendingFlag(flag *cfdf.StopFlag) (string, error)
	PendingFlags(vehicleID string) ([]cfdf.StopFlag, error)
	MarkFlagVisited(flagID string) error
	MarkFlagSkipped(flagID string, skipMessageID int) error
}

// Notifier delivers dispatcher messages. Implementations format the text -
// the state machine only supplies the facts. A returned message id of zero
// means no id is available for threading.
type Notifier interface {
	SendLowFuel(snapshot cfdf.VehicleSnapshot, stop stopfinder.FoundStop, classification stopfinder.Classification) (int, error)
	SendNoStopFound(snapshot cfdf.VehicleSnapshot) (int, error)
	SendRefueled(snapshot cfdf.VehicleSnapshot, stopName string) error
	SendStopSkipped(snapshot cfdf.VehicleSnapshot, stopName string, replyToMessageID int) (int, error)
	SendLeftYardLowFuel(snapshot cfdf.VehicleSnapshot, yardName string) error
}
