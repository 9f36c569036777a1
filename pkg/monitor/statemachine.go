package monitor

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/config"
	"github.com/fleetfuel/fleetfuel/pkg/geofence"
	"github.com/fleetfuel/fleetfuel/pkg/geomath"
	"github.com/fleetfuel/fleetfuel/pkg/stopfinder"
)

// StateMachine decides, per vehicle and per poll cycle, whether to raise a
// low-fuel alert, which stop to recommend, and whether the vehicle actually
// stopped there.
//
// The transition policy runs in a fixed order: yard containment first (yards
// silence everything), then fuel recovery, then the wake-up check for
// vehicles that slept with low fuel, then the moving and parked low-fuel
// branches. A sleeping vehicle is never "refueled" by mere proximity to a
// stop - only the fuel comparison at wake-up can close its alert, which
// stops false resolutions when a truck idles overnight near a stop it never
// visited.
type StateMachine struct {
	Config   config.Config
	Geofence *geofence.YardGeofence
	Finder   *stopfinder.StopFinder

	Alerts   AlertStore
	Flags    FlagStore
	Notifier Notifier
}

// Process evaluates one snapshot against the vehicle's previous state and
// returns the next state. prev may be nil for a vehicle seen for the first
// time. The returned state is a fresh record - on error the caller discards
// it and keeps prev, so a half-evaluated cycle is never persisted.
//
// Store failures abort the evaluation; notification failures are logged and
// do not stop the underlying alert or flag change (at-least-once delivery).
func (m *StateMachine) Process(prev *cfdf.VehicleState, snapshot cfdf.VehicleSnapshot, now time.Time) (*cfdf.VehicleState, error) {
	var state *cfdf.VehicleState
	if prev == nil {
		state = cfdf.NewVehicleState(snapshot, now)
	} else {
		copied := *prev
		state = &copied
	}

	state.VehicleName = snapshot.VehicleName
	state.DriverName = snapshot.DriverName
	state.FuelPercent = snapshot.FuelPercent
	state.Latitude = snapshot.Latitude
	state.Longitude = snapshot.Longitude
	state.SpeedMPH = snapshot.SpeedMPH
	state.Heading = snapshot.Heading
	state.LastUpdated = now

	moving := snapshot.SpeedMPH > m.Config.MovingSpeedMPH
	lowFuel := snapshot.FuelPercent <= m.Config.FuelAlertThresholdPct

	log.Debug().
		Str("vehicle", snapshot.VehicleName).
		Float64("fuel", snapshot.FuelPercent).
		Float64("speed", snapshot.SpeedMPH).
		Str("state", string(state.State)).
		Bool("sleeping", state.Sleeping).
		Msg("Processing vehicle")

	// Yard containment always wins - a vehicle inside a yard gets no
	// alerting of any kind.
	wasInYard := state.InYard

	if yardName, inYard := m.Geofence.YardNameAt(snapshot.Latitude, snapshot.Longitude); inYard {
		if !wasInYard {
			log.Info().Str("vehicle", snapshot.VehicleName).Str("yard", yardName).Msg("Vehicle entered yard")
		}

		state.InYard = true
		state.YardName = yardName
		state.State = cfdf.LifecycleStateInYard
		state.NextPoll = now.Add(30 * time.Minute)

		return state, nil
	}

	if wasInYard {
		yardName := state.YardName
		state.InYard = false
		state.YardName = ""

		if lowFuel {
			log.Info().
				Str("vehicle", snapshot.VehicleName).
				Str("yard", yardName).
				Float64("fuel", snapshot.FuelPercent).
				Msg("Vehicle left yard with low fuel")

			if err := m.Notifier.SendLeftYardLowFuel(snapshot, yardName); err != nil {
				log.Warn().Err(err).Str("vehicle", snapshot.VehicleName).Msg("Failed to send left-yard notification")
			}
		}
	}

	if !lowFuel {
		return state, m.fuelRecovered(state, snapshot, moving, now)
	}

	if state.Sleeping && moving {
		return state, m.wokeUp(state, snapshot, now)
	}

	if moving {
		return state, m.criticalMoving(state, snapshot, now)
	}

	return state, m.criticalParked(state, snapshot, now)
}

// fuelRecovered closes any open alert and re-classifies the vehicle as
// HEALTHY or WATCH.
func (m *StateMachine) fuelRecovered(state *cfdf.VehicleState, snapshot cfdf.VehicleSnapshot, moving bool, now time.Time) error {
	if state.OpenAlertID != "" {
		log.Info().
			Str("vehicle", snapshot.VehicleName).
			Float64("fuel", snapshot.FuelPercent).
			Msg("Fuel recovered, closing alert")

		if err := m.Alerts.ResolveAlert(state.OpenAlertID); err != nil {
			return err
		}
	}

	m.clearAlertState(state)

	if snapshot.FuelPercent > config.HealthyFuelPct {
		state.State = cfdf.LifecycleStateHealthy
		state.NextPoll = now.Add(m.Config.PollIntervalHealthy)
	} else {
		state.State = cfdf.LifecycleStateWatch

		// A stationary vehicle with adequate-but-not-great fuel is checked
		// less urgently than a moving one.
		if moving {
			state.NextPoll = now.Add(m.Config.PollIntervalWatch)
		} else {
			state.NextPoll = now.Add(m.Config.PollIntervalHealthy)
		}
	}

	state.ParkedSince = nil

	return nil
}

// wokeUp handles a vehicle that slept with low fuel and is moving again.
// Fuel up by more than the delta means the driver refueled during the sleep;
// otherwise the old alert is stale (the vehicle may be far from its assigned
// stop) and a fresh one fires with the current position.
func (m *StateMachine) wokeUp(state *cfdf.VehicleState, snapshot cfdf.VehicleSnapshot, now time.Time) error {
	fuelWhenParked := snapshot.FuelPercent
	if state.FuelWhenParked != nil {
		fuelWhenParked = *state.FuelWhenParked
	}

	log.Info().
		Str("vehicle", snapshot.VehicleName).
		Float64("fuelWhenParked", fuelWhenParked).
		Float64("fuel", snapshot.FuelPercent).
		Msg("Vehicle woke up")

	state.Sleeping = false
	state.FuelWhenParked = nil
	state.ParkedSince = nil

	if state.OpenAlertID != "" {
		if err := m.Alerts.ResolveAlert(state.OpenAlertID); err != nil {
			return err
		}
	}

	if snapshot.FuelPercent > fuelWhenParked+config.WakeRefuelDeltaPct {
		stopName := state.AssignedStopName
		if stopName == "" {
			stopName = "a fuel stop"
		}

		if err := m.Notifier.SendRefueled(snapshot, stopName); err != nil {
			log.Warn().Err(err).Str("vehicle", snapshot.VehicleName).Msg("Failed to send refueled notification")
		}

		m.clearAlertState(state)

		if snapshot.FuelPercent <= m.Config.FuelAlertThresholdPct {
			state.State = cfdf.LifecycleStateCriticalMoving
		} else {
			state.State = cfdf.LifecycleStateHealthy
		}
		state.NextPoll = now.Add(m.Config.PollIntervalCriticalMoving)

		return nil
	}

	// Still low - fresh alert so the stop search runs again from wherever
	// the vehicle is now.
	m.clearAlertState(state)
	state.State = cfdf.LifecycleStateCriticalMoving
	state.NextPoll = now.Add(m.Config.PollIntervalCriticalMoving)

	return m.fireAlert(state, snapshot, now)
}

func (m *StateMachine) criticalMoving(state *cfdf.VehicleState, snapshot cfdf.VehicleSnapshot, now time.Time) error {
	state.State = cfdf.LifecycleStateCriticalMoving
	state.NextPoll = now.Add(m.Config.PollIntervalCriticalMoving)
	state.ParkedSince = nil

	if err := m.reconcileFlags(state, snapshot, now); err != nil {
		return err
	}

	// One alert per low-fuel episode.
	if !state.AlertSent {
		return m.fireAlert(state, snapshot, now)
	}

	return nil
}

func (m *StateMachine) criticalParked(state *cfdf.VehicleState, snapshot cfdf.VehicleSnapshot, now time.Time) error {
	if state.ParkedSince == nil {
		parkedSince := now
		fuelWhenParked := snapshot.FuelPercent

		state.ParkedSince = &parkedSince
		state.FuelWhenParked = &fuelWhenParked

		log.Info().
			Str("vehicle", snapshot.VehicleName).
			Float64("fuel", snapshot.FuelPercent).
			Msg("Vehicle parked with low fuel, entering sleep")
	}

	state.State = cfdf.LifecycleStateCriticalParked
	state.NextPoll = now.Add(m.Config.PollIntervalCriticalParked)
	state.Sleeping = true

	// One notification per sleep episode so the dispatcher knows the
	// vehicle stopped with low fuel. No proximity-based resolution happens
	// while sleeping.
	if !state.OvernightAlertSent {
		if err := m.fireAlert(state, snapshot, now); err != nil {
			return err
		}

		state.OvernightAlertSent = true
	}

	return nil
}

// fireAlert creates the alert record, runs the stop search and sends the
// matching notification.
func (m *StateMachine) fireAlert(state *cfdf.VehicleState, snapshot cfdf.VehicleSnapshot, now time.Time) error {
	log.Info().
		Str("vehicle", snapshot.VehicleName).
		Float64("fuel", snapshot.FuelPercent).
		Msg("Firing low-fuel alert")

	// A vehicle carries at most one open alert. Firing again (a moving
	// alert followed by the parked one) supersedes the previous episode.
	if state.OpenAlertID != "" {
		if err := m.Alerts.ResolveAlert(state.OpenAlertID); err != nil {
			return err
		}
		state.OpenAlertID = ""
	}

	alertID, err := m.Alerts.CreateAlert(&cfdf.FuelAlert{
		VehicleID:   snapshot.VehicleID,
		VehicleName: snapshot.VehicleName,
		DriverName:  snapshot.DriverName,
		FuelPercent: snapshot.FuelPercent,
		Latitude:    snapshot.Latitude,
		Longitude:   snapshot.Longitude,
		Heading:     snapshot.Heading,
		SpeedMPH:    snapshot.SpeedMPH,
		SentAt:      now,
		Status:      cfdf.AlertStatusOpen,
	})
	if err != nil {
		return err
	}

	state.OpenAlertID = alertID

	found, classification, err := m.Finder.SelectStop(snapshot.Latitude, snapshot.Longitude, snapshot.Heading, snapshot.SpeedMPH)
	if err != nil {
		return err
	}

	if classification == stopfinder.ClassificationAtStop {
		// Vehicle is already sitting in a stop's lot - nothing to do.
		log.Info().
			Str("vehicle", snapshot.VehicleName).
			Str("stop", found.Name).
			Msg("Vehicle already at a fuel stop, no notification needed")

		if err := m.Alerts.ResolveAlert(alertID); err != nil {
			return err
		}

		state.OpenAlertID = ""
		state.AlertSent = true

		return nil
	}

	if found == nil {
		log.Warn().
			Str("vehicle", snapshot.VehicleName).
			Float64("radius", m.Config.ExtendedRadiusMiles).
			Msg("No stop found within extended radius")

		messageID, err := m.Notifier.SendNoStopFound(snapshot)
		if err != nil {
			log.Warn().Err(err).Str("vehicle", snapshot.VehicleName).Msg("Failed to send no-stop notification")
		} else if messageID != 0 {
			if err := m.Alerts.SetAlertMessageID(alertID, messageID); err != nil {
				return err
			}
		}

		state.AlertSent = true

		return nil
	}

	log.Info().
		Str("vehicle", snapshot.VehicleName).
		Str("stop", found.Name).
		Float64("distance", found.DistanceMiles).
		Str("classification", string(classification)).
		Msg("Assigning stop")

	if err := m.Alerts.CreateAssignment(&cfdf.StopAssignment{
		AlertID:       alertID,
		StopID:        found.ID,
		DistanceMiles: found.DistanceMiles,
		AssignedAt:    now,
	}); err != nil {
		return err
	}

	if _, err := m.Flags.CreatePendingFlag(&cfdf.StopFlag{
		AlertID:       alertID,
		VehicleID:     snapshot.VehicleID,
		StopID:        found.ID,
		StopName:      found.Name,
		StopLatitude:  found.Latitude,
		StopLongitude: found.Longitude,
		Status:        cfdf.FlagStatusPending,
		FlaggedAt:     now,
	}); err != nil {
		return err
	}

	assignmentTime := now
	state.AssignedStopID = found.ID
	state.AssignedStopName = found.Name
	state.AssignedStopLat = found.Latitude
	state.AssignedStopLng = found.Longitude
	state.AssignmentTime = &assignmentTime

	messageID, err := m.Notifier.SendLowFuel(snapshot, *found, classification)
	if err != nil {
		log.Warn().Err(err).Str("vehicle", snapshot.VehicleName).Msg("Failed to send low-fuel notification")
	} else if messageID != 0 {
		if err := m.Alerts.SetAlertMessageID(alertID, messageID); err != nil {
			return err
		}
	}

	state.AlertSent = true

	return nil
}

// reconcileFlags closes out pending flags for a moving vehicle: near the
// assigned stop means visited (refueled), older than the skip window means
// skipped. Never called while the vehicle is sleeping.
func (m *StateMachine) reconcileFlags(state *cfdf.VehicleState, snapshot cfdf.VehicleSnapshot, now time.Time) error {
	flags, err := m.Flags.PendingFlags(snapshot.VehicleID)
	if err != nil {
		return err
	}

	for _, flag := range flags {
		distance := geomath.DistanceMiles(snapshot.Latitude, snapshot.Longitude, flag.StopLatitude, flag.StopLongitude)

		if distance <= m.Config.VisitRadiusMiles {
			log.Info().
				Str("vehicle", snapshot.VehicleName).
				Str("stop", flag.StopName).
				Msg("Vehicle reached assigned stop")

			if err := m.Flags.MarkFlagVisited(flag.ID); err != nil {
				return err
			}
			if err := m.Alerts.ResolveAlert(flag.AlertID); err != nil {
				return err
			}

			if err := m.Notifier.SendRefueled(snapshot, flag.StopName); err != nil {
				log.Warn().Err(err).Str("vehicle", snapshot.VehicleName).Msg("Failed to send refueled notification")
			}

			m.clearAlertState(state)

			continue
		}

		if now.Sub(flag.FlaggedAt) >= m.Config.SkipDetectionWindow {
			log.Warn().
				Str("vehicle", snapshot.VehicleName).
				Str("stop", flag.StopName).
				Str("age", now.Sub(flag.FlaggedAt).String()).
				Msg("Vehicle skipped assigned stop")

			skipMessageID, err := m.Notifier.SendStopSkipped(snapshot, flag.StopName, flag.AlertMessageID)
			if err != nil {
				log.Warn().Err(err).Str("vehicle", snapshot.VehicleName).Msg("Failed to send stop-skipped notification")
			}

			if err := m.Flags.MarkFlagSkipped(flag.ID, skipMessageID); err != nil {
				return err
			}
			if err := m.Alerts.MarkAlertSkipped(flag.AlertID); err != nil {
				return err
			}

			m.clearAlertState(state)
		}
	}

	return nil
}

// clearAlertState wipes every alert, assignment and sleep field so the next
// low-fuel episode starts clean.
func (m *StateMachine) clearAlertState(state *cfdf.VehicleState) {
	state.OpenAlertID = ""
	state.AssignedStopID = ""
	state.AssignedStopName = ""
	state.AssignedStopLat = 0
	state.AssignedStopLng = 0
	state.AssignmentTime = nil
	state.AlertSent = false
	state.OvernightAlertSent = false
	state.FuelWhenParked = nil
	state.Sleeping = false
}
