package monitor

import (
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
)

// SnapshotSource supplies one merged telemetry reading per vehicle.
// pkg/telemetry implements this against the Samsara API.
type SnapshotSource interface {
	CombinedSnapshots() ([]cfdf.VehicleSnapshot, error)
}

const offlineBackoff = 30 * time.Minute

// Poller batch-fetches the whole fleet once per cycle and submits only the
// vehicles whose next_poll is due onto the snapshot queue. Vehicles we have
// never seen before are always due.
type Poller struct {
	Source SnapshotSource
	States StateStore
	Queue  rmq.Queue

	CycleInterval time.Duration
}

func (p *Poller) Run(shutdown <-chan struct{}) {
	log.Info().Str("interval", p.CycleInterval.String()).Msg("Starting telemetry poller")

	ticker := time.NewTicker(p.CycleInterval)
	defer ticker.Stop()

	cycle := 0
	for {
		cycle++
		p.runCycle(cycle)

		select {
		case <-shutdown:
			log.Info().Msg("Telemetry poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) runCycle(cycle int) {
	now := time.Now()

	snapshots, err := p.Source.CombinedSnapshots()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch telemetry data")
		return
	}

	states, err := p.States.All()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load vehicle states")
		return
	}

	statesByVehicle := map[string]*cfdf.VehicleState{}
	for _, state := range states {
		statesByVehicle[state.VehicleID] = state
	}

	var due []cfdf.VehicleSnapshot
	seenVehicles := map[string]bool{}

	for _, snapshot := range snapshots {
		seenVehicles[snapshot.VehicleID] = true

		state, known := statesByVehicle[snapshot.VehicleID]
		if !known {
			log.Info().Str("vehicle", snapshot.VehicleName).Msg("New vehicle discovered")
			due = append(due, snapshot)
			continue
		}

		if !state.NextPoll.After(now) {
			due = append(due, snapshot)
		}
	}

	log.Info().
		Int("cycle", cycle).
		Int("fleet", len(snapshots)).
		Int("due", len(due)).
		Msg("Poll cycle")

	p.logFleetSummary(states)

	// A due vehicle missing from the telemetry response is probably
	// offline - back off rather than hammering every cycle.
	for vehicleID, state := range statesByVehicle {
		if seenVehicles[vehicleID] || state.NextPoll.After(now) {
			continue
		}

		log.Warn().Str("vehicle", state.VehicleName).Msg("Vehicle missing from telemetry response")

		state.NextPoll = now.Add(offlineBackoff)
		if err := p.States.Put(state); err != nil {
			log.Error().Err(err).Str("vehicle", vehicleID).Msg("Failed to back off offline vehicle")
		}
	}

	submitPool := pool.New().WithMaxGoroutines(4)
	for _, snapshot := range due {
		submitPool.Go(func() {
			payload, err := json.Marshal(snapshot)
			if err != nil {
				log.Error().Err(err).Str("vehicle", snapshot.VehicleID).Msg("Failed to encode snapshot")
				return
			}

			if err := p.Queue.PublishBytes(payload); err != nil {
				log.Error().Err(err).Str("vehicle", snapshot.VehicleID).Msg("Failed to queue snapshot")
			}
		})
	}
	submitPool.Wait()
}

func (p *Poller) logFleetSummary(states []*cfdf.VehicleState) {
	if len(states) == 0 {
		return
	}

	counts := map[cfdf.LifecycleState]int{}
	for _, state := range states {
		counts[state.State]++
	}

	summary := log.Info()

	lifecycleStates := maps.Keys(counts)
	slices.Sort(lifecycleStates)
	for _, lifecycleState := range lifecycleStates {
		summary = summary.Int(string(lifecycleState), counts[lifecycleState])
	}

	summary.Msg("Fleet states")
}
