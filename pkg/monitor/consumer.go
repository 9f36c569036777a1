package monitor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/redis_client"
)

const queueName = "fuelmonitor-queue"

const numConsumers = 2
const batchSize = 50

// StartConsumers opens the snapshot queue and runs the background batch
// consumers that push each due vehicle through the state machine.
func StartConsumers(machine *StateMachine, states StateStore) rmq.Queue {
	log.Info().Msg("Starting fuel monitor consumers")

	queue, err := redis_client.QueueConnection.OpenQueue(queueName)
	if err != nil {
		panic(err)
	}
	if err := queue.StartConsuming(numConsumers*batchSize, 1*time.Second); err != nil {
		panic(err)
	}

	for i := 0; i < numConsumers; i++ {
		startSnapshotConsumer(queue, i, machine, states)
	}

	return queue
}

func startSnapshotConsumer(queue rmq.Queue, id int, machine *StateMachine, states StateStore) {
	log.Info().Msgf("Starting fuel monitor consumer %d", id)

	if _, err := queue.AddBatchConsumer(fmt.Sprintf("fuelmonitor-queue-%d", id), batchSize, 2*time.Second, NewBatchConsumer(id, machine, states)); err != nil {
		panic(err)
	}
}

type BatchConsumer struct {
	id int

	machine *StateMachine
	states  StateStore
}

func NewBatchConsumer(id int, machine *StateMachine, states StateStore) *BatchConsumer {
	return &BatchConsumer{id: id, machine: machine, states: states}
}

// Consume runs each queued snapshot through the state machine and persists
// the resulting state. One vehicle failing never stops the rest of the
// batch - its previous state simply stays persisted and the vehicle is
// retried when next due.
func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	for _, payload := range batch.Payloads() {
		var snapshot cfdf.VehicleSnapshot
		if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
			log.Error().Err(err).Msg("Failed to decode snapshot payload")
			continue
		}

		previousState, err := consumer.states.Get(snapshot.VehicleID)
		if err != nil {
			log.Error().Err(err).Str("vehicle", snapshot.VehicleID).Msg("Failed to load vehicle state")
			continue
		}

		nextState, err := consumer.machine.Process(previousState, snapshot, time.Now())
		if err != nil {
			log.Error().Err(err).Str("vehicle", snapshot.VehicleID).Msg("Failed to process vehicle")
			continue
		}

		if err := consumer.states.Put(nextState); err != nil {
			log.Error().Err(err).Str("vehicle", snapshot.VehicleID).Msg("Failed to persist vehicle state")
		}
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to ack snapshot batch")
		}
	}
}
