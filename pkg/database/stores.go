package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
)

// VehicleStateStore persists the per-vehicle monitor records in the
// vehicle_states collection, keyed by the vehicle id.
type VehicleStateStore struct{}

func (s VehicleStateStore) Get(vehicleID string) (*cfdf.VehicleState, error) {
	collection := GetCollection("vehicle_states")

	var state cfdf.VehicleState
	err := collection.FindOne(context.Background(), bson.M{"_id": vehicleID}).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &state, nil
}

func (s VehicleStateStore) Put(state *cfdf.VehicleState) error {
	collection := GetCollection("vehicle_states")

	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(context.Background(), bson.M{"_id": state.VehicleID}, state, opts)

	return err
}

func (s VehicleStateStore) All() ([]*cfdf.VehicleState, error) {
	return s.find(bson.M{})
}

func (s VehicleStateStore) ListDue(now time.Time) ([]*cfdf.VehicleState, error) {
	return s.find(bson.M{"nextpoll": bson.M{"$lte": now}})
}

func (s VehicleStateStore) find(filter bson.M) ([]*cfdf.VehicleState, error) {
	collection := GetCollection("vehicle_states")

	cursor, err := collection.Find(context.Background(), filter)
	if err != nil {
		return nil, err
	}

	var states []*cfdf.VehicleState
	if err := cursor.All(context.Background(), &states); err != nil {
		return nil, err
	}

	return states, nil
}

func (s VehicleStateStore) Reset() error {
	for _, collectionName := range []string{"vehicle_states", "fuel_alerts", "stop_flags", "stop_assignments"} {
		if err := GetCollection(collectionName).Drop(context.Background()); err != nil {
			return err
		}
	}

	return nil
}

// FuelAlertStore owns the fuel_alerts and stop_assignments collections.
type FuelAlertStore struct{}

func (s FuelAlertStore) CreateAlert(alert *cfdf.FuelAlert) (string, error) {
	collection := GetCollection("fuel_alerts")

	alert.ID = primitive.NewObjectID().Hex()
	alert.Status = cfdf.AlertStatusOpen

	_, err := collection.InsertOne(context.Background(), alert)
	if err != nil {
		return "", err
	}

	return alert.ID, nil
}

func (s FuelAlertStore) ResolveAlert(alertID string) error {
	return s.setStatus(alertID, cfdf.AlertStatusResolved)
}

func (s FuelAlertStore) MarkAlertSkipped(alertID string) error {
	return s.setStatus(alertID, cfdf.AlertStatusSkipped)
}

func (s FuelAlertStore) setStatus(alertID string, status cfdf.AlertStatus) error {
	collection := GetCollection("fuel_alerts")

	_, err := collection.UpdateOne(context.Background(),
		bson.M{"_id": alertID},
		bson.M{"$set": bson.M{"status": status}})

	return err
}

func (s FuelAlertStore) SetAlertMessageID(alertID string, messageID int) error {
	collection := GetCollection("fuel_alerts")

	_, err := collection.UpdateOne(context.Background(),
		bson.M{"_id": alertID},
		bson.M{"$set": bson.M{"telegrammessageid": messageID}})

	return err
}

func (s FuelAlertStore) CreateAssignment(assignment *cfdf.StopAssignment) error {
	collection := GetCollection("stop_assignments")

	assignment.ID = primitive.NewObjectID().Hex()

	_, err := collection.InsertOne(context.Background(), assignment)

	return err
}

// StopFlagStore owns the stop_flags collection. Pending flags are read back
// with the owning alert's message id attached so skip notices can thread.
type StopFlagStore struct{}

func (s StopFlagStore) CreatePendingFlag(flag *cfdf.StopFlag) (string, error) {
	collection := GetCollection("stop_flags")

	flag.ID = primitive.NewObjectID().Hex()
	flag.Status = cfdf.FlagStatusPending

	_, err := collection.InsertOne(context.Background(), flag)
	if err != nil {
		return "", err
	}

	return flag.ID, nil
}

func (s StopFlagStore) PendingFlags(vehicleID string) ([]cfdf.StopFlag, error) {
	collection := GetCollection("stop_flags")

	cursor, err := collection.Find(context.Background(), bson.M{
		"vehicleid": vehicleID,
		"status":    cfdf.FlagStatusPending,
	})
	if err != nil {
		return nil, err
	}

	var flags []cfdf.StopFlag
	if err := cursor.All(context.Background(), &flags); err != nil {
		return nil, err
	}

	alertsCollection := GetCollection("fuel_alerts")
	for i, flag := range flags {
		var alert cfdf.FuelAlert
		err := alertsCollection.FindOne(context.Background(), bson.M{"_id": flag.AlertID}).Decode(&alert)
		if err == nil {
			flags[i].AlertMessageID = alert.TelegramMessageID
		}
	}

	return flags, nil
}

func (s StopFlagStore) MarkFlagVisited(flagID string) error {
	collection := GetCollection("stop_flags")

	_, err := collection.UpdateOne(context.Background(),
		bson.M{"_id": flagID},
		bson.M{"$set": bson.M{"status": cfdf.FlagStatusVisited}})

	return err
}

func (s StopFlagStore) MarkFlagSkipped(flagID string, skipMessageID int) error {
	collection := GetCollection("stop_flags")

	_, err := collection.UpdateOne(context.Background(),
		bson.M{"_id": flagID},
		bson.M{"$set": bson.M{
			"status":        cfdf.FlagStatusSkipped,
			"skipmessageid": skipMessageID,
		}})

	return err
}

// StopCatalog serves the fuel stop reference data.
type StopCatalog struct{}

func (c StopCatalog) DieselStops() ([]cfdf.Stop, error) {
	collection := GetCollection("fuel_stops")

	cursor, err := collection.Find(context.Background(), bson.M{"hasdiesel": true})
	if err != nil {
		return nil, err
	}

	var stops []cfdf.Stop
	if err := cursor.All(context.Background(), &stops); err != nil {
		return nil, err
	}

	return stops, nil
}

func (c StopCatalog) Count() (int64, error) {
	collection := GetCollection("fuel_stops")

	return collection.CountDocuments(context.Background(), bson.M{})
}

func (c StopCatalog) UpsertStops(stops []cfdf.Stop) error {
	collection := GetCollection("fuel_stops")

	for _, stop := range stops {
		opts := options.Replace().SetUpsert(true)
		_, err := collection.ReplaceOne(context.Background(), bson.M{"_id": stop.ID}, stop, opts)
		if err != nil {
			return err
		}
	}

	return nil
}
