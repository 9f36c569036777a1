package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createStopsIndexes()
	createStateIndexes()
	createAlertIndexes()
}

func createStopsIndexes() {
	stopsCollection := GetCollection("fuel_stops")
	stopsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "brand", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "latitude", Value: 1},
				{Key: "longitude", Value: 1},
			},
		},
	}

	opts := options.CreateIndexes()
	_, err := stopsCollection.Indexes().CreateMany(context.Background(), stopsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createStateIndexes() {
	statesCollection := GetCollection("vehicle_states")
	statesIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "nextpoll", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "state", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := statesCollection.Indexes().CreateMany(context.Background(), statesIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createAlertIndexes() {
	alertsCollection := GetCollection("fuel_alerts")
	_, err := alertsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "vehicleid", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "vehicleid", Value: 1},
			},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	flagsCollection := GetCollection("stop_flags")
	_, err = flagsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "vehicleid", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "alertid", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	assignmentsCollection := GetCollection("stop_assignments")
	_, err = assignmentsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "alertid", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "assignedat", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
