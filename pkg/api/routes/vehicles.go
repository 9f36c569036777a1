package routes

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/database"
)

func VehiclesRouter(router fiber.Router) {
	router.Get("/", listVehicles)
	router.Get("/:identifier", getVehicle)
}

func listVehicles(c *fiber.Ctx) error {
	query := bson.M{}

	if stateQuery := c.Query("state"); stateQuery != "" {
		query["state"] = stateQuery
	}

	statesCollection := database.GetCollection("vehicle_states")
	cursor, err := statesCollection.Find(context.Background(), query)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to query vehicle states",
		})
	}

	vehicles := []cfdf.VehicleState{}
	if err := cursor.All(context.Background(), &vehicles); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to decode vehicle states",
		})
	}

	return c.JSON(vehicles)
}

func getVehicle(c *fiber.Ctx) error {
	identifier := c.Params("identifier")

	statesCollection := database.GetCollection("vehicle_states")

	var vehicle cfdf.VehicleState
	err := statesCollection.FindOne(context.Background(), bson.M{"_id": identifier}).Decode(&vehicle)
	if errors.Is(err, mongo.ErrNoDocuments) {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find a vehicle matching the identifier",
		})
	}
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to query vehicle states",
		})
	}

	return c.JSON(vehicle)
}
