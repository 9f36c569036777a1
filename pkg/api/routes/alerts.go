package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/database"
)

func AlertsRouter(router fiber.Router) {
	router.Get("/", listAlerts)
}

func listAlerts(c *fiber.Ctx) error {
	query := bson.M{}

	if statusQuery := c.Query("status"); statusQuery != "" {
		query["status"] = statusQuery
	}
	if vehicleQuery := c.Query("vehicle"); vehicleQuery != "" {
		query["vehicleid"] = vehicleQuery
	}

	alertsCollection := database.GetCollection("fuel_alerts")

	opts := options.Find().SetSort(bson.M{"sentat": -1}).SetLimit(200)
	cursor, err := alertsCollection.Find(context.Background(), query, opts)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to query alerts",
		})
	}

	alerts := []cfdf.FuelAlert{}
	if err := cursor.All(context.Background(), &alerts); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to decode alerts",
		})
	}

	return c.JSON(alerts)
}
