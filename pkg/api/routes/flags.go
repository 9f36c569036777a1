package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/database"
)

func FlagsRouter(router fiber.Router) {
	router.Get("/", listFlags)
}

func listFlags(c *fiber.Ctx) error {
	query := bson.M{}

	if statusQuery := c.Query("status"); statusQuery != "" {
		query["status"] = statusQuery
	}
	if vehicleQuery := c.Query("vehicle"); vehicleQuery != "" {
		query["vehicleid"] = vehicleQuery
	}

	flagsCollection := database.GetCollection("stop_flags")

	opts := options.Find().SetSort(bson.M{"flaggedat": -1}).SetLimit(200)
	cursor, err := flagsCollection.Find(context.Background(), query, opts)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to query stop flags",
		})
	}

	flags := []cfdf.StopFlag{}
	if err := cursor.All(context.Background(), &flags); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to decode stop flags",
		})
	}

	return c.JSON(flags)
}
