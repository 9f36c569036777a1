package routes

import (
	"context"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/database"
	"github.com/fleetfuel/fleetfuel/pkg/geomath"
)

func StopsRouter(router fiber.Router) {
	router.Get("/", listStops)
	router.Get("/near", listStopsNear)
}

func listStops(c *fiber.Ctx) error {
	query := bson.M{}

	if brandQuery := c.Query("brand"); brandQuery != "" {
		query["brand"] = brandQuery
	}

	stopsCollection := database.GetCollection("fuel_stops")
	cursor, err := stopsCollection.Find(context.Background(), query)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to query stops",
		})
	}

	stops := []cfdf.Stop{}
	if err := cursor.All(context.Background(), &stops); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to decode stops",
		})
	}

	return c.JSON(stops)
}

type nearbyStop struct {
	cfdf.Stop
	DistanceMiles float64 `json:"DistanceMiles"`
}

func listStopsNear(c *fiber.Ctx) error {
	latitude, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	longitude, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "lat and lon query parameters are required",
		})
	}

	radius := 50.0
	if radiusQuery := c.Query("radius"); radiusQuery != "" {
		parsed, err := strconv.ParseFloat(radiusQuery, 64)
		if err != nil {
			c.SendStatus(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "radius must be a number of miles",
			})
		}
		radius = parsed
	}

	stopsCollection := database.GetCollection("fuel_stops")
	cursor, err := stopsCollection.Find(context.Background(), bson.M{})
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to query stops",
		})
	}

	var stops []cfdf.Stop
	if err := cursor.All(context.Background(), &stops); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Failed to decode stops",
		})
	}

	nearby := []nearbyStop{}
	for _, stop := range stops {
		distance := geomath.DistanceMiles(latitude, longitude, stop.Latitude, stop.Longitude)
		if distance <= radius {
			nearby = append(nearby, nearbyStop{Stop: stop, DistanceMiles: distance})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceMiles < nearby[j].DistanceMiles
	})

	return c.JSON(nearby)
}
