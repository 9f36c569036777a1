package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fleetfuel/fleetfuel/pkg/api/routes"
)

func SetupServer(listen string) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/fleet")

	group.Get("version", routes.APIVersion)

	routes.VehiclesRouter(group.Group("/vehicles"))
	routes.AlertsRouter(group.Group("/alerts"))
	routes.FlagsRouter(group.Group("/flags"))
	routes.StopsRouter(group.Group("/stops"))

	return webApp.Listen(listen)
}
