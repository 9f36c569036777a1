package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/fleetfuel/fleetfuel/pkg/api"
	"github.com/fleetfuel/fleetfuel/pkg/dataimporter"
	"github.com/fleetfuel/fleetfuel/pkg/monitor"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("FLEETFUEL_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("FLEETFUEL_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "fleetfuel",
		Description: "Single binary of truth for FleetFuel - runs all the services",

		Commands: []*cli.Command{
			monitor.RegisterCLI(),
			dataimporter.RegisterCLI(),
			api.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
