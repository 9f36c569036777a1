package monitor

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/fleetfuel/fleetfuel/pkg/config"
	"github.com/fleetfuel/fleetfuel/pkg/database"
	"github.com/fleetfuel/fleetfuel/pkg/dataimporter"
	"github.com/fleetfuel/fleetfuel/pkg/geofence"
	"github.com/fleetfuel/fleetfuel/pkg/notify"
	"github.com/fleetfuel/fleetfuel/pkg/redis_client"
	"github.com/fleetfuel/fleetfuel/pkg/stopfinder"
	"github.com/fleetfuel/fleetfuel/pkg/telemetry"
	"github.com/fleetfuel/fleetfuel/pkg/util"
)

func newStopFinder(cfg config.Config, catalog stopfinder.Catalog) *stopfinder.StopFinder {
	return &stopfinder.StopFinder{
		Catalog: catalog,

		PilotRadiusMiles:    cfg.PilotRadiusMiles,
		LovesRadiusMiles:    cfg.LovesRadiusMiles,
		ExtendedRadiusMiles: cfg.ExtendedRadiusMiles,
		AtStopRadiusMiles:   cfg.AtStopRadiusMiles,

		MovingSpeedMPH: cfg.MovingSpeedMPH,
	}
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "fuel-monitor",
		Usage: "Monitors fleet fuel levels and alerts dispatch",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the fuel monitor",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "poll-interval",
						Value: 300,
						Usage: "seconds between telemetry poll cycles",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					env := util.GetEnvironmentVariables()
					if env["FLEETFUEL_RESET_DB"] == "YES" {
						log.Warn().Msg("Resetting all vehicle monitoring state")
						if err := (database.VehicleStateStore{}).Reset(); err != nil {
							return err
						}
					}

					cfg := config.Load()

					if err := dataimporter.AutoSeed(); err != nil {
						return err
					}

					CreateStopCatalogCache()

					telegram := &notify.TelegramManager{}
					if err := telegram.Setup(); err != nil {
						return err
					}
					if err := telegram.SendStartup(); err != nil {
						log.Warn().Err(err).Msg("Failed to send startup message")
					}

					catalog := &CachedCatalog{Source: database.StopCatalog{}}

					machine := &StateMachine{
						Config:   cfg,
						Geofence: geofence.NewYardGeofence(cfg.Yards),
						Finder:   newStopFinder(cfg, catalog),

						Alerts:   database.FuelAlertStore{},
						Flags:    database.StopFlagStore{},
						Notifier: telegram,
					}

					states := database.VehicleStateStore{}

					queue := StartConsumers(machine, states)

					shutdown := make(chan struct{})
					poller := &Poller{
						Source: telemetry.NewSamsaraClient(),
						States: states,
						Queue:  queue,

						CycleInterval: time.Duration(c.Int("poll-interval")) * time.Second,
					}
					go poller.Run(shutdown)

					StartStatsServer()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					close(shutdown)

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "wipe all vehicle states, alerts, flags, and assignments",
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					if err := (database.VehicleStateStore{}).Reset(); err != nil {
						return err
					}

					log.Info().Msg("Vehicle monitoring state reset")

					return nil
				},
			},
			{
				Name:      "teststop",
				Usage:     "run stop selection for a coordinate",
				ArgsUsage: "<lat> <lng> [heading] [speed]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return fmt.Errorf("expected at least lat and lng arguments")
					}

					lat, err := strconv.ParseFloat(c.Args().Get(0), 64)
					if err != nil {
						return err
					}
					lng, err := strconv.ParseFloat(c.Args().Get(1), 64)
					if err != nil {
						return err
					}

					heading := 0.0
					if c.NArg() > 2 {
						heading, _ = strconv.ParseFloat(c.Args().Get(2), 64)
					}
					speed := 55.0
					if c.NArg() > 3 {
						speed, _ = strconv.ParseFloat(c.Args().Get(3), 64)
					}

					if err := database.Connect(); err != nil {
						return err
					}

					cfg := config.Load()
					finder := newStopFinder(cfg, database.StopCatalog{})

					stop, classification, err := finder.SelectStop(lat, lng, heading, speed)
					if err != nil {
						return err
					}

					pretty.Println(classification, classification.Describe())
					if stop == nil {
						fmt.Println("no stop found")
					} else {
						pretty.Println(stop)
					}

					return nil
				},
			},
		},
	}
}
