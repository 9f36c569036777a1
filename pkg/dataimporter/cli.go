package dataimporter

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"

	"github.com/fleetfuel/fleetfuel/pkg/database"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "data-importer",
		Usage: "Load fuel stop catalogs into the database",
		Subcommands: []*cli.Command{
			{
				Name:      "stops",
				Usage:     "Import a stop catalog CSV (Pilot, Love's, or generic layout)",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "brand",
						Usage: "Force the brand instead of auto-detecting from the headers",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Parse and preview the first rows without inserting",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one catalog file")
					}
					path := c.Args().First()

					if c.Bool("dry-run") {
						stops, err := ParseStopsFile(path, c.String("brand"))
						if err != nil {
							return err
						}

						preview := stops
						if len(preview) > 5 {
							preview = preview[:5]
						}
						pretty.Println(preview)
						fmt.Printf("%d stops parsed (dry run, nothing inserted)\n", len(stops))

						return nil
					}

					if err := database.Connect(); err != nil {
						return err
					}

					imported, err := ImportStopsFile(path, c.String("brand"))
					if err != nil {
						return err
					}

					fmt.Printf("%d stops imported\n", imported)

					return nil
				},
			},
			{
				Name:  "auto-seed",
				Usage: "Seed the stop catalog from CSVs in the stops directory if it is empty",
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					return AutoSeed()
				},
			},
		},
	}
}
