package cmd

import (
	"fmt"
	"os"

	"adboard/config"
	"adboard/events"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func importEventsCmd() *cli.Command {
	return &cli.Command{
		Name:      "import-events",
		Usage:     "Import calendar events from a CSV file",
		ArgsUsage: "<file.csv>",
		Description: `Parses a CSV export of industry events and replaces the stored
event set with the result.

Expects a header line followed by rows of name, date and location.
Dates are parsed in the German formats used by the trade press,
including ranges like "06.–09.10.2025" and month-only entries like
"September 2026". Rows without a parseable date are skipped.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.toml",
				Usage:   "Path to the configuration file",
				EnvVars: []string{"ADBOARD_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("expected exactly one CSV file argument")
			}

			data, err := os.ReadFile(ctx.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read CSV file: %w", err)
			}

			parsed := events.ParseCSV(string(data))
			if len(parsed) == 0 {
				return fmt.Errorf("no valid events found in %s", ctx.Args().First())
			}

			cfg, err := config.LoadConfigOrDefault(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			st, err := openStore(cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			if err := events.NewService(st).ReplaceAll(parsed); err != nil {
				return fmt.Errorf("failed to store events: %w", err)
			}

			log.WithFields(log.Fields{"imported": len(parsed)}).Info("Events imported")
			return nil
		},
	}
}
