package cmd

import (
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "adboard",
		Usage: "An agency dashboard aggregating news, social posts and events",
		Description: `Serves a dashboard for advertising agencies that mixes
		articles from industry RSS feeds with Instagram-style social posts,
		a calendar of industry events and an office slideshow.

		Articles are fetched live, filtered down to items with a usable
		image and mixed round-robin across the configured sources. Feeds,
		events and the slideshow are managed through a password-protected
		admin API.

		Flags can generally be set via environment variables, e.g.:

		--config => ADBOARD_CONFIG=config.toml
		--port => ADBOARD_PORT=3000
		`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			importEventsCmd(),
			checkFeedCmd(),
			setPasswordCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}
