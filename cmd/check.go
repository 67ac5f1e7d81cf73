package cmd

import (
	"encoding/json"
	"fmt"

	"adboard/config"
	"adboard/models"
	"adboard/rss"

	"github.com/urfave/cli/v2"
)

func checkFeedCmd() *cli.Command {
	return &cli.Command{
		Name:      "check-feed",
		Usage:     "Analyze a feed URL before adding it",
		ArgsUsage: "<url>",
		Description: `Fetches a feed once and reports how many of its items carry an
image that passes the configured extraction heuristics. Useful for
judging whether a feed is worth adding, since items without a usable
image never reach the dashboard.

Prints the report as a JSON object.`,
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
				return fmt.Errorf("expected exactly one feed URL argument")
			}
			url := ctx.Args().First()

			cfg, err := config.LoadConfigOrDefault(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fetcher := rss.NewFetcher(cfg.News.FetchTimeout.Duration, cfg.News.FetchRetries)
			extractor := rss.NewExtractor(rss.NewValidator(cfg.Images.Extensions, cfg.Images.HostAllowed))

			feed, err := fetcher.Fetch(ctx.Context, url)
			if err != nil {
				return fmt.Errorf("could not fetch or parse feed: %w", err)
			}

			report := models.FeedReport{
				Url:       url,
				Title:     feed.Title,
				ItemCount: len(feed.Items),
			}
			for _, item := range feed.Items {
				if extractor.Extract(item, feed) != "" {
					report.WithImage++
				}
			}
			if len(feed.Items) > 0 {
				report.SampleItem = feed.Items[0].Title
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
