package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"adboard/auth"
	"adboard/config"
	"adboard/events"
	"adboard/feeds"
	"adboard/rss"
	"adboard/server"
	"adboard/slideshow"
	"adboard/social"
	"adboard/store"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the dashboard and admin APIs",
		Description: `Starts the adboard HTTP server.

Serves the dashboard endpoints for news, social posts, events and the
slideshow, the password-protected admin API and a server-sent events
stream that notifies open dashboards about admin changes.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.toml",
				Usage:   "Path to the configuration file",
				EnvVars: []string{"ADBOARD_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "hostname",
				Usage:   "Hostname the server is reachable at",
				EnvVars: []string{"ADBOARD_HOSTNAME"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"ADBOARD_PORT"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.LoadConfigOrDefault(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if ctx.IsSet("hostname") {
				cfg.Server.Hostname = ctx.String("hostname")
			}
			if ctx.IsSet("port") {
				cfg.Server.Port = ctx.Int("port")
			}

			st, err := openStore(cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}

			newsFeeds := feeds.NewRegistry(st, feeds.NewsKey, feeds.DefaultsFromConfig(cfg.News.DefaultFeeds))
			socialFeeds := feeds.NewRegistry(st, feeds.SocialKey, feeds.DefaultsFromConfig(cfg.Social.DefaultFeeds))

			extractor := rss.NewExtractor(rss.NewValidator(cfg.Images.Extensions, cfg.Images.HostAllowed))
			fetcher := rss.NewFetcher(cfg.News.FetchTimeout.Duration, cfg.News.FetchRetries)
			normalizer := rss.NewNormalizer(extractor, cfg.News.ExcerptLimit, cfg.News.PlaceholderImage)

			slides, err := slideshow.NewManager(cfg.Slideshow.Dir)
			if err != nil {
				return fmt.Errorf("failed to prepare slideshow directory: %w", err)
			}

			broadcaster := server.NewBroadcaster()

			app := server.Server(&server.ServerConfig{
				Hostname:    cfg.Server.Hostname,
				CorsOrigin:  cfg.Server.CorsOrigin,
				PageSize:    cfg.News.PageSize,
				Pipeline:    rss.NewPipeline(newsFeeds, fetcher, normalizer, cfg.News),
				Social:      social.NewService(socialFeeds, rss.NewFetcher(cfg.Social.FetchTimeout.Duration, cfg.News.FetchRetries), extractor, st, cfg.Social, cfg.News.PlaceholderImage),
				Events:      events.NewService(st),
				Slideshow:   slides,
				NewsFeeds:   newsFeeds,
				SocialFeeds: socialFeeds,
				Fetcher:     fetcher,
				Extractor:   extractor,
				Gate:        auth.NewGate(st, cfg.Auth.PasswordHash, cfg.Auth.JwtSecret, cfg.Auth.TokenTTL.Duration),
				Broadcaster: broadcaster,
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			var wg sync.WaitGroup

			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				app.ShutdownWithTimeout(60 * time.Second)
				broadcaster.Shutdown()
				if err := st.Close(); err != nil {
					log.WithFields(log.Fields{"error": err}).Error("Error closing store")
				}
				wg.Add(-1)
			}()

			wg.Add(1)

			go func() {
				log.WithFields(log.Fields{
					"hostname": cfg.Server.Hostname,
					"port":     cfg.Server.Port,
				}).Info("Starting server")
				if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
					log.Panic(err)
				}
			}()

			wg.Wait()

			fmt.Println("Done!")
			return nil
		},
	}
}

// openStore builds the persistence backend selected in the storage config.
// The sqlite mode runs pending migrations first so a fresh database works
// without a separate migrate invocation.
func openStore(storage config.TomlStorage) (store.Store, error) {
	switch storage.Mode {
	case "sqlite":
		if err := store.Migrate(storage.Database); err != nil {
			return nil, err
		}
		return store.NewSQLiteStore(storage.Database)
	case "file", "":
		return store.NewFileStore(storage.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", storage.Mode)
	}
}
