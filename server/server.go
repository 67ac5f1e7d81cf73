package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"adboard/auth"
	"adboard/events"
	"adboard/feeds"
	"adboard/models"
	"adboard/rss"
	"adboard/slideshow"
	"adboard/social"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Cookie carrying the session token for browser dashboards
const authCookie = "adboard_auth"

type ServerConfig struct {

	// The hostname to use for the server
	Hostname string

	// Allowed CORS origin for the admin frontend, empty to disable CORS
	CorsOrigin string

	// Default page size for the news endpoint
	PageSize int

	// News ingestion pipeline
	Pipeline *rss.Pipeline

	// Social posts service
	Social *social.Service

	// Calendar events service
	Events *events.Service

	// Slideshow image manager
	Slideshow *slideshow.Manager

	// Feed registries managed by the admin surface
	NewsFeeds   *feeds.Registry
	SocialFeeds *feeds.Registry

	// Fetcher and extractor reused by the feed-analysis endpoint
	Fetcher   *rss.Fetcher
	Extractor *rss.Extractor

	// Password gate for the admin surface
	Gate *auth.Gate

	// Broadcast channel to notify dashboards about admin mutations
	Broadcaster *Broadcaster
}

// Returns a fiber.App instance serving the dashboard and admin APIs
func Server(config *ServerConfig) *fiber.App {

	bc := config.Broadcaster

	app := fiber.New()

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	if config.CorsOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     config.CorsOrigin,
			AllowHeaders:     "Authorization, Content-Type, Cache-Control",
			AllowCredentials: true,
		}))
	}

	// Cache display endpoints briefly; admin, SSE and refresh=true requests
	// always go through
	app.Use(cache.New(cache.Config{
		Expiration: 5 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			if c.Method() != "GET" {
				return true
			}
			if strings.HasSuffix(c.Path(), "/sse") || c.Path() == "/metrics" {
				return true
			}
			if strings.HasPrefix(c.Path(), "/api/admin") || strings.HasPrefix(c.Path(), "/api/auth") {
				return true
			}
			// The news endpoint manages its own cache headers
			if strings.HasPrefix(c.Path(), "/api/news") {
				return true
			}
			return c.Query("refresh") == "true"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			// Include the query parameters in the cache key
			return c.Request().URI().String()
		},
	}))

	// --- Display surface ---

	app.Get("/api/news", func(c *fiber.Ctx) error {
		pageSize, err := strconv.Atoi(c.Query("pageSize", strconv.Itoa(config.PageSize)))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = config.PageSize
		}
		refresh := c.Query("refresh") == "true"

		articles := buildNewsSafely(c.Context(), config.Pipeline, pageSize, refresh)

		// Always serve fresh mixes; the upstream fetch is the cache
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")

		return c.JSON(models.NewsResponse{Articles: articles})
	})

	app.Get("/api/social", func(c *fiber.Ctx) error {
		return c.JSON(models.SocialResponse{Feeds: fetchSocialSafely(c.Context(), config.Social)})
	})

	app.Get("/api/events", func(c *fiber.Ctx) error {
		return c.JSON(models.EventsResponse{Events: config.Events.List()})
	})

	app.Get("/api/slideshow", func(c *fiber.Ctx) error {
		images, err := config.Slideshow.List()
		if err != nil {
			log.WithFields(log.Fields{"error": err}).Error("Error listing slideshow images")
			return c.Status(500).JSON(fiber.Map{"error": "Failed to read slideshow images"})
		}
		return c.JSON(fiber.Map{"images": images})
	})

	// Composite payload for the rotating display. Always 200: a failed
	// section degrades to fallback content, the aggregate never errors.
	app.Get("/api/dashboard", func(c *fiber.Ctx) error {
		refresh := c.Query("refresh") == "true"

		response := models.DashboardResponse{
			News:        buildNewsSafely(c.Context(), config.Pipeline, config.PageSize, refresh),
			SocialFeeds: fetchSocialSafely(c.Context(), config.Social),
			Events:      config.Events.List(),
			LastUpdated: time.Now().UTC(),
		}

		if refresh {
			c.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			c.Set("Cache-Control", "public, max-age=300")
		}

		return c.JSON(response)
	})

	// --- Auth ---

	app.Post("/api/auth/login", func(c *fiber.Ctx) error {
		var body struct {
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil || body.Password == "" {
			return c.Status(400).JSON(fiber.Map{"error": "Password missing"})
		}

		token, err := config.Gate.Login(body.Password)
		if err != nil {
			if err == auth.ErrInvalidPassword {
				return c.Status(401).JSON(fiber.Map{"error": "Invalid password"})
			}
			log.WithFields(log.Fields{"error": err}).Error("Error during login")
			return c.Status(500).JSON(fiber.Map{"error": "Login failed"})
		}

		c.Cookie(&fiber.Cookie{
			Name:     authCookie,
			Value:    token,
			HTTPOnly: true,
			SameSite: "Lax",
		})
		return c.JSON(fiber.Map{"success": true, "token": token})
	})

	app.Post("/api/auth/validate", func(c *fiber.Ctx) error {
		var body struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Token missing"})
		}
		if err := config.Gate.Validate(body.Token); err != nil {
			return c.JSON(fiber.Map{"valid": false})
		}
		return c.JSON(fiber.Map{"valid": true})
	})

	// --- Admin surface, password-gated ---

	admin := app.Group("/api/admin", requireAuth(config.Gate))
	registerAdminRoutes(admin, config)

	// --- Dashboard refresh stream ---

	app.Delete("/dashboard/sse", func(c *fiber.Ctx) error {
		key := c.Query("key", "")
		bc.RemoveClient(key)
		return c.Status(200).SendString("OK")
	})

	app.Get("/dashboard/sse", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("Transfer-Encoding", "chunked")

		// Unique client key
		key := uuid.New().String()
		refreshChannel := make(chan models.RefreshEvent, 10) // Buffered channel
		aliveChan := time.NewTicker(5 * time.Second)

		defer aliveChan.Stop()

		bc.AddClient(key, refreshChannel)

		cleanup := func() {
			log.Infof("Cleaning up SSE stream for client: %s", key)
			bc.RemoveClient(key)
		}

		// Use StreamWriter to manage SSE streaming
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cleanup()

			// Send initial event with client key
			fmt.Fprintf(w, "event: init\ndata: %s\n\n", key)
			if err := w.Flush(); err != nil {
				log.Errorf("Failed to send init event: %v", err)
				return
			}

			for {
				select {
				case <-aliveChan.C:
					// Send keep-alive pings
					if _, err := fmt.Fprintf(w, "event: ping\ndata: \n\n"); err != nil {
						log.Warnf("Failed to send ping to client %s: %v", key, err)
						return
					}
					if err := w.Flush(); err != nil {
						log.Warnf("Failed to flush ping for client %s: %v", key, err)
						return
					}

				case event, ok := <-refreshChannel:
					if !ok {
						log.Warnf("Refresh channel closed for client %s", key)
						return
					}
					jsonEvent, err := json.Marshal(event)
					if err != nil {
						log.Errorf("Error marshalling refresh event for client %s: %v", key, err)
						continue
					}
					if _, err := fmt.Fprintf(w, "event: refresh\ndata: %s\n\n", jsonEvent); err != nil {
						log.Warnf("Failed to send refresh event to client %s: %v", key, err)
						return
					}
					if err := w.Flush(); err != nil {
						log.Warnf("Failed to flush refresh event for client %s: %v", key, err)
						return
					}
				}
			}
		}))

		return nil
	})

	// Prometheus metrics
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	return app
}

// buildNewsSafely guards the news pipeline against programming errors: a
// panic inside aggregation degrades to the fallback article set instead of
// a 500 on the display.
func buildNewsSafely(ctx context.Context, pipeline *rss.Pipeline, pageSize int, refresh bool) (articles []models.Article) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"panic": r}).Error("News pipeline panicked, serving fallback")
			articles = pipeline.FallbackArticles()
		}
	}()
	return pipeline.BuildPage(ctx, pageSize, refresh)
}

func fetchSocialSafely(ctx context.Context, service *social.Service) (result []models.SocialFeed) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"panic": r}).Error("Social pipeline panicked, serving fallback")
			result = service.FallbackFeeds()
		}
	}()
	return service.FetchAll(ctx)
}

// requireAuth accepts the session token from either the Authorization
// header or the dashboard cookie
func requireAuth(gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if token == "" || token == c.Get("Authorization") {
			token = c.Cookies(authCookie)
		}
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Authentication required"})
		}
		if err := gate.Validate(token); err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		return c.Next()
	}
}
