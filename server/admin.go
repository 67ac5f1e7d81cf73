package server

import (
	"errors"
	"io"
	"time"

	"adboard/events"
	"adboard/feeds"
	"adboard/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// registerAdminRoutes mounts the CRUD surface for feeds, events and the
// slideshow. Mutations publish a refresh event so open dashboards re-fetch.
func registerAdminRoutes(admin fiber.Router, config *ServerConfig) {

	registerFeedRoutes(admin.Group("/feeds"), config.NewsFeeds, config.Broadcaster, "news")
	registerFeedRoutes(admin.Group("/social-feeds"), config.SocialFeeds, config.Broadcaster, "social")

	// Posts-per-feed setting for the social section
	admin.Get("/social-feeds/settings", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"count": config.Social.PostsPerFeed("")})
	})

	admin.Put("/social-feeds/settings", func(c *fiber.Ctx) error {
		var body struct {
			Count int `json:"count"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := config.Social.SetPostsPerFeed(body.Count); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "social", At: time.Now().UTC()})
		return c.JSON(fiber.Map{"count": body.Count})
	})

	// --- Events ---

	admin.Get("/events", func(c *fiber.Ctx) error {
		return c.JSON(models.EventsResponse{Events: config.Events.List()})
	})

	admin.Post("/events", func(c *fiber.Ctx) error {
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Location    string `json:"location"`
			StartDate   string `json:"startDate"`
			EndDate     string `json:"endDate"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}

		event, err := config.Events.Create(body.Title, body.Description, body.Location, body.StartDate, body.EndDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "events", At: time.Now().UTC()})
		return c.Status(201).JSON(fiber.Map{"event": event})
	})

	admin.Put("/events/:id", func(c *fiber.Ctx) error {
		var event models.CalendarEvent
		if err := c.BodyParser(&event); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}

		updated, err := config.Events.Update(c.Params("id"), event)
		if err != nil {
			if errors.Is(err, events.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "Event not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": "Failed to update event"})
		}

		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "events", At: time.Now().UTC()})
		return c.JSON(fiber.Map{"event": updated})
	})

	admin.Delete("/events/:id", func(c *fiber.Ctx) error {
		if err := config.Events.Delete(c.Params("id")); err != nil {
			if errors.Is(err, events.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "Event not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": "Failed to delete event"})
		}
		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "events", At: time.Now().UTC()})
		return c.JSON(fiber.Map{"success": true})
	})

	admin.Get("/events/export", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/csv; charset=utf-8")
		c.Set("Content-Disposition", `attachment; filename="events.csv"`)
		return c.SendString(events.ExportCSV(config.Events.List()))
	})

	// CSV upload replaces the whole event set
	admin.Post("/events/upload", func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "No CSV content provided"})
		}

		parsed := events.ParseCSV(string(body))
		if len(parsed) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "No valid events found in CSV"})
		}

		if err := config.Events.ReplaceAll(parsed); err != nil {
			log.WithFields(log.Fields{"error": err}).Error("Error storing uploaded events")
			return c.Status(500).JSON(fiber.Map{"error": "Failed to store events"})
		}

		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "events", At: time.Now().UTC()})
		return c.JSON(fiber.Map{"success": true, "imported": len(parsed)})
	})

	// --- Slideshow ---

	admin.Post("/slideshow", func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "No files provided"})
		}

		files := form.File["images"]
		if len(files) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "No files provided"})
		}

		uploaded := []models.SlideshowImage{}
		for _, file := range files {
			src, err := file.Open()
			if err != nil {
				continue
			}
			data, err := io.ReadAll(src)
			src.Close()
			if err != nil {
				continue
			}

			image, err := config.Slideshow.Save(file.Filename, data)
			if err != nil {
				log.WithFields(log.Fields{
					"file":  file.Filename,
					"error": err,
				}).Warn("Skipping upload")
				continue
			}
			uploaded = append(uploaded, image)
		}

		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "slideshow", At: time.Now().UTC()})
		return c.JSON(fiber.Map{"images": uploaded})
	})

	admin.Post("/slideshow/reorder", func(c *fiber.Ctx) error {
		var body struct {
			Names []string `json:"names"`
		}
		if err := c.BodyParser(&body); err != nil || len(body.Names) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "Image names required"})
		}
		if err := config.Slideshow.Reorder(body.Names); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "slideshow", At: time.Now().UTC()})
		return c.JSON(fiber.Map{"success": true})
	})

	admin.Delete("/slideshow/:name", func(c *fiber.Ctx) error {
		if err := config.Slideshow.Delete(c.Params("name")); err != nil {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		config.Broadcaster.BroadcastRefresh(models.RefreshEvent{Section: "slideshow", At: time.Now().UTC()})
		return c.JSON(fiber.Map{"success": true})
	})

	// --- Feed analysis ---

	admin.Post("/check-feed", func(c *fiber.Ctx) error {
		var body struct {
			Url string `json:"url"`
		}
		if err := c.BodyParser(&body); err != nil || body.Url == "" {
			return c.Status(400).JSON(fiber.Map{"error": "URL is required"})
		}

		parsed, err := config.Fetcher.Fetch(c.Context(), body.Url)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Could not fetch or parse feed"})
		}

		report := models.FeedReport{
			Url:       body.Url,
			Title:     parsed.Title,
			ItemCount: len(parsed.Items),
		}
		for _, item := range parsed.Items {
			if config.Extractor.Extract(item, parsed) != "" {
				report.WithImage++
			}
		}
		if len(parsed.Items) > 0 {
			report.SampleItem = parsed.Items[0].Title
		}

		return c.JSON(fiber.Map{"report": report})
	})
}

// registerFeedRoutes mounts identical CRUD handlers for one feed registry
func registerFeedRoutes(group fiber.Router, registry *feeds.Registry, bc *Broadcaster, section string) {

	refresh := func() {
		bc.BroadcastRefresh(models.RefreshEvent{Section: section, At: time.Now().UTC()})
	}

	group.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"feeds": registry.List()})
	})

	group.Post("/", func(c *fiber.Ctx) error {
		var body struct {
			Url         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}

		feed, err := registry.Create(body.Url, body.Title, body.Description)
		if err != nil {
			return feedError(c, err)
		}
		refresh()
		return c.Status(201).JSON(fiber.Map{"feed": feed})
	})

	group.Get("/:id", func(c *fiber.Ctx) error {
		feed, err := registry.Get(c.Params("id"))
		if err != nil {
			return feedError(c, err)
		}
		return c.JSON(fiber.Map{"feed": feed})
	})

	group.Put("/:id", func(c *fiber.Ctx) error {
		var body struct {
			Url         string `json:"url"`
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}

		feed, err := registry.Update(c.Params("id"), body.Url, body.Title, body.Description)
		if err != nil {
			return feedError(c, err)
		}
		refresh()
		return c.JSON(fiber.Map{"feed": feed})
	})

	group.Patch("/:id/toggle", func(c *fiber.Ctx) error {
		feed, err := registry.Toggle(c.Params("id"))
		if err != nil {
			return feedError(c, err)
		}
		refresh()
		return c.JSON(fiber.Map{"feed": feed})
	})

	group.Delete("/:id", func(c *fiber.Ctx) error {
		if err := registry.Delete(c.Params("id")); err != nil {
			return feedError(c, err)
		}
		refresh()
		return c.JSON(fiber.Map{"success": true})
	})
}

// feedError maps registry errors onto conventional JSON error responses
func feedError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, feeds.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Feed not found"})
	case errors.Is(err, feeds.ErrDuplicateURL), errors.Is(err, feeds.ErrInvalidURL), errors.Is(err, feeds.ErrMissingField):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	default:
		log.WithFields(log.Fields{"error": err}).Error("Feed registry error")
		return c.Status(500).JSON(fiber.Map{"error": "Internal error"})
	}
}
