// Package feeds manages the registry of configured RSS feeds. News and
// social feeds live under separate storage keys but share the same schema
// and validation rules.
package feeds

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"adboard/config"
	"adboard/models"
	"adboard/store"

	"github.com/google/uuid"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	NewsKey   = "rss_feeds"
	SocialKey = "social_rss_feeds"
)

var (
	ErrNotFound     = errors.New("feed not found")
	ErrDuplicateURL = errors.New("a feed with this URL already exists")
	ErrInvalidURL   = errors.New("invalid URL format")
	ErrMissingField = errors.New("url and title are required")
)

// Registry is a CRUD layer over one stored feed list. Defaults are returned
// when nothing is stored yet so a fresh install still has content.
type Registry struct {
	store    store.Store
	key      string
	defaults []models.FeedConfig
}

func NewRegistry(s store.Store, key string, defaults []models.FeedConfig) *Registry {
	return &Registry{store: s, key: key, defaults: defaults}
}

// List returns every configured feed, falling back to the defaults when the
// key is empty or unreadable. Storage errors are logged, not surfaced: a
// broken registry read must not take the dashboard down.
func (r *Registry) List() []models.FeedConfig {
	var feeds []models.FeedConfig
	found, err := store.GetJSON(r.store, r.key, &feeds)
	if err != nil {
		log.WithFields(log.Fields{
			"key":   r.key,
			"error": err,
		}).Error("Error loading feed registry")
		return r.defaults
	}
	if !found || len(feeds) == 0 {
		return r.defaults
	}
	return feeds
}

// ListActive returns only feeds with the active flag set
func (r *Registry) ListActive() []models.FeedConfig {
	return lo.Filter(r.List(), func(f models.FeedConfig, _ int) bool {
		return f.IsActive
	})
}

func (r *Registry) Get(id string) (models.FeedConfig, error) {
	feed, ok := lo.Find(r.List(), func(f models.FeedConfig) bool {
		return f.Id == id
	})
	if !ok {
		return models.FeedConfig{}, ErrNotFound
	}
	return feed, nil
}

// Create validates and appends a new feed. New feeds start active.
func (r *Registry) Create(feedUrl, title, description string) (models.FeedConfig, error) {
	if feedUrl == "" || title == "" {
		return models.FeedConfig{}, ErrMissingField
	}
	if err := validateURL(feedUrl); err != nil {
		return models.FeedConfig{}, err
	}

	feeds := r.List()
	if _, exists := lo.Find(feeds, func(f models.FeedConfig) bool { return f.Url == feedUrl }); exists {
		return models.FeedConfig{}, ErrDuplicateURL
	}

	now := time.Now().UTC().Format(time.RFC3339)
	feed := models.FeedConfig{
		Id:          fmt.Sprintf("rss-%s", uuid.New().String()),
		Url:         feedUrl,
		Title:       title,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	feeds = append(feeds, feed)
	if err := store.SetJSON(r.store, r.key, feeds); err != nil {
		return models.FeedConfig{}, err
	}

	log.WithFields(log.Fields{
		"key":   r.key,
		"id":    feed.Id,
		"url":   feed.Url,
		"title": feed.Title,
	}).Info("Created feed")
	return feed, nil
}

// Update replaces url, title and description of an existing feed
func (r *Registry) Update(id, feedUrl, title, description string) (models.FeedConfig, error) {
	if feedUrl == "" || title == "" {
		return models.FeedConfig{}, ErrMissingField
	}
	if err := validateURL(feedUrl); err != nil {
		return models.FeedConfig{}, err
	}

	feeds := r.List()
	idx := lo.IndexOf(lo.Map(feeds, func(f models.FeedConfig, _ int) string { return f.Id }), id)
	if idx == -1 {
		return models.FeedConfig{}, ErrNotFound
	}

	// Another feed may not already own the new URL
	for i, f := range feeds {
		if i != idx && f.Url == feedUrl {
			return models.FeedConfig{}, ErrDuplicateURL
		}
	}

	feeds[idx].Url = feedUrl
	feeds[idx].Title = title
	feeds[idx].Description = description
	feeds[idx].UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := store.SetJSON(r.store, r.key, feeds); err != nil {
		return models.FeedConfig{}, err
	}
	return feeds[idx], nil
}

// Toggle flips the active flag
func (r *Registry) Toggle(id string) (models.FeedConfig, error) {
	feeds := r.List()
	for i := range feeds {
		if feeds[i].Id == id {
			feeds[i].IsActive = !feeds[i].IsActive
			feeds[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			if err := store.SetJSON(r.store, r.key, feeds); err != nil {
				return models.FeedConfig{}, err
			}
			return feeds[i], nil
		}
	}
	return models.FeedConfig{}, ErrNotFound
}

func (r *Registry) Delete(id string) error {
	feeds := r.List()
	filtered := lo.Filter(feeds, func(f models.FeedConfig, _ int) bool {
		return f.Id != id
	})
	if len(filtered) == len(feeds) {
		return ErrNotFound
	}
	return store.SetJSON(r.store, r.key, filtered)
}

// TouchChecked records the result of the latest fetch on the feed metadata.
// Failures here are only logged; the fetch result itself matters more.
func (r *Registry) TouchChecked(id string, itemCount int) {
	feeds := r.List()
	for i := range feeds {
		if feeds[i].Id == id {
			feeds[i].LastChecked = time.Now().UTC().Format(time.RFC3339)
			feeds[i].ItemCount = itemCount
			if err := store.SetJSON(r.store, r.key, feeds); err != nil {
				log.WithFields(log.Fields{
					"id":    id,
					"error": err,
				}).Warn("Could not update feed check metadata")
			}
			return
		}
	}
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// DefaultsFromConfig converts configured default feeds into registry entries
func DefaultsFromConfig(defaults []config.TomlDefaultFeed) []models.FeedConfig {
	now := time.Now().UTC().Format(time.RFC3339)
	return lo.Map(defaults, func(d config.TomlDefaultFeed, _ int) models.FeedConfig {
		return models.FeedConfig{
			Id:        d.Id,
			Url:       d.Url,
			Title:     d.Title,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	})
}
