// Package social fetches Instagram-style posts from RSS proxy feeds. The
// flow mirrors the news pipeline structurally but is tuned differently:
// feeds are fetched concurrently, posts keep a fallback image instead of
// being dropped, and the per-feed post count is an admin setting.
package social

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"adboard/config"
	"adboard/feeds"
	"adboard/models"
	"adboard/rss"
	"adboard/store"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	// Settings keys; the per-feed override key is PostsCountKey + ":" + feed id
	PostsCountKey = "social_posts_count"
)

// Service builds the social section of the dashboard
type Service struct {
	registry    *feeds.Registry
	fetcher     *rss.Fetcher
	extractor   *rss.Extractor
	settings    store.Store
	cfg         config.TomlSocial
	placeholder string
}

func NewService(registry *feeds.Registry, fetcher *rss.Fetcher, extractor *rss.Extractor, settings store.Store, cfg config.TomlSocial, placeholder string) *Service {
	return &Service{
		registry:    registry,
		fetcher:     fetcher,
		extractor:   extractor,
		settings:    settings,
		cfg:         cfg,
		placeholder: placeholder,
	}
}

// PostsPerFeed returns the effective post count for a feed: the per-feed
// override when present, otherwise the stored global value, otherwise the
// configured default. Values outside the allowed set are ignored.
func (s *Service) PostsPerFeed(feedId string) int {
	count := s.cfg.PostsPerFeed

	var stored int
	if found, err := store.GetJSON(s.settings, PostsCountKey, &stored); err == nil && found && s.allowed(stored) {
		count = stored
	}
	if feedId != "" {
		if found, err := store.GetJSON(s.settings, PostsCountKey+":"+feedId, &stored); err == nil && found && s.allowed(stored) {
			count = stored
		}
	}
	return count
}

// SetPostsPerFeed stores the global posts-per-feed setting
func (s *Service) SetPostsPerFeed(count int) error {
	if !s.allowed(count) {
		return fmt.Errorf("count %d not allowed, must be one of %v", count, s.cfg.AllowedCounts)
	}
	return store.SetJSON(s.settings, PostsCountKey, count)
}

func (s *Service) allowed(count int) bool {
	return lo.Contains(s.cfg.AllowedCounts, count)
}

// FetchAll fetches every active social feed concurrently and returns one
// SocialFeed per configured feed, in registration order. A failed feed
// yields a single fallback post; it never disturbs the other feeds.
func (s *Service) FetchAll(ctx context.Context) []models.SocialFeed {
	configured := s.registry.ListActive()
	results := make([]models.SocialFeed, len(configured))

	var wg sync.WaitGroup
	for i, feed := range configured {
		wg.Add(1)
		go func(i int, feed models.FeedConfig) {
			defer wg.Done()
			results[i] = s.fetchFeed(ctx, feed)
		}(i, feed)
	}
	wg.Wait()

	return results
}

func (s *Service) fetchFeed(ctx context.Context, feed models.FeedConfig) models.SocialFeed {
	parsed, err := s.fetcher.Fetch(ctx, feed.Url)
	if err != nil {
		log.WithFields(log.Fields{
			"feed":  feed.Title,
			"url":   feed.Url,
			"error": err,
		}).Error("Error fetching social feed")
		return s.fallbackFeed(feed)
	}

	s.registry.TouchChecked(feed.Id, len(parsed.Items))

	posts := []models.SocialPost{}
	for i, item := range parsed.Items {
		imageUrl := s.extractor.Extract(item, parsed)
		if imageUrl == "" {
			// Social cards may show the placeholder; posts are kept
			imageUrl = s.placeholder
		}

		caption := rss.StripHTML(rss.DecodeEntities(item.Description))

		postedAt := time.Now().UTC().Format(time.RFC3339)
		if item.PublishedParsed != nil {
			postedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		}

		posts = append(posts, models.SocialPost{
			Id:       postId(feed.Title, item.GUID, i),
			ImageUrl: imageUrl,
			Caption:  caption,
			Likes:    ExtractLikes(item.Title, item.Description, item.Content),
			Comments: 0, // Not available through the RSS proxies
			PostedAt: postedAt,
		})
	}

	count := s.PostsPerFeed(feed.Id)
	if len(posts) > count {
		posts = posts[:count]
	}

	log.WithFields(log.Fields{
		"feed":  feed.Title,
		"posts": len(posts),
	}).Info("Fetched social feed")

	return models.SocialFeed{Title: feed.Title, Posts: posts}
}

// fallbackFeed is a single placeholder post shown when a feed cannot be read
func (s *Service) fallbackFeed(feed models.FeedConfig) models.SocialFeed {
	return models.SocialFeed{
		Title: feed.Title,
		Posts: []models.SocialPost{{
			Id:       fmt.Sprintf("fallback-%s", slug(feed.Title)),
			ImageUrl: s.placeholder,
			Caption:  fmt.Sprintf("%s - %s", feed.Title, s.cfg.FallbackCaption),
			PostedAt: time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

// FallbackFeeds covers the total-failure case: one fallback post per
// configured feed
func (s *Service) FallbackFeeds() []models.SocialFeed {
	return lo.Map(s.registry.ListActive(), func(f models.FeedConfig, _ int) models.SocialFeed {
		return s.fallbackFeed(f)
	})
}

var (
	titleLikesPattern   = regexp.MustCompile(`\((\d+)\s+likes?\)`)
	contentLikesPattern = regexp.MustCompile(`(\d+(?:,\d+)?)\s+[Ll]ikes?`)
)

// ExtractLikes digs a like count out of the places RSS proxies hide it:
// "(123 likes)" in the title, or "1,234 Likes" in description/content.
func ExtractLikes(title, description, content string) int {
	if match := titleLikesPattern.FindStringSubmatch(title); match != nil {
		if likes, err := strconv.Atoi(match[1]); err == nil {
			return likes
		}
	}
	for _, text := range []string{content, description} {
		if match := contentLikesPattern.FindStringSubmatch(text); match != nil {
			if likes, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", "")); err == nil {
				return likes
			}
		}
	}
	return 0
}

func postId(feedTitle, guid string, index int) string {
	if guid != "" {
		return guid
	}
	return fmt.Sprintf("%s-%d", slug(feedTitle), index)
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
