package rss_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adboard/config"
	"adboard/feeds"
	"adboard/models"
	"adboard/rss"
	"adboard/store"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>%s</title>
<link>https://example.com</link>
%s
</channel>
</rss>`

func feedItem(title string, published time.Time, imageUrl string) string {
	enclosure := ""
	if imageUrl != "" {
		enclosure = fmt.Sprintf(`<enclosure url="%s" type="image/jpeg" length="1"/>`, imageUrl)
	}
	return fmt.Sprintf(`<item>
<title>%s</title>
<link>https://example.com/%s</link>
<description>Description of %s</description>
<pubDate>%s</pubDate>
%s
</item>`, title, title, title, published.Format(time.RFC1123Z), enclosure)
}

func feedServer(t *testing.T, title string, items ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, feedTemplate, title, lo.Reduce(items, func(acc, item string, _ int) string {
			return acc + item
		}, ""))
	}))
	t.Cleanup(server.Close)
	return server
}

func testPipeline(t *testing.T, registry *feeds.Registry, pageSize int) *rss.Pipeline {
	t.Helper()
	extractor := rss.NewExtractor(defaultValidator())
	return rss.NewPipeline(
		registry,
		rss.NewFetcher(5*time.Second, 0),
		rss.NewNormalizer(extractor, 280, "/images/breaking-news-fallback.svg"),
		config.TomlNews{
			PageSize:         pageSize,
			PlaceholderImage: "/images/breaking-news-fallback.svg",
			FallbackArticles: []config.TomlFallbackArticle{
				{Title: "Fallback one", Url: "https://www.horizont.net/agenturen/aktuell"},
				{Title: "Fallback two", Url: "https://www.horizont.net/agenturen/aktuell"},
			},
		},
	)
}

func testRegistry(t *testing.T) *feeds.Registry {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return feeds.NewRegistry(st, feeds.NewsKey, nil)
}

func TestBuildPage(t *testing.T) {
	now := time.Now().UTC()

	t.Run("mixes sources and filters items without images", func(t *testing.T) {
		alpha := feedServer(t, "Alpha",
			feedItem("a1", now.Add(-1*time.Hour), "https://example.com/a1.jpg"),
			feedItem("a2", now.Add(-2*time.Hour), "https://example.com/a2.jpg"),
			feedItem("a3", now.Add(-3*time.Hour), ""),
		)
		beta := feedServer(t, "Beta",
			feedItem("b1", now.Add(-30*time.Minute), "https://example.com/b1.jpg"),
			feedItem("b2", now.Add(-90*time.Minute), "https://example.com/b2.jpg"),
		)

		registry := testRegistry(t)
		_, err := registry.Create(alpha.URL, "Alpha", "")
		require.NoError(t, err)
		_, err = registry.Create(beta.URL, "Beta", "")
		require.NoError(t, err)

		page := testPipeline(t, registry, 12).BuildPage(context.Background(), 12, false)

		titles := lo.Map(page, func(a models.Article, _ int) string { return a.Title })
		assert.ElementsMatch(t, []string{"a1", "a2", "b1", "b2"}, titles)

		for i, article := range page {
			assert.Equal(t, i+1, article.Rank)
			assert.NotEmpty(t, article.ImageUrl)
			assert.NotEqual(t, "/images/breaking-news-fallback.svg", article.ImageUrl)
			assert.NotEmpty(t, article.SearchVolume)
		}
	})

	t.Run("failing feed is skipped", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(broken.Close)

		healthy := feedServer(t, "Healthy",
			feedItem("h1", now, "https://example.com/h1.jpg"),
		)

		registry := testRegistry(t)
		_, err := registry.Create(broken.URL, "Broken", "")
		require.NoError(t, err)
		_, err = registry.Create(healthy.URL, "Healthy", "")
		require.NoError(t, err)

		page := testPipeline(t, registry, 12).BuildPage(context.Background(), 12, false)

		require.Len(t, page, 1)
		assert.Equal(t, "h1", page[0].Title)
		assert.Equal(t, "Healthy", page[0].Source)
	})

	t.Run("per feed cap limits a dominant source", func(t *testing.T) {
		items := make([]string, 10)
		for i := range items {
			items[i] = feedItem(fmt.Sprintf("big%d", i), now.Add(-time.Duration(i)*time.Hour), fmt.Sprintf("https://example.com/big%d.jpg", i))
		}
		big := feedServer(t, "Big", items...)
		small := feedServer(t, "Small",
			feedItem("s1", now, "https://example.com/s1.jpg"),
		)

		registry := testRegistry(t)
		_, err := registry.Create(big.URL, "Big", "")
		require.NoError(t, err)
		_, err = registry.Create(small.URL, "Small", "")
		require.NoError(t, err)

		page := testPipeline(t, registry, 4).BuildPage(context.Background(), 4, false)

		bySource := lo.CountValuesBy(page, func(a models.Article) string { return a.Source })
		assert.Equal(t, 2, bySource["Big"])
		assert.Equal(t, 1, bySource["Small"])
	})

	t.Run("all feeds empty serves fallback articles", func(t *testing.T) {
		empty := feedServer(t, "Empty")

		registry := testRegistry(t)
		_, err := registry.Create(empty.URL, "Empty", "")
		require.NoError(t, err)

		page := testPipeline(t, registry, 12).BuildPage(context.Background(), 12, false)

		require.Len(t, page, 2)
		assert.Equal(t, "Fallback one", page[0].Title)
		assert.Equal(t, 1, page[0].Rank)
		assert.Equal(t, 2, page[1].Rank)
		assert.Equal(t, "/images/breaking-news-fallback.svg", page[0].ImageUrl)
	})

	t.Run("no active feeds serves fallback articles", func(t *testing.T) {
		registry := testRegistry(t)

		page := testPipeline(t, registry, 12).BuildPage(context.Background(), 12, false)

		require.Len(t, page, 2)
		assert.Equal(t, "Fallback one", page[0].Title)
	})
}
