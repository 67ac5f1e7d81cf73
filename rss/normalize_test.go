package rss_test

import (
	"strings"
	"testing"
	"time"

	"adboard/rss"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "plain text untouched",
			html:     "Just some text",
			expected: "Just some text",
		},
		{
			name:     "tags removed",
			html:     "<p>Hello <strong>world</strong></p>",
			expected: "Hello world",
		},
		{
			name:     "script blocks removed entirely",
			html:     `<p>Before</p><script>alert("x")</script><p>After</p>`,
			expected: "Before After",
		},
		{
			name:     "style blocks removed entirely",
			html:     "<style>p { color: red }</style>Visible",
			expected: "Visible",
		},
		{
			name:     "whitespace collapsed",
			html:     "Line one\n\n\tLine   two",
			expected: "Line one Line two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rss.StripHTML(tt.html))
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", rss.Excerpt("short", 280))

	long := strings.Repeat("ä", 300)
	capped := rss.Excerpt(long, 280)
	assert.Equal(t, 280, len([]rune(capped)))
}

func TestNormalize(t *testing.T) {
	normalizer := rss.NewNormalizer(rss.NewExtractor(defaultValidator()), 280, "/images/breaking-news-fallback.svg")
	published := time.Date(2025, 10, 20, 8, 0, 0, 0, time.UTC)

	t.Run("full item", func(t *testing.T) {
		item := &gofeed.Item{
			Title:           "Agentur gewinnt Etat",
			Link:            "https://example.com/article",
			Description:     "<p>Die Agentur &amp; ihr Kunde</p>",
			PublishedParsed: &published,
			Enclosures:      []*gofeed.Enclosure{{URL: "https://example.com/photo.jpg"}},
		}

		article, ok := normalizer.Normalize(item, &gofeed.Feed{Title: "HORIZONT News"}, "HORIZONT")
		require.True(t, ok)

		assert.Equal(t, "Agentur gewinnt Etat", article.Title)
		assert.Equal(t, "Die Agentur & ihr Kunde", article.Content)
		assert.Equal(t, "https://example.com/photo.jpg", article.ImageUrl)
		assert.Equal(t, "HORIZONT", article.Source)
		assert.Equal(t, "HORIZONT News", article.Author)
		assert.Equal(t, "20.10.25", article.FormattedDate)
		assert.Equal(t, published, article.PublishedAt)
	})

	t.Run("item without image is dropped", func(t *testing.T) {
		item := &gofeed.Item{
			Title:       "No picture",
			Link:        "https://example.com/article",
			Description: "Text only",
		}

		_, ok := normalizer.Normalize(item, nil, "HORIZONT")
		assert.False(t, ok)
	})

	t.Run("excerpt capped at the configured limit", func(t *testing.T) {
		item := &gofeed.Item{
			Title:       "Long one",
			Description: strings.Repeat("a", 500),
			Enclosures:  []*gofeed.Enclosure{{URL: "https://example.com/photo.jpg"}},
		}

		article, ok := normalizer.Normalize(item, nil, "HORIZONT")
		require.True(t, ok)
		assert.Equal(t, 280, len([]rune(article.Content)))
	})

	t.Run("empty description gets the placeholder text", func(t *testing.T) {
		item := &gofeed.Item{
			Title:      "Bare item",
			Enclosures: []*gofeed.Enclosure{{URL: "https://example.com/photo.jpg"}},
		}

		article, ok := normalizer.Normalize(item, nil, "HORIZONT")
		require.True(t, ok)
		assert.Equal(t, "Artikelvorschau derzeit nicht verfügbar.", article.Content)
	})

	t.Run("missing title and link get defaults", func(t *testing.T) {
		item := &gofeed.Item{
			Enclosures: []*gofeed.Enclosure{{URL: "https://example.com/photo.jpg"}},
		}

		article, ok := normalizer.Normalize(item, nil, "HORIZONT")
		require.True(t, ok)
		assert.Equal(t, "Untitled", article.Title)
		assert.Equal(t, "#", article.Url)
	})
}
