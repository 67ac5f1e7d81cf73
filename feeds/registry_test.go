package feeds_test

import (
	"testing"

	"adboard/feeds"
	"adboard/models"
	"adboard/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, defaults []models.FeedConfig) *feeds.Registry {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return feeds.NewRegistry(st, feeds.NewsKey, defaults)
}

func TestRegistryDefaults(t *testing.T) {
	defaults := []models.FeedConfig{
		{Id: "horizont-news", Url: "https://www.horizont.net/news/feed/", Title: "HORIZONT News", IsActive: true},
	}
	registry := newRegistry(t, defaults)

	t.Run("empty registry returns defaults", func(t *testing.T) {
		assert.Equal(t, defaults, registry.List())
	})

	t.Run("first write persists defaults alongside the new feed", func(t *testing.T) {
		created, err := registry.Create("https://example.com/feed", "Example", "")
		require.NoError(t, err)

		listed := registry.List()
		require.Len(t, listed, 2)
		assert.Equal(t, "horizont-news", listed[0].Id)
		assert.Equal(t, created.Id, listed[1].Id)
	})
}

func TestRegistryCreate(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		title       string
		expectedErr error
	}{
		{
			name:        "valid feed",
			url:         "https://example.com/feed.xml",
			title:       "Example",
			expectedErr: nil,
		},
		{
			name:        "missing url",
			url:         "",
			title:       "Example",
			expectedErr: feeds.ErrMissingField,
		},
		{
			name:        "missing title",
			url:         "https://example.com/feed.xml",
			title:       "",
			expectedErr: feeds.ErrMissingField,
		},
		{
			name:        "relative url",
			url:         "/feed.xml",
			title:       "Example",
			expectedErr: feeds.ErrInvalidURL,
		},
		{
			name:        "garbage url",
			url:         "not a url",
			title:       "Example",
			expectedErr: feeds.ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := newRegistry(t, nil)
			feed, err := registry.Create(tt.url, tt.title, "")

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, feed.Id)
			assert.True(t, feed.IsActive)
			assert.Equal(t, tt.url, feed.Url)
		})
	}

	t.Run("duplicate url rejected", func(t *testing.T) {
		registry := newRegistry(t, nil)
		_, err := registry.Create("https://example.com/feed.xml", "First", "")
		require.NoError(t, err)

		_, err = registry.Create("https://example.com/feed.xml", "Second", "")
		assert.ErrorIs(t, err, feeds.ErrDuplicateURL)
	})
}

func TestRegistryUpdate(t *testing.T) {
	registry := newRegistry(t, nil)
	first, err := registry.Create("https://example.com/one.xml", "One", "")
	require.NoError(t, err)
	second, err := registry.Create("https://example.com/two.xml", "Two", "")
	require.NoError(t, err)

	t.Run("updates fields", func(t *testing.T) {
		updated, err := registry.Update(first.Id, "https://example.com/renamed.xml", "Renamed", "desc")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "https://example.com/renamed.xml", updated.Url)
	})

	t.Run("cannot take another feeds url", func(t *testing.T) {
		_, err := registry.Update(first.Id, second.Url, "One", "")
		assert.ErrorIs(t, err, feeds.ErrDuplicateURL)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := registry.Update("missing", "https://example.com/x.xml", "X", "")
		assert.ErrorIs(t, err, feeds.ErrNotFound)
	})
}

func TestRegistryToggleAndDelete(t *testing.T) {
	registry := newRegistry(t, nil)
	feed, err := registry.Create("https://example.com/feed.xml", "Example", "")
	require.NoError(t, err)

	t.Run("toggle flips the active flag", func(t *testing.T) {
		toggled, err := registry.Toggle(feed.Id)
		require.NoError(t, err)
		assert.False(t, toggled.IsActive)
		assert.Empty(t, registry.ListActive())

		toggled, err = registry.Toggle(feed.Id)
		require.NoError(t, err)
		assert.True(t, toggled.IsActive)
	})

	t.Run("toggle unknown id", func(t *testing.T) {
		_, err := registry.Toggle("missing")
		assert.ErrorIs(t, err, feeds.ErrNotFound)
	})

	t.Run("delete removes the feed", func(t *testing.T) {
		require.NoError(t, registry.Delete(feed.Id))
		_, err := registry.Get(feed.Id)
		assert.ErrorIs(t, err, feeds.ErrNotFound)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		assert.ErrorIs(t, registry.Delete("missing"), feeds.ErrNotFound)
	})
}
