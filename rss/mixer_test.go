package rss_test

import (
	"fmt"
	"testing"

	"adboard/models"
	"adboard/rss"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func articlesFor(source string, count int) []models.Article {
	articles := make([]models.Article, count)
	for i := range articles {
		articles[i] = models.Article{
			Id:     fmt.Sprintf("%s-%d", source, i),
			Source: source,
		}
	}
	return articles
}

func TestMix(t *testing.T) {
	t.Run("round robin across three sources", func(t *testing.T) {
		input := append(articlesFor("A", 5), articlesFor("B", 2)...)
		input = append(input, articlesFor("C", 8)...)

		mixed := rss.Mix(input, []string{"A", "B", "C"}, 6)

		ids := lo.Map(mixed, func(a models.Article, _ int) string { return a.Id })
		assert.Equal(t, []string{"A-0", "B-0", "C-0", "A-1", "B-1", "C-1"}, ids)
	})

	t.Run("exhausted source drops out without gaps", func(t *testing.T) {
		input := append(articlesFor("A", 5), articlesFor("B", 1)...)

		mixed := rss.Mix(input, []string{"A", "B"}, 5)

		ids := lo.Map(mixed, func(a models.Article, _ int) string { return a.Id })
		assert.Equal(t, []string{"A-0", "B-0", "A-1", "A-2", "A-3"}, ids)
	})

	t.Run("fewer articles than page size returned unchanged", func(t *testing.T) {
		input := append(articlesFor("A", 2), articlesFor("B", 1)...)

		mixed := rss.Mix(input, []string{"A", "B"}, 12)

		assert.Equal(t, input, mixed)
	})

	t.Run("single source is a plain prefix", func(t *testing.T) {
		input := articlesFor("A", 10)

		mixed := rss.Mix(input, []string{"A"}, 4)

		assert.Equal(t, input[:4], mixed)
	})

	t.Run("unknown sources appended after the configured order", func(t *testing.T) {
		input := append(articlesFor("X", 3), articlesFor("A", 3)...)

		mixed := rss.Mix(input, []string{"A"}, 4)

		ids := lo.Map(mixed, func(a models.Article, _ int) string { return a.Id })
		assert.Equal(t, []string{"A-0", "X-0", "A-1", "X-1"}, ids)
	})

	t.Run("zero page size", func(t *testing.T) {
		assert.Empty(t, rss.Mix(articlesFor("A", 3), []string{"A"}, 0))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, rss.Mix(nil, []string{"A"}, 12))
	})
}
