package rss

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"adboard/models"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
)

// Text shown when an item carries no usable description
const emptyExcerptText = "Artikelvorschau derzeit nicht verfügbar."

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// DecodeEntities decodes the small fixed set of HTML entities that feeds
// commonly double-encode
func DecodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script.*?</script>`)
	stylePattern      = regexp.MustCompile(`(?is)<style.*?</style>`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML reduces an HTML fragment to plain text: script and style blocks
// go first, then all tags, then whitespace collapses to single spaces.
func StripHTML(html string) string {
	text := scriptPattern.ReplaceAllString(html, "")
	text = stylePattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Excerpt caps s at limit runes
func Excerpt(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// Normalizer maps raw feed items into uniform Article records. Items
// without a genuine extracted image are dropped: the dashboard layout
// needs one image per card.
type Normalizer struct {
	extractor    *Extractor
	excerptLimit int
	placeholder  string
}

func NewNormalizer(extractor *Extractor, excerptLimit int, placeholder string) *Normalizer {
	if excerptLimit <= 0 {
		excerptLimit = 280
	}
	return &Normalizer{
		extractor:    extractor,
		excerptLimit: excerptLimit,
		placeholder:  placeholder,
	}
}

// Normalize builds an Article from one raw item. The second return value is
// false when the item has no usable image and must be filtered out.
func (n *Normalizer) Normalize(item *gofeed.Item, feed *gofeed.Feed, source string) (models.Article, bool) {
	imageUrl := n.extractor.Extract(item, feed)
	if imageUrl == "" || imageUrl == n.placeholder {
		return models.Article{}, false
	}

	title := item.Title
	if title == "" {
		title = "Untitled"
	}
	link := item.Link
	if link == "" {
		link = "#"
	}

	publishedAt := time.Now().UTC()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	rawDesc := item.Description
	if rawDesc == "" {
		rawDesc = item.Content
	}
	excerpt := Excerpt(StripHTML(DecodeEntities(rawDesc)), n.excerptLimit)
	if excerpt == "" {
		excerpt = emptyExcerptText
	}

	author := source
	if feed != nil && feed.Title != "" {
		author = feed.Title
	}

	return models.Article{
		Id:            newArticleId("news"),
		Title:         title,
		Headline:      title,
		Content:       excerpt,
		Url:           link,
		ImageUrl:      imageUrl,
		PublishedAt:   publishedAt,
		FormattedDate: publishedAt.Format("02.01.06"),
		Category:      "news",
		Author:        author,
		Source:        source,
	}, true
}

func newArticleId(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}
