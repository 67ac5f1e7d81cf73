package rss

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
)

// ImageSource is one strategy for locating an image URL in a feed item.
// Strategies return raw candidates in preference order; the Extractor
// validates them and takes the first acceptable one.
type ImageSource interface {
	Name() string
	Candidates(item *gofeed.Item, feed *gofeed.Feed) []string
}

// Validator decides whether a candidate URL plausibly points at an image.
// This is a heuristic (extension or known host substring), not a
// content-type check; it will both mis-accept some non-image URLs and
// mis-reject extension-less images from unlisted hosts.
type Validator struct {
	extensions []string
	hosts      []string
}

func NewValidator(extensions, hosts []string) Validator {
	return Validator{
		extensions: lo.Map(extensions, func(e string, _ int) string { return strings.ToLower(e) }),
		hosts:      lo.Map(hosts, func(h string, _ int) string { return strings.ToLower(h) }),
	}
}

func (v Validator) Valid(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return false
	}

	path := strings.ToLower(parsed.Path)
	for _, ext := range v.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	host := strings.ToLower(parsed.Host)
	for _, allowed := range v.hosts {
		if strings.Contains(host, allowed) {
			return true
		}
	}
	return false
}

// Extractor runs the ordered strategy chain, first valid candidate wins
type Extractor struct {
	sources  []ImageSource
	validate Validator
}

// NewExtractor wires the default strategy order: media:content, enclosure,
// inline <img> tags, bare image-looking URLs, media:thumbnail, and finally
// the channel image.
func NewExtractor(v Validator) *Extractor {
	return &Extractor{
		validate: v,
		sources: []ImageSource{
			mediaContentSource{},
			enclosureSource{},
			inlineImgSource{},
			bareURLSource{},
			mediaThumbnailSource{},
			channelImageSource{},
		},
	}
}

// Extract returns the first validated image URL found in the item, or ""
// when no strategy yields one. Pure function over the item.
func (e *Extractor) Extract(item *gofeed.Item, feed *gofeed.Feed) string {
	for _, source := range e.sources {
		for _, candidate := range source.Candidates(item, feed) {
			if e.validate.Valid(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// mediaExtensionURLs pulls url attributes out of media:* extension elements,
// including media:group children. Repeating elements arrive as slices from
// the parser regardless of cardinality.
func mediaExtensionURLs(item *gofeed.Item, element string) []string {
	if item == nil || item.Extensions == nil {
		return nil
	}
	media, ok := item.Extensions["media"]
	if !ok {
		return nil
	}

	urls := []string{}
	for _, ext := range media[element] {
		if u := ext.Attrs["url"]; u != "" {
			urls = append(urls, u)
		}
	}
	for _, group := range media["group"] {
		for _, child := range group.Children[element] {
			if u := child.Attrs["url"]; u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

type mediaContentSource struct{}

func (mediaContentSource) Name() string { return "media:content" }

func (mediaContentSource) Candidates(item *gofeed.Item, _ *gofeed.Feed) []string {
	return mediaExtensionURLs(item, "content")
}

type enclosureSource struct{}

func (enclosureSource) Name() string { return "enclosure" }

func (enclosureSource) Candidates(item *gofeed.Item, _ *gofeed.Feed) []string {
	if item == nil {
		return nil
	}
	urls := []string{}
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			urls = append(urls, enclosure.URL)
		}
	}
	return urls
}

var imgTagPattern = regexp.MustCompile(`(?i)<img[^>]*src=["']([^"']+)["']`)

type inlineImgSource struct{}

func (inlineImgSource) Name() string { return "inline-img" }

func (inlineImgSource) Candidates(item *gofeed.Item, _ *gofeed.Feed) []string {
	html := itemHTML(item)
	if html == "" {
		return nil
	}
	urls := []string{}
	for _, match := range imgTagPattern.FindAllStringSubmatch(html, -1) {
		urls = append(urls, match[1])
	}
	return urls
}

var bareImageURLPattern = regexp.MustCompile(`(?i)https?://[^\s<>"']+\.(?:jpg|jpeg|png|gif|webp|svg)(?:\?[^\s<>"']*)?`)

type bareURLSource struct{}

func (bareURLSource) Name() string { return "bare-url" }

func (bareURLSource) Candidates(item *gofeed.Item, _ *gofeed.Feed) []string {
	html := itemHTML(item)
	if html == "" {
		return nil
	}
	return bareImageURLPattern.FindAllString(html, -1)
}

type mediaThumbnailSource struct{}

func (mediaThumbnailSource) Name() string { return "media:thumbnail" }

func (mediaThumbnailSource) Candidates(item *gofeed.Item, _ *gofeed.Feed) []string {
	return mediaExtensionURLs(item, "thumbnail")
}

type channelImageSource struct{}

func (channelImageSource) Name() string { return "channel-image" }

func (channelImageSource) Candidates(item *gofeed.Item, feed *gofeed.Feed) []string {
	urls := []string{}
	if item != nil && item.Image != nil && item.Image.URL != "" {
		urls = append(urls, item.Image.URL)
	}
	if feed != nil && feed.Image != nil && feed.Image.URL != "" {
		urls = append(urls, feed.Image.URL)
	}
	return urls
}

// itemHTML returns the decoded HTML body of an item, preferring full
// content over the description
func itemHTML(item *gofeed.Item) string {
	if item == nil {
		return ""
	}
	if item.Content != "" {
		return DecodeEntities(item.Content)
	}
	return DecodeEntities(item.Description)
}
