// Package rss implements the news ingestion pipeline: feed fetching,
// image extraction, article normalization and round-robin mixing across
// sources. Ingestion errors are non-fatal by design: a bad feed is logged
// and skipped, never surfaced to the browser.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

const userAgent = "adboard/1.0 (+https://github.com/adboard)"

// Fetcher downloads and parses RSS/Atom feeds with a per-fetch timeout and
// a small bounded retry. Upstream feeds are cheap to re-request, so two
// retries with exponential backoff cover transient failures without
// delaying the page noticeably.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
	retries uint64
}

func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{
		Transport: noCacheTransport{base: http.DefaultTransport},
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retries < 0 {
		retries = 0
	}

	return &Fetcher{
		parser:  parser,
		timeout: timeout,
		retries: uint64(retries),
	}
}

// noCacheTransport asks intermediaries for a fresh document on every fetch
type noCacheTransport struct {
	base http.RoundTripper
}

func (t noCacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Cache-Control", "no-cache")
	return base.RoundTrip(clone)
}

// Fetch downloads and parses the feed at url. Non-2xx responses and
// malformed XML come back as errors; the caller decides to skip the feed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 200 * time.Millisecond
	retry.MaxInterval = 2 * time.Second

	var feed *gofeed.Feed
	operation := func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		parsed, err := f.parser.ParseURLWithContext(url, fetchCtx)
		if err != nil {
			// Context cancellation is not worth retrying
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		feed = parsed
		return nil
	}

	start := time.Now()
	err := backoff.Retry(operation, backoff.WithMaxRetries(retry, f.retries))
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	log.WithFields(log.Fields{
		"url":     url,
		"items":   len(feed.Items),
		"latency": time.Since(start),
	}).Debug("Fetched feed")

	return feed, nil
}
