package crawl

import (
	"context"
	"log/slog"

	"github.com/fwojciec/docindex"
)

// Discoverer enumerates the pages of a documentation site. Sitemaps are
// consulted first; the links in the base page's main region are the
// fallback when no sitemap lists anything in scope.
type Discoverer struct {
	Sitemaps docindex.SitemapService
	Fetcher  docindex.Fetcher
	Links    docindex.LinkExtractor
	Logger   *slog.Logger
}

// Discover returns the in-scope page URLs found under baseURL. The base
// page is only fetched when the sitemap yields nothing. An EDISCOVERY error
// is returned when neither source produces a result.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) ([]string, error) {
	logger := d.Logger
	if logger == nil {
		logger = discardLogger
	}

	urls, err := d.Sitemaps.DiscoverURLs(ctx, baseURL)
	if err == nil && len(urls) > 0 {
		logger.Debug("discovered urls from sitemap", "count", len(urls))
		return urls, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		logger.Debug("sitemap unavailable, falling back to page links", "err", err)
	} else {
		logger.Debug("sitemap lists nothing in scope, falling back to page links")
	}

	html, err := d.Fetcher.Fetch(ctx, baseURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, docindex.Wrapf(docindex.EDISCOVERY, err, "discovering pages of %s", baseURL)
	}

	links, err := d.Links.ExtractLinks(html, baseURL)
	if err != nil {
		return nil, docindex.Wrapf(docindex.EDISCOVERY, err, "extracting links from %s", baseURL)
	}

	logger.Debug("discovered urls from page links", "count", len(links))
	return links, nil
}

// Plan returns the ordered, duplicate-free list of pages to crawl. The base
// URL is prepended when discovery did not return it.
func Plan(baseURL string, discovered []string) []string {
	seen := make(map[string]bool, len(discovered)+1)
	plan := make([]string, 0, len(discovered)+1)

	hasBase := false
	for _, u := range discovered {
		if u == baseURL {
			hasBase = true
			break
		}
	}
	if !hasBase {
		plan = append(plan, baseURL)
		seen[baseURL] = true
	}

	for _, u := range discovered {
		if seen[u] {
			continue
		}
		seen[u] = true
		plan = append(plan, u)
	}
	return plan
}
