package docindex

import (
	"context"
	"strings"
)

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs returns the in-scope URLs listed by the first sitemap
	// that has any. It probes <baseURL>/sitemap.xml and then the sitemap at
	// the origin root. An empty result with a nil error means sitemaps were
	// readable but listed nothing in scope; an EDISCOVERY error means no
	// sitemap could be read.
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}

// InScope reports whether rawURL belongs to the crawl rooted at baseURL.
// The check is a plain string prefix match, which excludes other origins and
// sibling paths.
func InScope(rawURL, baseURL string) bool {
	return strings.HasPrefix(rawURL, baseURL)
}
