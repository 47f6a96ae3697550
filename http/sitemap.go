package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/fwojciec/docindex"
)

// DefaultSitemapTimeout bounds each sitemap probe. Sitemaps are speculative,
// so a slow host must not hold up the DOM fallback.
const DefaultSitemapTimeout = 5 * time.Second

// maxSitemapDepth limits how deep sitemap indexes are followed.
const maxSitemapDepth = 3

// Ensure SitemapService implements docindex.SitemapService.
var _ docindex.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URLs from website sitemaps via HTTP.
type SitemapService struct {
	client  *http.Client
	timeout time.Duration
}

// SitemapOption configures a SitemapService.
type SitemapOption func(*SitemapService)

// WithSitemapTimeout overrides DefaultSitemapTimeout.
func WithSitemapTimeout(d time.Duration) SitemapOption {
	return func(s *SitemapService) {
		s.timeout = d
	}
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client, opts ...SitemapOption) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	s := &SitemapService{client: client, timeout: DefaultSitemapTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoverURLs returns the in-scope URLs of the first sitemap that lists
// any. Candidates are tried in order: the sitemap under baseURL's path, then
// the one at the origin root. Fetch, parse and timeout failures all move on
// to the next candidate. Returns an EDISCOVERY error only when no candidate
// could be read at all.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := SitemapCandidates(baseURL)
	if err != nil {
		return nil, err
	}

	var lastErr error
	read := false
	for _, candidate := range candidates {
		urls, err := s.probe(ctx, candidate)
		if err != nil {
			// Propagate cancellation of the caller's context, treat
			// everything else as "try the next source".
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		read = true

		var inScope []string
		seen := make(map[string]bool)
		for _, u := range urls {
			if seen[u] || !docindex.InScope(u, baseURL) {
				continue
			}
			seen[u] = true
			inScope = append(inScope, u)
		}
		if len(inScope) > 0 {
			return inScope, nil
		}
	}

	if !read && lastErr != nil {
		return nil, docindex.Wrapf(docindex.EDISCOVERY, lastErr, "no readable sitemap for %s", baseURL)
	}
	return []string{}, nil
}

// SitemapCandidates returns the sitemap locations probed for baseURL, in
// priority order and without duplicates.
func SitemapCandidates(baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, docindex.Errorf(docindex.EINVALID, "invalid base URL %q", baseURL)
	}

	local := strings.TrimSuffix(baseURL, "/") + "/sitemap.xml"
	root := base.Scheme + "://" + base.Host + "/sitemap.xml"

	if local == root {
		return []string{local}, nil
	}
	return []string{local, root}, nil
}

// probe fetches one sitemap under the probe timeout.
func (s *SitemapService) probe(ctx context.Context, sitemapURL string) ([]string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.processSitemap(ctx, sitemapURL, make(map[string]bool), 0)
}

// processSitemap fetches and parses a sitemap, handling both urlset and sitemapindex.
func (s *SitemapService) processSitemap(ctx context.Context, sitemapURL string, seen map[string]bool, depth int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Avoid processing the same sitemap twice
	if seen[sitemapURL] || depth > maxSitemapDepth {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := get(ctx, s.client, sitemapURL, DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, docindex.Wrapf(docindex.EDISCOVERY, err, "parsing sitemap %s", sitemapURL)
	}

	root := doc.Root()
	if root == nil {
		return nil, docindex.Errorf(docindex.EDISCOVERY, "empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		return s.processSitemapIndex(ctx, root, seen, depth)
	}

	return parseURLSet(root), nil
}

// processSitemapIndex follows the <sitemap><loc> entries of a sitemap index.
// Unreadable child sitemaps are skipped.
func (s *SitemapService) processSitemapIndex(ctx context.Context, root *etree.Element, seen map[string]bool, depth int) ([]string, error) {
	var allURLs []string

	for _, sitemap := range root.SelectElements("sitemap") {
		loc := sitemap.SelectElement("loc")
		if loc == nil {
			continue
		}
		sitemapURL := strings.TrimSpace(loc.Text())
		if sitemapURL == "" {
			continue
		}

		urls, err := s.processSitemap(ctx, sitemapURL, seen, depth+1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		allURLs = append(allURLs, urls...)
	}

	return allURLs, nil
}

// parseURLSet extracts the <loc> of every <url> in a <urlset> element.
func parseURLSet(root *etree.Element) []string {
	var urls []string
	for _, urlEl := range root.SelectElements("url") {
		loc := urlEl.SelectElement("loc")
		if loc == nil {
			continue
		}
		u := strings.TrimSpace(loc.Text())
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
