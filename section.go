package docindex

import (
	"net/url"
	"strings"
)

// Section is one titled, contiguous unit of page content bounded by headings.
// Content is cleaned, whitespace-normalized prose and is never empty.
type Section struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Path    string `json:"path"`
}

// Validate returns an error if the section contains invalid fields.
func (s *Section) Validate() error {
	if s.URL == "" {
		return Errorf(EINVALID, "section URL required")
	}
	if s.Content == "" {
		return Errorf(EINVALID, "section content required for %s", s.URL)
	}
	return nil
}

// PagePath returns rawURL with its scheme and host removed, so
// "https://example.com/docs?v=2" becomes "/docs?v=2". A bare origin yields
// an empty path. Unparseable URLs are returned unchanged.
func PagePath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	origin := u.Scheme + "://" + u.Host
	if len(rawURL) >= len(origin) && strings.EqualFold(rawURL[:len(origin)], origin) {
		return rawURL[len(origin):]
	}
	return rawURL
}

// WithAnchor appends "#anchor" to s. An empty anchor leaves s unchanged.
func WithAnchor(s, anchor string) string {
	if anchor == "" {
		return s
	}
	return s + "#" + anchor
}

// SectionExtractor decomposes a fetched page into sections.
type SectionExtractor interface {
	// Extract parses html fetched from pageURL and returns its sections in
	// document order. A page without a main content region yields no
	// sections and no error.
	Extract(html string, pageURL string) ([]*Section, error)
}

// LinkExtractor collects in-scope page links from the main content region
// of an HTML document.
type LinkExtractor interface {
	// ExtractLinks returns absolute URLs found in html that start with
	// baseURL, deduplicated in order of first occurrence.
	ExtractLinks(html string, baseURL string) ([]string, error)
}
