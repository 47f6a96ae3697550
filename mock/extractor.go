package mock

import "github.com/fwojciec/docindex"

var _ docindex.SectionExtractor = (*SectionExtractor)(nil)

// SectionExtractor is a mock implementation of docindex.SectionExtractor.
type SectionExtractor struct {
	ExtractFn func(html string, pageURL string) ([]*docindex.Section, error)
}

func (e *SectionExtractor) Extract(html string, pageURL string) ([]*docindex.Section, error) {
	return e.ExtractFn(html, pageURL)
}

var _ docindex.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of docindex.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html string, baseURL string) ([]string, error)
}

func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	return e.ExtractLinksFn(html, baseURL)
}
