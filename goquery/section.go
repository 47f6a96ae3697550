// Package goquery implements section and link extraction over parsed HTML
// using github.com/PuerkitoBio/goquery.
package goquery

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docindex"
	"golang.org/x/net/html"
)

const (
	// headingSelector matches the headings that open a section.
	headingSelector = "h1, h2, h3"

	// noiseSelector matches layout chrome and link text that must not leak
	// into section content.
	noiseSelector = "script, style, nav, footer, .nav, .sidebar, .menu, .footer, .sidebar-group, a"

	// minContainerText is the trimmed text length a following element must
	// exceed to be taken as a header's content container.
	minContainerText = 50
)

// contentContainerSelectors are tried in order when looking for the content
// that belongs to a heading inside a page header.
var contentContainerSelectors = []string{
	".mdx-content",
	".content",
	".main-content",
	`[class*="content"]`,
}

// Ensure SectionExtractor implements docindex.SectionExtractor.
var _ docindex.SectionExtractor = (*SectionExtractor)(nil)

// SectionExtractor splits the main region of a page into heading-bounded
// sections.
type SectionExtractor struct{}

// NewSectionExtractor creates a new SectionExtractor.
func NewSectionExtractor() *SectionExtractor {
	return &SectionExtractor{}
}

// Extract parses html fetched from pageURL and returns one section per
// h1-h3 heading with non-empty cleaned content, in document order.
func (e *SectionExtractor) Extract(rawHTML string, pageURL string) ([]*docindex.Section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, docindex.Errorf(docindex.EINVALID, "failed to parse HTML of %s: %v", pageURL, err)
	}

	region := mainRegion(stripNoise(doc).Selection)
	if region.Length() == 0 {
		return nil, nil
	}

	baseTitle := strings.TrimSpace(region.Find("h1, h2").First().Text())
	pagePath := docindex.PagePath(pageURL)

	var sections []*docindex.Section
	region.Find(headingSelector).Each(func(_ int, heading *goquery.Selection) {
		strategy := strategyFor(heading)

		content := docindex.CleanText(strategy.Body(heading))
		if content == "" {
			return
		}

		sectionURL, sectionPath := pageURL, pagePath
		if strategy.Anchored() {
			id, _ := heading.Attr("id")
			sectionURL = docindex.WithAnchor(pageURL, id)
			sectionPath = docindex.WithAnchor(pagePath, id)
		}

		title := strings.TrimSpace(heading.Text())
		if title == "" {
			title = baseTitle
		}

		sections = append(sections, &docindex.Section{
			URL:     sectionURL,
			Title:   title,
			Content: content,
			Path:    sectionPath,
		})
	})

	return sections, nil
}

// stripNoise returns a copy of doc with noiseSelector matches removed.
// The input document is left untouched.
func stripNoise(doc *goquery.Document) *goquery.Document {
	clone := doc.Selection.Clone()
	stripped := goquery.NewDocumentFromNode(clone.Nodes[0])
	stripped.Find(noiseSelector).Remove()
	return stripped
}

// mainRegion returns the semantic main element, falling back to an explicit
// role="main" region.
func mainRegion(sel *goquery.Selection) *goquery.Selection {
	main := sel.Find("main")
	if main.Length() == 0 {
		main = sel.Find(`div[role="main"], .body[role="main"]`)
	}
	return main
}

// Strategy computes the body text of the section a heading opens.
type Strategy interface {
	// Body returns the raw, uncleaned text belonging to heading.
	Body(heading *goquery.Selection) string

	// Anchored reports whether the heading's id identifies the section.
	Anchored() bool
}

// strategyFor picks NearestContentContainerStrategy for headings inside a
// page header and SiblingRangeStrategy otherwise.
func strategyFor(heading *goquery.Selection) Strategy {
	if heading.Closest("header").Length() > 0 {
		return NearestContentContainerStrategy{}
	}
	return SiblingRangeStrategy{}
}

// SiblingRangeStrategy takes the text of the elements following the heading
// up to the next h1-h3. Element texts are concatenated as is, without a
// separator, so "<p>a.</p><p>b</p>" reads "a.b". Fingerprints of existing
// index records depend on this exact text.
type SiblingRangeStrategy struct{}

// Body implements Strategy.
func (SiblingRangeStrategy) Body(heading *goquery.Selection) string {
	return strings.TrimSpace(heading.NextUntil(headingSelector).Text())
}

// Anchored implements Strategy.
func (SiblingRangeStrategy) Anchored() bool { return true }

// NearestContentContainerStrategy handles headings placed in a <header>,
// whose siblings are layout rather than content. It looks past the header
// for the first element that looks like a content container and takes that
// element's content up to its first h1-h3.
type NearestContentContainerStrategy struct{}

// Body implements Strategy.
func (NearestContentContainerStrategy) Body(heading *goquery.Selection) string {
	container := contentContainer(heading.Closest("header"))
	if container.Length() == 0 {
		return ""
	}

	var b strings.Builder
	container.Contents().EachWithBreak(func(_ int, child *goquery.Selection) bool {
		n := child.Get(0)
		if n.Type != html.TextNode && n.Type != html.ElementNode {
			return true
		}
		if child.Is(headingSelector) {
			return false
		}
		b.WriteString(child.Text())
		b.WriteString(" ")
		return true
	})
	return strings.TrimSpace(b.String())
}

// Anchored implements Strategy. A header heading's id marks the page, not a
// distinct block, so these sections use the bare page URL.
func (NearestContentContainerStrategy) Anchored() bool { return false }

// contentContainer finds the element following header that holds its
// content: the first class-name match in contentContainerSelectors order,
// else the first following sibling with substantial text.
func contentContainer(header *goquery.Selection) *goquery.Selection {
	for _, selector := range contentContainerSelectors {
		if c := header.NextAllFiltered(selector).First(); c.Length() > 0 {
			return c
		}
	}

	var found *goquery.Selection
	header.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if utf8.RuneCountInString(strings.TrimSpace(sib.Text())) > minContainerText {
			found = sib
			return false
		}
		return true
	})
	if found == nil {
		return header.NextAll().Slice(0, 0)
	}
	return found
}
