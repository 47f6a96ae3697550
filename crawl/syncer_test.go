package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/crawl"
	"github.com/fwojciec/docindex/goquery"
	"github.com/fwojciec/docindex/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://example.com/docs"

// site serves fixed HTML per URL and lists every non-base URL in its
// sitemap, in insertion order.
type site struct {
	mu    sync.Mutex
	urls  []string
	pages map[string]string
	fails map[string]int
	hits  map[string]int
}

func newSite() *site {
	return &site{
		pages: make(map[string]string),
		fails: make(map[string]int),
		hits:  make(map[string]int),
	}
}

func (s *site) page(url, html string) *site {
	if _, ok := s.pages[url]; !ok && url != baseURL {
		s.urls = append(s.urls, url)
	}
	s.pages[url] = html
	return s
}

func (s *site) fetch(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[url]++
	if s.fails[url] > 0 {
		s.fails[url]--
		return "", docindex.Errorf(docindex.EFETCH, "HTTP 500 for %s", url)
	}
	html, ok := s.pages[url]
	if !ok {
		return "", docindex.Errorf(docindex.EFETCH, "HTTP 404 for %s", url)
	}
	return html, nil
}

func (s *site) hitCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[url]
}

func (s *site) syncer(idx docindex.SearchIndex) *crawl.Syncer {
	fetcher := &mock.Fetcher{FetchFn: s.fetch}
	return &crawl.Syncer{
		Discoverer: &crawl.Discoverer{
			Sitemaps: &mock.SitemapService{
				DiscoverURLsFn: func(_ context.Context, _ string) ([]string, error) {
					return s.urls, nil
				},
			},
			Fetcher: fetcher,
			Links:   goquery.NewLinkExtractor(),
		},
		Fetcher:   fetcher,
		Extractor: goquery.NewSectionExtractor(),
		Index:     idx,
		Now: func() time.Time {
			return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

func docPage(title, body string) string {
	return fmt.Sprintf(`<html><body><main><h1>%s</h1><p>%s</p><h2 id="more">More</h2><p>Extra %s</p></main></body></html>`, title, body, body)
}

func threePageSite() *site {
	return newSite().
		page(baseURL, docPage("Home", "Welcome")).
		page(baseURL+"/guide", docPage("Guide", "Steps")).
		page(baseURL+"/api", docPage("API", "Reference"))
}

func TestSyncer_Run(t *testing.T) {
	t.Parallel()

	t.Run("indexes every section of every page", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()

		result, err := threePageSite().syncer(idx).Run(context.Background(), baseURL)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 6, result.NewRecordsCount)
		assert.Equal(t, 6, result.TotalRecordsCount)
		assert.Equal(t, 0, result.DeletedRecordsCount)
		assert.Equal(t, 3, result.PagesCrawled)
		assert.NotEmpty(t, result.RunID)
		assert.Len(t, idx.ids(), 6)
	})

	t.Run("second run over unchanged content writes nothing", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		s := threePageSite()

		_, err := s.syncer(idx).Run(context.Background(), baseURL)
		require.NoError(t, err)
		writes := idx.writes()

		result, err := s.syncer(idx).Run(context.Background(), baseURL)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 0, result.NewRecordsCount)
		assert.Equal(t, 0, result.DeletedRecordsCount)
		assert.Equal(t, 6, result.TotalRecordsCount)
		assert.Equal(t, writes, idx.writes())
	})

	t.Run("replaces changed sections and removes vanished ones", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		s := threePageSite()
		_, err := s.syncer(idx).Run(context.Background(), baseURL)
		require.NoError(t, err)

		changed := newSite().
			page(baseURL, docPage("Home", "Welcome")).
			page(baseURL+"/guide", docPage("Guide", "Revised"))

		result, err := changed.syncer(idx).Run(context.Background(), baseURL)

		require.NoError(t, err)
		// Both guide sections changed and both api sections vanished.
		assert.Equal(t, 2, result.NewRecordsCount)
		assert.Equal(t, 4, result.DeletedRecordsCount)
		assert.Len(t, idx.ids(), 4)
	})

	t.Run("aborts on the first failed page by default", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		s := threePageSite()
		s.fails[baseURL+"/guide"] = 1

		result, err := s.syncer(idx).Run(context.Background(), baseURL)

		require.Error(t, err)
		assert.Equal(t, docindex.EFETCH, docindex.ErrorCode(err))
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "HTTP 500")
		assert.Equal(t, 0, s.hitCount(baseURL+"/api"))
		assert.Equal(t, 0, idx.writes())
		assert.Equal(t, 0, idx.rangeCalls)
	})

	t.Run("skips failed pages when configured", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		s := threePageSite()
		s.fails[baseURL+"/guide"] = 1
		syncer := s.syncer(idx)
		syncer.FailurePolicy = crawl.SkipFailedPages

		result, err := syncer.Run(context.Background(), baseURL)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, []string{baseURL + "/guide"}, result.SkippedPages)
		assert.Equal(t, 2, result.PagesCrawled)
		assert.Equal(t, 4, result.TotalRecordsCount)
	})

	t.Run("fails instead of emptying the index when every page is skipped", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		s := threePageSite()
		_, err := s.syncer(idx).Run(context.Background(), baseURL)
		require.NoError(t, err)
		require.Len(t, idx.ids(), 6)
		writes := idx.writes()

		for _, u := range []string{baseURL, baseURL + "/guide", baseURL + "/api"} {
			s.fails[u] = 1
		}
		syncer := s.syncer(idx)
		syncer.FailurePolicy = crawl.SkipFailedPages

		result, err := syncer.Run(context.Background(), baseURL)

		require.Error(t, err)
		assert.Equal(t, docindex.EFETCH, docindex.ErrorCode(err))
		assert.False(t, result.Success)
		assert.Len(t, result.SkippedPages, 3)
		assert.Equal(t, 0, result.PagesCrawled)
		assert.Len(t, idx.ids(), 6)
		assert.Equal(t, writes, idx.writes())
	})

	t.Run("rejects sections without content", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		syncer := threePageSite().syncer(idx)
		syncer.Extractor = &mock.SectionExtractor{
			ExtractFn: func(_ string, pageURL string) ([]*docindex.Section, error) {
				return []*docindex.Section{{URL: pageURL, Title: "Empty", Path: "/docs"}}, nil
			},
		}

		result, err := syncer.Run(context.Background(), baseURL)

		require.Error(t, err)
		assert.Equal(t, docindex.EFETCH, docindex.ErrorCode(err))
		assert.Contains(t, result.Error, "section content required")
		assert.Equal(t, 0, idx.writes())
	})

	t.Run("retries failed fetches when delays are set", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		s := threePageSite()
		s.fails[baseURL+"/guide"] = 2
		syncer := s.syncer(idx)
		syncer.RetryDelays = []time.Duration{0, 0}

		result, err := syncer.Run(context.Background(), baseURL)

		require.NoError(t, err)
		assert.Equal(t, 6, result.TotalRecordsCount)
		assert.Equal(t, 3, s.hitCount(baseURL+"/guide"))
	})

	t.Run("concurrent crawl keeps plan order", func(t *testing.T) {
		t.Parallel()

		s := newSite().page(baseURL, docPage("Home", "Welcome"))
		for i := range 20 {
			s.page(fmt.Sprintf("%s/p%d", baseURL, i), docPage(fmt.Sprintf("Page %d", i), fmt.Sprintf("Body %d", i)))
		}

		sequential := newMemoryIndex()
		_, err := s.syncer(sequential).Run(context.Background(), baseURL)
		require.NoError(t, err)

		concurrent := newMemoryIndex()
		syncer := s.syncer(concurrent)
		syncer.Concurrency = 8
		_, err = syncer.Run(context.Background(), baseURL)
		require.NoError(t, err)

		assert.Equal(t, sequential.ids(), concurrent.ids())
	})

	t.Run("dry run reports the delta without writing", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex("stale")
		syncer := threePageSite().syncer(idx)
		syncer.DryRun = true

		result, err := syncer.Run(context.Background(), baseURL)

		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Equal(t, 6, result.NewRecordsCount)
		assert.Equal(t, 1, result.DeletedRecordsCount)
		assert.Equal(t, 0, idx.writes())
	})

	t.Run("rejects a relative base url", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()

		result, err := threePageSite().syncer(idx).Run(context.Background(), "/docs")

		require.Error(t, err)
		assert.Equal(t, docindex.EINVALID, docindex.ErrorCode(err))
		assert.False(t, result.Success)
	})

	t.Run("fails the run when the index cannot be written", func(t *testing.T) {
		t.Parallel()

		idx := newMemoryIndex()
		idx.UpsertFn = func(_ context.Context, _ []*docindex.Record) error {
			return errors.New("quota exceeded")
		}

		result, err := threePageSite().syncer(idx).Run(context.Background(), baseURL)

		require.Error(t, err)
		assert.Equal(t, docindex.ESYNC, docindex.ErrorCode(err))
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "quota exceeded")
	})

	t.Run("waits on the rate limiter per page host", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var domains []string
		syncer := threePageSite().syncer(newMemoryIndex())
		syncer.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				mu.Lock()
				defer mu.Unlock()
				domains = append(domains, domain)
				return nil
			},
		}

		_, err := syncer.Run(context.Background(), baseURL)

		require.NoError(t, err)
		assert.Equal(t, []string{"example.com", "example.com", "example.com"}, domains)
	})

	t.Run("reports progress events", func(t *testing.T) {
		t.Parallel()

		var events []crawl.ProgressEvent
		syncer := threePageSite().syncer(newMemoryIndex())
		syncer.Progress = func(e crawl.ProgressEvent) {
			events = append(events, e)
		}

		_, err := syncer.Run(context.Background(), baseURL)

		require.NoError(t, err)
		require.Len(t, events, 5)
		assert.Equal(t, crawl.ProgressStarted, events[0].Type)
		assert.Equal(t, 3, events[0].Total)
		assert.Equal(t, crawl.ProgressCompleted, events[1].Type)
		assert.Equal(t, baseURL, events[1].URL)
		assert.Equal(t, 2, events[1].Sections)
		assert.Equal(t, crawl.ProgressFinished, events[4].Type)
	})
}
