// Package crawl runs the indexing pipeline: discover pages, extract
// sections, and reconcile them with a search index.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var discardLogger = slog.New(slog.DiscardHandler)

// FailurePolicy decides what happens to a run when a page cannot be
// fetched or extracted.
type FailurePolicy int

const (
	// AbortOnFailure fails the run on the first page error.
	AbortOnFailure FailurePolicy = iota
	// SkipFailedPages logs the error, leaves the page out of the crawl and
	// reports it in Result.SkippedPages.
	SkipFailedPages
)

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Sections  int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Syncer holds everything one indexing run needs. The zero values of the
// optional fields give a sequential, single-attempt, unthrottled crawl that
// aborts on the first failed page.
type Syncer struct {
	Discoverer *Discoverer
	Fetcher    docindex.Fetcher
	Extractor  docindex.SectionExtractor
	Index      docindex.SearchIndex

	Logger *slog.Logger

	// Progress receives crawl events. It is called from worker goroutines
	// when Concurrency is above 1.
	Progress ProgressFunc

	FailurePolicy FailurePolicy
	Concurrency   int
	RetryDelays   []time.Duration
	RateLimiter   docindex.DomainLimiter
	BatchSize     int

	// DryRun computes the delta without writing to Index.
	DryRun bool

	// Now returns the crawl timestamp. Defaults to time.Now.
	Now func() time.Time
}

// pageResult holds the outcome of crawling one page.
type pageResult struct {
	position int
	url      string
	sections []*docindex.Section
	err      error
}

// Run indexes the documentation rooted at baseURL. The returned Result is
// never nil; on failure it carries Success false and the error message, and
// the error is returned as well.
func (s *Syncer) Run(ctx context.Context, baseURL string) (*docindex.Result, error) {
	runID := uuid.NewString()
	result := &docindex.Result{RunID: runID, DryRun: s.DryRun}

	logger := s.Logger
	if logger == nil {
		logger = discardLogger
	}
	logger = logger.With("run", runID)

	fail := func(err error) (*docindex.Result, error) {
		result.Success = false
		result.Error = docindex.ErrorMessage(err)
		logger.Error("sync failed", "url", baseURL, "err", err)
		return result, err
	}

	if err := validateBaseURL(baseURL); err != nil {
		return fail(err)
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	crawledAt := now()

	logger.Info("sync started", "url", baseURL, "dry_run", s.DryRun)

	discovered, err := s.discoverer(logger).Discover(ctx, baseURL)
	if err != nil {
		return fail(err)
	}
	plan := Plan(baseURL, discovered)
	logger.Info("crawl planned", "pages", len(plan))

	sections, skipped, err := s.crawl(ctx, plan, logger)
	if err != nil {
		return fail(err)
	}
	result.PagesCrawled = len(plan) - len(skipped)
	result.SkippedPages = skipped
	result.TotalRecordsCount = len(sections)

	// With nothing crawled the diff would delete every remote record.
	if len(plan) > 0 && len(skipped) == len(plan) {
		return fail(docindex.Errorf(docindex.EFETCH, "all %d pages failed, index left unchanged", len(plan)))
	}

	remoteIDs, err := ListAllIDs(ctx, s.Index)
	if err != nil {
		return fail(err)
	}

	delta := docindex.Diff(sections, remoteIDs)
	result.NewRecordsCount = len(delta.ToUpsert)
	result.DeletedRecordsCount = len(delta.ToDelete)
	logger.Info("delta computed",
		"sections", len(sections),
		"remote", len(remoteIDs),
		"upsert", len(delta.ToUpsert),
		"delete", len(delta.ToDelete),
	)

	if !s.DryRun && !delta.Empty() {
		stats, err := Apply(ctx, s.Index, delta, crawledAt, WithBatchSize(s.BatchSize))
		if err != nil {
			return fail(err)
		}
		logger.Info("index updated",
			"upserted", stats.Upserted,
			"deleted", stats.Deleted,
			"batches", stats.UpsertBatches+stats.DeleteBatches,
		)
	}

	result.Success = true
	logger.Info("sync finished",
		"new", result.NewRecordsCount,
		"deleted", result.DeletedRecordsCount,
		"total", result.TotalRecordsCount,
	)
	return result, nil
}

func (s *Syncer) discoverer(logger *slog.Logger) *Discoverer {
	d := *s.Discoverer
	if d.Logger == nil {
		d.Logger = logger
	}
	return &d
}

// crawl fetches and extracts every page of plan and returns the sections in
// plan order, plus the pages skipped under SkipFailedPages.
func (s *Syncer) crawl(ctx context.Context, plan []string, logger *slog.Logger) ([]*docindex.Section, []string, error) {
	total := len(plan)
	s.progress(ProgressEvent{Type: ProgressStarted, Total: total})

	results := make([]pageResult, total)
	var completed atomic.Int64

	report := func(r pageResult) {
		n := int(completed.Add(1))
		if r.err != nil {
			s.progress(ProgressEvent{Type: ProgressFailed, Completed: n, Total: total, URL: r.url, Error: r.err})
			return
		}
		s.progress(ProgressEvent{Type: ProgressCompleted, Completed: n, Total: total, URL: r.url, Sections: len(r.sections)})
	}

	concurrency := s.Concurrency
	if concurrency <= 1 {
		for i, u := range plan {
			r := s.processPage(ctx, i, u, logger)
			report(r)
			if r.err != nil && s.FailurePolicy == AbortOnFailure {
				return nil, nil, r.err
			}
			results[i] = r
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i, u := range plan {
			g.Go(func() error {
				r := s.processPage(gctx, i, u, logger)
				report(r)
				results[i] = r
				if r.err != nil && s.FailurePolicy == AbortOnFailure {
					return r.err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	var sections []*docindex.Section
	var skipped []string
	for _, r := range results {
		if r.err != nil {
			logger.Warn("page skipped", "url", r.url, "err", r.err)
			skipped = append(skipped, r.url)
			continue
		}
		sections = append(sections, r.sections...)
	}

	s.progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	return sections, skipped, nil
}

// processPage fetches and extracts a single page.
func (s *Syncer) processPage(ctx context.Context, position int, pageURL string, logger *slog.Logger) pageResult {
	result := pageResult{position: position, url: pageURL}

	if s.RateLimiter != nil {
		if err := s.RateLimiter.Wait(ctx, hostOf(pageURL)); err != nil {
			result.err = err
			return result
		}
	}

	onRetry := func(u string, attempt int, err error) {
		logger.Debug("retrying fetch", "url", u, "attempt", attempt, "err", err)
	}
	html, err := FetchWithRetry(ctx, pageURL, s.Fetcher.Fetch, s.RetryDelays, onRetry)
	if err != nil {
		if docindex.ErrorCode(err) != docindex.EFETCH && ctx.Err() == nil {
			err = docindex.Wrapf(docindex.EFETCH, err, "fetching %s", pageURL)
		}
		result.err = err
		return result
	}

	sections, err := s.Extractor.Extract(html, pageURL)
	if err != nil {
		result.err = docindex.Wrapf(docindex.EFETCH, err, "extracting sections from %s", pageURL)
		return result
	}
	for _, section := range sections {
		if err := section.Validate(); err != nil {
			result.err = docindex.Wrapf(docindex.EFETCH, err, "extracting sections from %s", pageURL)
			return result
		}
	}

	logger.Debug("page crawled", "url", pageURL, "sections", len(sections))
	result.sections = sections
	return result
}

func (s *Syncer) progress(event ProgressEvent) {
	if s.Progress != nil {
		s.Progress(event)
	}
}

func validateBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return docindex.Errorf(docindex.EINVALID, "documentation URL must be an absolute http(s) URL, got %q", baseURL)
	}
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
