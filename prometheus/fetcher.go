package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure InstrumentedFetcher implements docindex.Fetcher.
var _ docindex.Fetcher = (*InstrumentedFetcher)(nil)

// InstrumentedFetcher counts and times the fetches of the wrapped Fetcher.
type InstrumentedFetcher struct {
	next    docindex.Fetcher
	metrics *Metrics
}

// NewInstrumentedFetcher creates a new InstrumentedFetcher.
func NewInstrumentedFetcher(next docindex.Fetcher, metrics *Metrics) *InstrumentedFetcher {
	return &InstrumentedFetcher{next: next, metrics: metrics}
}

// Fetch delegates to the wrapped fetcher and records the attempt.
func (f *InstrumentedFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.metrics.fetchDuration.Observe(time.Since(begin).Seconds())
		f.metrics.fetches.WithLabelValues(resultLabel(err)).Inc()
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *InstrumentedFetcher) Close() error {
	return f.next.Close()
}
