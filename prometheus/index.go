package prometheus

import (
	"context"

	"github.com/fwojciec/docindex"
)

// Ensure InstrumentedSearchIndex implements docindex.SearchIndex.
var _ docindex.SearchIndex = (*InstrumentedSearchIndex)(nil)

// InstrumentedSearchIndex counts the requests and documents passing through
// the wrapped SearchIndex.
type InstrumentedSearchIndex struct {
	next    docindex.SearchIndex
	metrics *Metrics
}

// NewInstrumentedSearchIndex creates a new InstrumentedSearchIndex.
func NewInstrumentedSearchIndex(next docindex.SearchIndex, metrics *Metrics) *InstrumentedSearchIndex {
	return &InstrumentedSearchIndex{next: next, metrics: metrics}
}

// Upsert delegates to the wrapped index and records the request.
func (s *InstrumentedSearchIndex) Upsert(ctx context.Context, records []*docindex.Record) error {
	err := s.next.Upsert(ctx, records)
	s.observe("upsert", len(records), err)
	return err
}

// Delete delegates to the wrapped index and records the request.
func (s *InstrumentedSearchIndex) Delete(ctx context.Context, ids []string) error {
	err := s.next.Delete(ctx, ids)
	s.observe("delete", len(ids), err)
	return err
}

// Range delegates to the wrapped index and records the request.
func (s *InstrumentedSearchIndex) Range(ctx context.Context, req docindex.RangeRequest) (*docindex.RangeResult, error) {
	result, err := s.next.Range(ctx, req)
	n := 0
	if result != nil {
		n = len(result.Documents)
	}
	s.observe("range", n, err)
	return result, err
}

// observe counts documents only for successful requests.
func (s *InstrumentedSearchIndex) observe(op string, n int, err error) {
	s.metrics.indexOps.WithLabelValues(op, resultLabel(err)).Inc()
	if err == nil {
		s.metrics.indexDocuments.WithLabelValues(op).Add(float64(n))
	}
}
