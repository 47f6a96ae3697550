package mock

import (
	"context"

	"github.com/fwojciec/docindex"
)

var _ docindex.SearchIndex = (*SearchIndex)(nil)

// SearchIndex is a mock implementation of docindex.SearchIndex.
type SearchIndex struct {
	UpsertFn func(ctx context.Context, records []*docindex.Record) error
	DeleteFn func(ctx context.Context, ids []string) error
	RangeFn  func(ctx context.Context, req docindex.RangeRequest) (*docindex.RangeResult, error)
}

func (s *SearchIndex) Upsert(ctx context.Context, records []*docindex.Record) error {
	return s.UpsertFn(ctx, records)
}

func (s *SearchIndex) Delete(ctx context.Context, ids []string) error {
	return s.DeleteFn(ctx, ids)
}

func (s *SearchIndex) Range(ctx context.Context, req docindex.RangeRequest) (*docindex.RangeResult, error) {
	return s.RangeFn(ctx, req)
}
