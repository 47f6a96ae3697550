package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure LoggingSearchIndex implements docindex.SearchIndex.
var _ docindex.SearchIndex = (*LoggingSearchIndex)(nil)

// LoggingSearchIndex wraps a SearchIndex with logging. Writes are logged at
// info level, range pages at debug level.
type LoggingSearchIndex struct {
	next   docindex.SearchIndex
	logger *slog.Logger
}

// NewLoggingSearchIndex creates a new LoggingSearchIndex.
func NewLoggingSearchIndex(next docindex.SearchIndex, logger *slog.Logger) *LoggingSearchIndex {
	return &LoggingSearchIndex{next: next, logger: logger}
}

// Upsert delegates to the wrapped index and logs the operation.
func (s *LoggingSearchIndex) Upsert(ctx context.Context, records []*docindex.Record) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("index upsert",
			"count", len(records),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Upsert(ctx, records)
}

// Delete delegates to the wrapped index and logs the operation.
func (s *LoggingSearchIndex) Delete(ctx context.Context, ids []string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("index delete",
			"count", len(ids),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Delete(ctx, ids)
}

// Range delegates to the wrapped index and logs the operation.
func (s *LoggingSearchIndex) Range(ctx context.Context, req docindex.RangeRequest) (result *docindex.RangeResult, err error) {
	defer func(begin time.Time) {
		count := 0
		next := ""
		if result != nil {
			count = len(result.Documents)
			next = result.NextCursor
		}
		s.logger.Debug("index range",
			"cursor", req.Cursor,
			"next", next,
			"count", count,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Range(ctx, req)
}
