package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/docindex"
)

// ListAllIDs pages through idx with the cursor protocol and returns every
// record id, duplicates removed, in listing order. Paging starts at
// docindex.InitialCursor and stops when the index reports no next cursor.
func ListAllIDs(ctx context.Context, idx docindex.SearchIndex) ([]string, error) {
	seen := make(map[string]bool)
	ids := []string{}

	cursor := docindex.InitialCursor
	for {
		page, err := idx.Range(ctx, docindex.RangeRequest{
			Cursor: cursor,
			Limit:  docindex.RangeLimit,
			Prefix: "",
		})
		if err != nil {
			return nil, docindex.Wrapf(docindex.ESYNC, err, "listing index records")
		}

		for _, doc := range page.Documents {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			ids = append(ids, doc.ID)
		}

		if page.NextCursor == "" || page.NextCursor == cursor {
			return ids, nil
		}
		cursor = page.NextCursor
	}
}

// ApplyStats counts the records written by Apply.
type ApplyStats struct {
	Deleted       int
	Upserted      int
	DeleteBatches int
	UpsertBatches int
}

// ApplyOption configures Apply.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	batchSize int
}

// WithBatchSize overrides docindex.BatchSize.
func WithBatchSize(n int) ApplyOption {
	return func(c *applyConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// Apply writes delta to idx: obsolete ids are deleted first, then new and
// changed sections are upserted, one index call per batch. Every record
// carries the same crawledAt. The first failing batch aborts with ESYNC;
// earlier batches stay applied.
func Apply(ctx context.Context, idx docindex.SearchIndex, delta *docindex.SyncDelta, crawledAt time.Time, opts ...ApplyOption) (*ApplyStats, error) {
	cfg := &applyConfig{batchSize: docindex.BatchSize}
	for _, opt := range opts {
		opt(cfg)
	}

	stats := &ApplyStats{}

	for _, batch := range docindex.Batches(delta.ToDelete, cfg.batchSize) {
		if err := idx.Delete(ctx, batch); err != nil {
			return stats, docindex.Wrapf(docindex.ESYNC, err, "deleting %d records", len(batch))
		}
		stats.Deleted += len(batch)
		stats.DeleteBatches++
	}

	for _, batch := range docindex.Batches(delta.ToUpsert, cfg.batchSize) {
		records := make([]*docindex.Record, len(batch))
		for i, s := range batch {
			records[i] = docindex.NewRecord(s, crawledAt)
		}
		if err := idx.Upsert(ctx, records); err != nil {
			return stats, docindex.Wrapf(docindex.ESYNC, err, "upserting %d records", len(records))
		}
		stats.Upserted += len(records)
		stats.UpsertBatches++
	}

	return stats, nil
}
