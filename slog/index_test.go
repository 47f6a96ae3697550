package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/mock"
	dislog "github.com/fwojciec/docindex/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSearchIndex(t *testing.T) {
	t.Parallel()

	t.Run("logs upsert count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SearchIndex{
			UpsertFn: func(_ context.Context, _ []*docindex.Record) error { return nil },
		}

		err := dislog.NewLoggingSearchIndex(inner, logger).Upsert(context.Background(), []*docindex.Record{{ID: "a"}, {ID: "b"}})

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "index upsert")
		assert.Contains(t, output, "count=2")
	})

	t.Run("logs delete failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SearchIndex{
			DeleteFn: func(_ context.Context, _ []string) error { return errors.New("forbidden") },
		}

		err := dislog.NewLoggingSearchIndex(inner, logger).Delete(context.Background(), []string{"a"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "index delete")
		assert.Contains(t, output, "err=forbidden")
	})

	t.Run("logs range pages at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.SearchIndex{
			RangeFn: func(_ context.Context, _ docindex.RangeRequest) (*docindex.RangeResult, error) {
				return &docindex.RangeResult{Documents: []docindex.RemoteEntry{{ID: "a"}}, NextCursor: "1"}, nil
			},
		}

		result, err := dislog.NewLoggingSearchIndex(inner, logger).Range(context.Background(), docindex.RangeRequest{Cursor: "0", Limit: 100})

		require.NoError(t, err)
		assert.Len(t, result.Documents, 1)
		output := buf.String()
		assert.Contains(t, output, "index range")
		assert.Contains(t, output, "cursor=0")
		assert.Contains(t, output, "next=1")
		assert.Contains(t, output, "count=1")
	})
}
