package docindex

import (
	"context"
	"time"
	"unicode/utf8"
)

// Index paging and batching limits.
const (
	// RangeLimit is the number of entries requested per Range call.
	RangeLimit = 100

	// BatchSize is the number of records or IDs sent per Upsert/Delete call.
	BatchSize = 100

	// MaxContentLength caps the stored fullContent payload, in characters.
	MaxContentLength = 1200

	// InitialCursor starts a Range listing from the beginning.
	InitialCursor = "0"
)

// Record is a section as stored in the search index.
type Record struct {
	ID       string         `json:"id"`
	Content  RecordContent  `json:"content"`
	Metadata RecordMetadata `json:"metadata"`
}

// RecordContent is the searchable part of a record.
type RecordContent struct {
	Title       string `json:"title"`
	FullContent string `json:"fullContent"`
}

// RecordMetadata describes where a record came from.
type RecordMetadata struct {
	URL           string `json:"url"`
	Path          string `json:"path"`
	ContentLength int    `json:"contentLength"`
	CrawledAt     string `json:"crawledAt"`
}

// NewRecord builds the index record for s. The record ID is the section
// fingerprint and the stored content is truncated to MaxContentLength.
func NewRecord(s *Section, crawledAt time.Time) *Record {
	return &Record{
		ID: Fingerprint(s),
		Content: RecordContent{
			Title:       s.Title,
			FullContent: Truncate(s.Content, MaxContentLength),
		},
		Metadata: RecordMetadata{
			URL:           s.URL,
			Path:          s.Path,
			ContentLength: utf8.RuneCountInString(s.Content),
			CrawledAt:     FormatTimestamp(crawledAt),
		},
	}
}

// Truncate returns the first n characters of s. Strings of n characters or
// fewer are returned unchanged.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// FormatTimestamp formats t as an RFC 3339 UTC timestamp with millisecond
// precision, e.g. "2024-05-01T12:00:00.000Z".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// RemoteEntry is a record as observed through a Range listing. Only the ID
// is inspected by the pipeline.
type RemoteEntry struct {
	ID string `json:"id"`
}

// RangeRequest asks for a page of index entries.
type RangeRequest struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
	Prefix string `json:"prefix"`
}

// RangeResult is one page of a Range listing. An empty NextCursor marks the
// last page.
type RangeResult struct {
	Documents  []RemoteEntry `json:"documents"`
	NextCursor string        `json:"nextCursor"`
}

// SearchIndex is the narrow contract the pipeline needs from a search index.
type SearchIndex interface {
	// Upsert inserts or replaces records by ID.
	Upsert(ctx context.Context, records []*Record) error

	// Delete removes records by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Range returns a page of entries starting at req.Cursor.
	Range(ctx context.Context, req RangeRequest) (*RangeResult, error)
}
