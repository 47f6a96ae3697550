package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fwojciec/docindex"
)

// Compile-time interface verification.
var _ docindex.SearchIndex = (*SearchIndex)(nil)

// SearchIndex implements docindex.SearchIndex on a local SQLite database.
// Range cursors are the id of the last entry on the previous page.
type SearchIndex struct {
	db   *DB
	name string
}

// NewSearchIndex returns the index called name stored in db.
func NewSearchIndex(db *DB, name string) *SearchIndex {
	return &SearchIndex{db: db, name: name}
}

// Upsert inserts records, replacing existing rows with the same id. A row
// whose content hash and descriptive fields already match is not rewritten
// and keeps its original crawled_at.
func (s *SearchIndex) Upsert(ctx context.Context, records []*docindex.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return docindex.Wrapf(docindex.ESYNC, err, "beginning upsert")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (index_name, id, title, content, url, path, content_length, crawled_at, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (index_name, id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			url = excluded.url,
			path = excluded.path,
			content_length = excluded.content_length,
			crawled_at = excluded.crawled_at,
			content_hash = excluded.content_hash
		WHERE records.content_hash <> excluded.content_hash
			OR records.title <> excluded.title
			OR records.url <> excluded.url
			OR records.path <> excluded.path
	`)
	if err != nil {
		return docindex.Wrapf(docindex.ESYNC, err, "preparing upsert")
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			return docindex.Errorf(docindex.EINVALID, "record id required")
		}
		if _, err := stmt.ExecContext(ctx,
			s.name, r.ID, r.Content.Title, r.Content.FullContent,
			r.Metadata.URL, r.Metadata.Path, r.Metadata.ContentLength, r.Metadata.CrawledAt,
			hashContent(r.Content.FullContent),
		); err != nil {
			return docindex.Wrapf(docindex.ESYNC, err, "upserting record %s", r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return docindex.Wrapf(docindex.ESYNC, err, "committing upsert")
	}
	return nil
}

// Delete removes records by id. Unknown ids are ignored.
func (s *SearchIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, s.name)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE index_name = ? AND id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return docindex.Wrapf(docindex.ESYNC, err, "deleting %d records", len(ids))
	}
	return nil
}

// Range returns up to req.Limit entries ordered by id, starting after
// req.Cursor. docindex.InitialCursor and the empty string start from the
// beginning.
func (s *SearchIndex) Range(ctx context.Context, req docindex.RangeRequest) (*docindex.RangeResult, error) {
	after := req.Cursor
	if after == docindex.InitialCursor {
		after = ""
	}
	limit := req.Limit
	if limit <= 0 {
		limit = docindex.RangeLimit
	}

	// One extra row tells whether another page follows.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM records
		WHERE index_name = ? AND id > ? AND id LIKE ? ESCAPE '\'
		ORDER BY id
		LIMIT ?
	`, s.name, after, likePrefix(req.Prefix), limit+1)
	if err != nil {
		return nil, docindex.Wrapf(docindex.ESYNC, err, "listing records")
	}
	defer rows.Close()

	result := &docindex.RangeResult{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, docindex.Wrapf(docindex.ESYNC, err, "scanning record id")
		}
		result.Documents = append(result.Documents, docindex.RemoteEntry{ID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, docindex.Wrapf(docindex.ESYNC, err, "listing records")
	}

	if len(result.Documents) > limit {
		result.Documents = result.Documents[:limit]
		result.NextCursor = result.Documents[limit-1].ID
	}
	return result, nil
}

// FindRecordByID returns the stored record with the given id.
func (s *SearchIndex) FindRecordByID(ctx context.Context, id string) (*docindex.Record, error) {
	var r docindex.Record
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, url, path, content_length, crawled_at
		FROM records
		WHERE index_name = ? AND id = ?
	`, s.name, id).Scan(&r.ID, &r.Content.Title, &r.Content.FullContent,
		&r.Metadata.URL, &r.Metadata.Path, &r.Metadata.ContentLength, &r.Metadata.CrawledAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, docindex.Errorf(docindex.ENOTFOUND, "record %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ContentHash returns the stored xxHash of a record's content, or
// ENOTFOUND.
func (s *SearchIndex) ContentHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT content_hash FROM records WHERE index_name = ? AND id = ?", s.name, id,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", docindex.Errorf(docindex.ENOTFOUND, "record %s not found", id)
	}
	return hash, err
}

// Count returns the number of records in the index.
func (s *SearchIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE index_name = ?", s.name).Scan(&n)
	return n, err
}
