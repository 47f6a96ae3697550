package crawl_test

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/mock"
)

// memoryIndex is an in-memory docindex.SearchIndex that records the calls
// it receives.
type memoryIndex struct {
	*mock.SearchIndex

	mu          sync.Mutex
	records     map[string]*docindex.Record
	order       []string
	upsertCalls [][]*docindex.Record
	deleteCalls [][]string
	rangeCalls  int
}

func newMemoryIndex(ids ...string) *memoryIndex {
	m := &memoryIndex{records: make(map[string]*docindex.Record)}
	for _, id := range ids {
		m.put(&docindex.Record{ID: id})
	}
	m.SearchIndex = &mock.SearchIndex{
		UpsertFn: func(_ context.Context, records []*docindex.Record) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.upsertCalls = append(m.upsertCalls, records)
			for _, r := range records {
				m.put(r)
			}
			return nil
		},
		DeleteFn: func(_ context.Context, ids []string) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.deleteCalls = append(m.deleteCalls, ids)
			for _, id := range ids {
				delete(m.records, id)
				m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
			}
			return nil
		},
		RangeFn: func(_ context.Context, req docindex.RangeRequest) (*docindex.RangeResult, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.rangeCalls++
			start, err := strconv.Atoi(req.Cursor)
			if err != nil {
				return nil, err
			}
			end := min(start+req.Limit, len(m.order))
			result := &docindex.RangeResult{}
			for _, id := range m.order[start:end] {
				result.Documents = append(result.Documents, docindex.RemoteEntry{ID: id})
			}
			if end < len(m.order) {
				result.NextCursor = strconv.Itoa(end)
			}
			return result, nil
		},
	}
	return m
}

// put must be called with mu held or before the index is shared.
func (m *memoryIndex) put(r *docindex.Record) {
	if _, ok := m.records[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	m.records[r.ID] = r
}

func (m *memoryIndex) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

func (m *memoryIndex) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upsertCalls) + len(m.deleteCalls)
}
