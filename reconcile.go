package docindex

// SyncDelta is the set of writes that brings the index in line with a crawl.
type SyncDelta struct {
	// ToUpsert holds crawled sections whose fingerprint is not in the index,
	// in crawl order.
	ToUpsert []*Section

	// ToDelete holds index IDs no crawled section produces, in listing order.
	ToDelete []string
}

// Empty reports whether the delta requires no writes.
func (d *SyncDelta) Empty() bool {
	return len(d.ToUpsert) == 0 && len(d.ToDelete) == 0
}

// Diff reconciles crawled sections against the IDs currently in the index.
// Sections whose fingerprint already exists are left alone, so running Diff
// against an index built from the same crawl yields an empty delta. A
// changed section shows up twice: its new fingerprint in ToUpsert and its
// old one in ToDelete.
//
// Sections that share a fingerprint are upserted once; the first one wins.
// Duplicate remote IDs are deleted once.
func Diff(crawled []*Section, remoteIDs []string) *SyncDelta {
	remote := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		remote[id] = struct{}{}
	}

	delta := &SyncDelta{}
	current := make(map[string]struct{}, len(crawled))
	for _, s := range crawled {
		fp := Fingerprint(s)
		if _, dup := current[fp]; dup {
			continue
		}
		current[fp] = struct{}{}
		if _, ok := remote[fp]; !ok {
			delta.ToUpsert = append(delta.ToUpsert, s)
		}
	}

	deleted := make(map[string]struct{})
	for _, id := range remoteIDs {
		if _, ok := current[id]; ok {
			continue
		}
		if _, dup := deleted[id]; dup {
			continue
		}
		deleted[id] = struct{}{}
		delta.ToDelete = append(delta.ToDelete, id)
	}

	return delta
}

// Batches splits items into consecutive chunks of at most size elements,
// preserving order. It returns nil for an empty input.
func Batches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
