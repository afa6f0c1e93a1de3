package ahtable

import (
	"bytes"
	"sort"
)

// Iterator walks a Table's records either in bucket-index order
// (unordered, per spec §4.1.2) or, within each bucket, sorted
// lexicographically by key before being yielded (sorted mode). Use it as:
//
//	it := t.NewIterator(sorted)
//	for it.Next() {
//	    use(it.Key(), it.Value())
//	}
//
// Key's returned slice is only valid until the following call to Next;
// copy it if the caller needs to retain it past that point.
type Iterator struct {
	t      *Table
	sorted bool

	bi int // current bucket index

	// unsorted scan state within the current bucket
	pos int

	// sorted scan state: the current bucket's records, sorted, plus a
	// cursor into them. Rebuilt (and reallocated) once per bucket.
	sortedKeys []sortedEntry
	sortedIdx  int

	curKey []byte
	curVal ValueRef
}

type sortedEntry struct {
	key    []byte
	valOff int
}

// NewIterator creates an Iterator over t. If sorted is true, each
// bucket's records are sorted lexicographically by key before being
// yielded; the only allocation this requires is a transient per-bucket
// index, sized to that bucket's record count, per spec §4.1.2.
func (t *Table) NewIterator(sorted bool) *Iterator {
	return &Iterator{t: t, sorted: sorted, bi: -1}
}

// Next advances the iterator and reports whether a record is available.
func (it *Iterator) Next() bool {
	for {
		if it.sorted {
			if it.sortedIdx < len(it.sortedKeys) {
				e := it.sortedKeys[it.sortedIdx]
				it.sortedIdx++
				it.curKey = e.key
				it.curVal = sliceRef{buf: it.t.buckets[it.bi][e.valOff : e.valOff+valueSize]}
				return true
			}
		} else {
			buf := it.currentBucket()
			if buf != nil && it.pos < len(buf) {
				k, valOff, recLen, ok := decodeRecord(buf, it.pos)
				if !ok {
					// corrupt slot region; stop rather than loop forever
					return false
				}
				it.pos += recLen
				it.curKey = k
				it.curVal = sliceRef{buf: it.t.buckets[it.bi][valOff : valOff+valueSize]}
				return true
			}
		}
		if !it.advanceBucket() {
			return false
		}
	}
}

func (it *Iterator) currentBucket() []byte {
	if it.bi < 0 || it.bi >= len(it.t.buckets) {
		return nil
	}
	return it.t.buckets[it.bi]
}

// advanceBucket moves to the next non-exhausted bucket, preparing either
// the unordered scan cursor or the sorted-records snapshot for it.
// Returns false once every bucket has been visited.
func (it *Iterator) advanceBucket() bool {
	it.bi++
	for it.bi < len(it.t.buckets) {
		buf := it.t.buckets[it.bi]
		if len(buf) == 0 {
			it.bi++
			continue
		}
		if it.sorted {
			it.sortedKeys = decodeSortedBucket(buf)
			it.sortedIdx = 0
			if len(it.sortedKeys) == 0 {
				it.bi++
				continue
			}
		} else {
			it.pos = 0
		}
		return true
	}
	return false
}

func decodeSortedBucket(buf []byte) []sortedEntry {
	var entries []sortedEntry
	pos := 0
	for pos < len(buf) {
		k, valOff, recLen, ok := decodeRecord(buf, pos)
		if !ok {
			break
		}
		entries = append(entries, sortedEntry{key: k, valOff: valOff})
		pos += recLen
	}
	// bytes.Compare already orders lexicographically as unsigned bytes
	// with shorter prefixes first (spec §3.1).
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return entries
}

// Key returns the current record's key. Valid only until the next Next call.
func (it *Iterator) Key() []byte { return it.curKey }

// Value returns the current record's value handle.
func (it *Iterator) Value() ValueRef { return it.curVal }
