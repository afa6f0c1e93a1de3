// Package ahtable implements the array hash table (AHT): an
// open-addressed-by-bucket hash table whose buckets each own a single
// packed byte "slot region" holding length-prefixed (key, value) records
// contiguously in memory, rather than a linked list of individually
// allocated entries. It is the leaf container of the hat-trie in the
// sibling hattrie package, but is usable on its own as a flat
// byte-string-to-uint64 map.
//
// A Table is not safe for concurrent use. Get may reallocate a bucket's
// slot region, or the whole bucket array on resize, and Del shifts the
// later records of a bucket down in place; either invalidates every
// ValueRef previously handed out by this Table. Callers
// that need a value beyond the next mutating call must read it out with
// Load immediately.
package ahtable

import "bytes"

const (
	// DefaultBuckets is the initial bucket count for a freshly created
	// Table. Must be a power of two.
	DefaultBuckets = 16

	// DefaultMaxLoadFactor is the load factor (n_records / n_buckets)
	// above which a Table doubles its bucket count and rehashes.
	DefaultMaxLoadFactor = 1.0
)

// Table is an array hash table mapping byte-string keys (including the
// empty key and keys containing NUL bytes) to uint64 values.
type Table struct {
	buckets       [][]byte // one packed slot region per bucket; nil means empty
	nRecords      int
	maxLoadFactor float64
	seed          uint64

	// AcceptsEmpty records whether this table is being used as a hat-trie
	// leaf standing in for keys that end exactly at the parent trie
	// position (spec §4.2.2). It has no effect on the Table's own
	// behavior — a Table always accepts a zero-length key — it is purely
	// metadata: the hattrie package sets it on the tables it creates, and
	// nothing in this module reads it back.
	AcceptsEmpty bool
}

// New creates an empty Table with an unseeded (zero-seed) hash function.
func New() *Table {
	return NewSeeded(0)
}

// NewSeeded creates an empty Table whose bucket hash is folded with seed.
// Two tables constructed with different seeds will in general place the
// same key in different buckets; a single Table always uses the same seed
// for its whole lifetime, satisfying the "same hash used during insert,
// lookup and resize" requirement.
func NewSeeded(seed uint64) *Table {
	return &Table{
		buckets:       make([][]byte, DefaultBuckets),
		maxLoadFactor: DefaultMaxLoadFactor,
		seed:          seed,
	}
}

// Len returns the total number of records stored across all buckets.
func (t *Table) Len() int { return t.nRecords }

// NBuckets returns the current bucket count (always a power of two).
func (t *Table) NBuckets() int { return len(t.buckets) }

func (t *Table) bucketIndex(key []byte, nBuckets int) int {
	return int(hash(key, t.seed)) & (nBuckets - 1)
}

// Get returns the value cell for key, creating a zero-valued record for it
// if it is not already present. The returned ValueRef is stable until the
// next mutating call on this Table.
func (t *Table) Get(key []byte) ValueRef {
	if ref, ok := t.TryGet(key); ok {
		return ref
	}
	bi := t.bucketIndex(key, len(t.buckets))
	t.buckets[bi] = appendRecord(t.buckets[bi], key, 0)
	t.nRecords++

	if float64(t.nRecords) > float64(len(t.buckets))*t.maxLoadFactor {
		t.resize()
		bi = t.bucketIndex(key, len(t.buckets))
	}
	// The record we just appended (value 0) is, by construction, the only
	// one matching key in its bucket; re-scan rather than trust the
	// pre-resize offset, since resize may have moved it.
	ref, _ := t.tryGetInBucket(bi, key)
	return ref
}

// TryGet returns the value cell for key without creating it. ok is false
// if key is not present.
func (t *Table) TryGet(key []byte) (ref ValueRef, ok bool) {
	bi := t.bucketIndex(key, len(t.buckets))
	return t.tryGetInBucket(bi, key)
}

func (t *Table) tryGetInBucket(bi int, key []byte) (ValueRef, bool) {
	buf := t.buckets[bi]
	pos := 0
	for pos < len(buf) {
		k, valOff, recLen, ok := decodeRecord(buf, pos)
		if !ok {
			break
		}
		if bytes.Equal(k, key) {
			return sliceRef{buf: t.buckets[bi][valOff : valOff+valueSize]}, true
		}
		pos += recLen
	}
	return nil, false
}

// Del removes key's record, compacting the rest of its bucket's slot
// region down to fill the gap. It reports whether key was present. Del
// never shrinks the bucket array.
func (t *Table) Del(key []byte) bool {
	bi := t.bucketIndex(key, len(t.buckets))
	buf := t.buckets[bi]
	pos := 0
	for pos < len(buf) {
		k, _, recLen, ok := decodeRecord(buf, pos)
		if !ok {
			break
		}
		if bytes.Equal(k, key) {
			copy(buf[pos:], buf[pos+recLen:])
			t.buckets[bi] = buf[:len(buf)-recLen]
			t.nRecords--
			return true
		}
		pos += recLen
	}
	return false
}

// resize doubles the bucket count and rehashes every record into the new
// bucket array. All previously returned ValueRefs into this Table become
// invalid once resize runs, per the pointer-stability contract in §5.
func (t *Table) resize() {
	newBuckets := make([][]byte, len(t.buckets)*2)
	for _, buf := range t.buckets {
		pos := 0
		for pos < len(buf) {
			k, valOff, recLen, ok := decodeRecord(buf, pos)
			if !ok {
				break
			}
			bi := t.bucketIndex(k, len(newBuckets))
			newBuckets[bi] = appendRecordBytes(newBuckets[bi], k, buf[valOff:valOff+valueSize])
			pos += recLen
		}
	}
	t.buckets = newBuckets
}

// Sizeof returns a best-effort estimate, in bytes, of the memory retained
// by this Table: the struct itself plus the capacity (not just the used
// length) of every bucket's slot region, mirroring real allocator
// over-provisioning the way the reference ht_sizeof diagnostic intends.
func (t *Table) Sizeof() uintptr {
	const tableOverhead = 64 // struct fields + slice header for buckets
	total := uintptr(tableOverhead)
	for _, b := range t.buckets {
		total += uintptr(cap(b))
	}
	return total
}

