package hattrie

import (
	"bytes"
	"sort"

	"github.com/jaiminpan/hattrie/ahtable"
)

// Iterator walks a Trie depth-first, either unordered (deterministic for
// a given tree shape but not lexicographic, since AHT leaves hash keys)
// or sorted (branch slots visited 0..255 and each leaf's records sorted
// before yielding, which together give global lexicographic order).
//
// A leaf's records are scattered across many hash buckets, so giving a
// leaf global order takes more than delegating to ahtable.Iterator's own
// sorted mode: that mode only sorts *within* one bucket at a time (the
// AHT's own §4.1.2 contract). To get every record in one leaf into a
// single lexicographic run, the sorted walk instead drains the leaf with
// an unordered ahtable.Iterator and sorts the whole leaf itself before
// yielding any of it.
//
// Use it as:
//
//	it := trie.NewIterator(sorted)
//	for it.Next() {
//	    use(it.Key(), it.Value())
//	}
//
// Key's returned slice is a view onto the iterator's internal key
// buffer and is only valid until the following call to Next; copy it if
// the caller needs to retain it past that point. Mutating the Trie while
// an Iterator is live is undefined behavior.
type Iterator struct {
	sorted bool

	prefix []byte // accumulated path bytes for the node currently being visited
	keyBuf []byte // scratch buffer backing the exposed Key()

	stack []branchFrame

	// leafIt drives unsorted traversal of the current leaf.
	leafIt *ahtable.Iterator

	// leafEntries/leafIdx drive sorted traversal of the current leaf: the
	// whole leaf is drained and sorted up front, then yielded in order.
	leafEntries []leafEntry
	leafIdx     int

	leafPrefixLen int

	curKey []byte
	curVal ahtable.ValueRef
}

// leafEntry is one already-sorted record pulled out of an AHT leaf,
// pending yield by the sorted walk.
type leafEntry struct {
	suffix []byte
	val    ahtable.ValueRef
}

// branchFrame tracks one branch node's traversal state: whether its own
// value slot has been yielded yet, and which byte slot to try next.
type branchFrame struct {
	n          *branchNode
	nextByte   int
	yieldedOwn bool
	prefixLen  int // len(prefix) for the path leading to n
}

// NewIterator creates an Iterator over t's current contents. The root
// node is captured now; subsequent mutation of t is undefined behavior
// for the lifetime of the iterator, per spec §4.2.5.
func (t *Trie) NewIterator(sorted bool) *Iterator {
	it := &Iterator{sorted: sorted}
	switch n := t.root.(type) {
	case nil:
		// empty trie; Next immediately returns false
	case *branchNode:
		it.stack = append(it.stack, branchFrame{n: n, prefixLen: 0})
	case *ahtable.Table:
		it.enterLeaf(n, 0)
	default:
		panic("hattrie: invalid node type")
	}
	return it
}

// enterLeaf begins traversal of an AHT leaf reached at the given prefix
// length: for a sorted walk the leaf is fully drained and sorted now, so
// that Next can simply hand back entries in order; for an unsorted walk
// a plain ahtable.Iterator suffices.
func (it *Iterator) enterLeaf(n *ahtable.Table, prefixLen int) {
	it.leafPrefixLen = prefixLen
	if it.sorted {
		it.leafEntries = sortedLeafEntries(n)
		it.leafIdx = 0
	} else {
		it.leafIt = n.NewIterator(false)
	}
}

// sortedLeafEntries drains every record out of leaf via an unordered
// ahtable.Iterator and sorts the whole batch lexicographically by
// suffix. Since every record in a given leaf shares the same prefix,
// sorting by suffix is equivalent to sorting by full key, which is what
// spec §4.2.5 requires of a leaf's contribution to global sorted order.
func sortedLeafEntries(n *ahtable.Table) []leafEntry {
	entries := make([]leafEntry, 0, n.Len())
	ai := n.NewIterator(false)
	for ai.Next() {
		entries = append(entries, leafEntry{
			suffix: append([]byte(nil), ai.Key()...),
			val:    ai.Value(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].suffix, entries[j].suffix) < 0
	})
	return entries
}

// Next advances the iterator and reports whether an entry is available.
func (it *Iterator) Next() bool {
outer:
	for {
		if it.sorted {
			if it.leafIdx < len(it.leafEntries) {
				e := it.leafEntries[it.leafIdx]
				it.leafIdx++
				it.keyBuf = append(it.keyBuf[:0], it.prefix[:it.leafPrefixLen]...)
				it.keyBuf = append(it.keyBuf, e.suffix...)
				it.curKey = it.keyBuf
				it.curVal = e.val
				return true
			}
			it.leafEntries = nil
		} else if it.leafIt != nil {
			if it.leafIt.Next() {
				it.keyBuf = append(it.keyBuf[:0], it.prefix[:it.leafPrefixLen]...)
				it.keyBuf = append(it.keyBuf, it.leafIt.Key()...)
				it.curKey = it.keyBuf
				it.curVal = it.leafIt.Value()
				return true
			}
			it.leafIt = nil
		}

		if len(it.stack) == 0 {
			return false
		}
		top := &it.stack[len(it.stack)-1]
		it.prefix = it.prefix[:top.prefixLen]

		if !top.yieldedOwn {
			top.yieldedOwn = true
			if top.n.hasValue {
				it.keyBuf = append(it.keyBuf[:0], it.prefix...)
				it.curKey = it.keyBuf
				it.curVal = branchValueRef{top.n}
				return true
			}
			continue
		}

		for top.nextByte < 256 {
			b := top.nextByte
			top.nextByte++
			child := top.n.children[b]
			if child == nil {
				continue
			}
			it.prefix = append(it.prefix, byte(b))
			switch c := child.(type) {
			case *branchNode:
				it.stack = append(it.stack, branchFrame{n: c, prefixLen: len(it.prefix)})
			case *ahtable.Table:
				it.enterLeaf(c, len(it.prefix))
			default:
				panic("hattrie: invalid node type")
			}
			continue outer
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
}

// Key returns the current entry's key. Valid only until the next Next call.
func (it *Iterator) Key() []byte { return it.curKey }

// Value returns the current entry's value handle.
func (it *Iterator) Value() ahtable.ValueRef { return it.curVal }
