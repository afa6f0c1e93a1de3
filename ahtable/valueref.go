package ahtable

import "encoding/binary"

// ValueRef is a handle to one record's value cell — the "&V" of the
// abstract spec signatures. It is implemented both by this package's own
// sliceRef (a value embedded in an AHT record) and, in the sibling
// hattrie package, by a handle onto a branch node's value slot, since
// spec §4.2.2 allows either site to be the terminator for a given key.
//
// A ValueRef is stable only until the next mutating call on the
// structure that produced it (Table.Get/Table.Del for a sliceRef, or any
// Trie mutation for a branch-node ref); see the package doc.
type ValueRef interface {
	Load() uint64
	Store(v uint64)
	Add(delta uint64) uint64
}

// sliceRef is a ValueRef backed by the valueSize bytes of an AHT record,
// living directly inside a bucket's slot region.
type sliceRef struct {
	buf []byte // exactly valueSize bytes
}

func (r sliceRef) Load() uint64 { return binary.LittleEndian.Uint64(r.buf) }

func (r sliceRef) Store(v uint64) { binary.LittleEndian.PutUint64(r.buf, v) }

func (r sliceRef) Add(delta uint64) uint64 {
	v := r.Load() + delta
	r.Store(v)
	return v
}
