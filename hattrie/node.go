// Package hattrie implements the hybrid trie (HT): a 256-way burst trie
// whose leaves are array hash tables (see the sibling ahtable package),
// giving ordered-iteration and cache-friendly small-key-set behavior that
// a pure trie or a pure hash table cannot offer alone.
//
// A Trie is not safe for concurrent use; see the pointer-stability notes
// on Trie, Trie.Get and Iterator. Prefix iteration is not provided.
package hattrie

import "github.com/jaiminpan/hattrie/ahtable"

// node is the tagged reference described in the design notes: every
// child slot in a branchNode, and the Trie's own root field, holds one
// of exactly two concrete types. A Go type switch gives the constant-time
// dispatch the design calls for without needing pointer-bit tagging.
type node any

// branchNode is an interior trie node: a 256-entry dispatch table on a
// single byte, plus a value slot for keys that terminate exactly at this
// depth.
type branchNode struct {
	children [256]node
	hasValue bool
	value    uint64
}

// branchValueRef is a ValueRef onto a branchNode's own value slot — the
// other of the two terminator sites described in the design (the AHT
// leaf's zero-length-suffix record being the first). It satisfies
// ahtable.ValueRef structurally; hattrie depends on ahtable, not the
// other way around, so no import cycle is needed.
type branchValueRef struct {
	n *branchNode
}

func (r branchValueRef) Load() uint64 { return r.n.value }

func (r branchValueRef) Store(v uint64) { r.n.value = v }

func (r branchValueRef) Add(delta uint64) uint64 {
	r.n.value += delta
	return r.n.value
}

var _ ahtable.ValueRef = branchValueRef{}
