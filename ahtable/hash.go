package ahtable

import "github.com/cespare/xxhash/v2"

// hash computes a seeded, stable 32-bit hash of key for bucket dispatch
// (spec §4.1.1: "any hash with good avalanche and independence from
// trie-depth byte patterns is acceptable"). xxhash.Sum64 supplies the
// avalanche property; XOR-folding the seed into the 64-bit digest after
// hashing, then XOR-folding that down to 32 bits, keeps the result stable
// for a fixed (seed, key) pair across insert, lookup, and resize, which is
// the only hard requirement.
func hash(key []byte, seed uint64) uint32 {
	h := xxhash.Sum64(key)
	if seed != 0 {
		h ^= seed
	}
	return uint32(h) ^ uint32(h>>32)
}
