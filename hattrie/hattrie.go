package hattrie

import "github.com/jaiminpan/hattrie/ahtable"

// DefaultBurstThreshold is the maximum number of records an AHT leaf may
// hold before the trie bursts it into a branch node with per-byte child
// leaves.
const DefaultBurstThreshold = 16384

// Trie is a hybrid burst trie: an ordered byte-string-to-uint64
// container combining a 256-way branch trie with array-hash-table
// leaves. The zero value is not usable; construct with New.
//
// A Trie is not safe for concurrent use. Any Get or Del may reallocate
// an AHT leaf's slot region, its bucket array, or burst a leaf into a
// branch node, invalidating every ValueRef previously handed out by this
// Trie. Callers that need a value beyond the next mutating call must
// read it out with Load immediately.
type Trie struct {
	root           node
	size           int
	burstThreshold int
}

// Option configures a Trie at construction time.
type Option func(*Trie)

// WithBurstThreshold overrides the default maximum AHT leaf size before
// bursting. n must be positive.
func WithBurstThreshold(n int) Option {
	return func(t *Trie) { t.burstThreshold = n }
}

// New creates an empty Trie.
func New(opts ...Option) *Trie {
	t := &Trie{burstThreshold: DefaultBurstThreshold}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Size returns the number of distinct keys currently stored.
func (t *Trie) Size() int { return t.size }

// Get returns the value cell for key, creating a zero-valued entry for
// it if it is not already present, incrementing Size in that case. The
// returned ValueRef is stable only until the next mutating call on this
// Trie.
func (t *Trie) Get(key []byte) ahtable.ValueRef {
	ref, _ := t.getAt(&t.root, key, true)
	return ref
}

// TryGet returns the value cell for key without creating it. ok is
// false if key is not present.
func (t *Trie) TryGet(key []byte) (ref ahtable.ValueRef, ok bool) {
	return t.getAt(&t.root, key, false)
}

// getAt descends through slot for the remaining key suffix, creating
// branch/leaf structure along the way if create is true. key is already
// the suffix relative to slot's depth: each branch-node step below
// consumes exactly one byte before recursing.
func (t *Trie) getAt(slot *node, key []byte, create bool) (ahtable.ValueRef, bool) {
	if *slot == nil {
		if !create {
			return nil, false
		}
		leaf := ahtable.New()
		leaf.AcceptsEmpty = true
		*slot = leaf
	}

	switch n := (*slot).(type) {
	case *ahtable.Table:
		if !create {
			return n.TryGet(key)
		}
		_, existed := n.TryGet(key)
		ref := n.Get(key)
		if !existed {
			t.size++
			if n.Len() > t.burstThreshold {
				t.burst(slot, n)
				// The leaf is gone; re-descend through the fresh branch
				// structure to hand back a ref that actually aliases the
				// new storage rather than the abandoned leaf.
				return t.getAt(slot, key, false)
			}
		}
		return ref, true

	case *branchNode:
		if len(key) == 0 {
			if !n.hasValue {
				if !create {
					return nil, false
				}
				n.hasValue = true
				t.size++
			}
			return branchValueRef{n}, true
		}
		return t.getAt(&n.children[key[0]], key[1:], create)

	default:
		panic("hattrie: invalid node type")
	}
}

// Del removes key's entry, reporting whether it was present. It does
// not collapse branch nodes whose population has fallen to one child,
// nor does it shrink AHT leaves — matching the reference's
// never-shrinks design trade (see DESIGN.md).
func (t *Trie) Del(key []byte) bool {
	ok := t.delAt(&t.root, key)
	if ok {
		t.size--
	}
	return ok
}

func (t *Trie) delAt(slot *node, key []byte) bool {
	if *slot == nil {
		return false
	}
	switch n := (*slot).(type) {
	case *ahtable.Table:
		return n.Del(key)
	case *branchNode:
		if len(key) == 0 {
			if !n.hasValue {
				return false
			}
			n.hasValue = false
			n.value = 0
			return true
		}
		return t.delAt(&n.children[key[0]], key[1:])
	default:
		panic("hattrie: invalid node type")
	}
}

// Sizeof returns a best-effort estimate, in bytes, of the memory
// retained by this Trie: every branch node's fixed overhead plus every
// leaf's own Sizeof. It is a diagnostic only, per spec §6.
func (t *Trie) Sizeof() uintptr {
	return sizeofNode(t.root)
}

func sizeofNode(n node) uintptr {
	switch n := n.(type) {
	case nil:
		return 0
	case *ahtable.Table:
		return n.Sizeof()
	case *branchNode:
		const branchOverhead = 256*16 + 16 // children array of interfaces (2 words each) + hasValue/value
		total := uintptr(branchOverhead)
		for _, c := range n.children {
			total += sizeofNode(c)
		}
		return total
	default:
		panic("hattrie: invalid node type")
	}
}
