package hattrie

import "github.com/jaiminpan/hattrie/ahtable"

// burst replaces the AHT leaf at slot with a branch node, redistributing
// every record in leaf into the branch's value slot (for a zero-length
// suffix) or a new per-byte child leaf (for a non-empty suffix), per
// spec §4.2.4. It preserves the total key set and every value exactly;
// it does not touch t.size, since burst only ever reshapes storage for
// keys that are already counted.
func (t *Trie) burst(slot *node, leaf *ahtable.Table) {
	nb := &branchNode{}

	it := leaf.NewIterator(false)
	for it.Next() {
		suffix := it.Key()
		v := it.Value().Load()
		if len(suffix) == 0 {
			nb.hasValue = true
			nb.value = v
			continue
		}
		b := suffix[0]
		child, _ := nb.children[b].(*ahtable.Table)
		if child == nil {
			child = ahtable.New()
			child.AcceptsEmpty = true
			nb.children[b] = child
		}
		child.Get(suffix[1:]).Store(v)
	}

	*slot = nb
}
