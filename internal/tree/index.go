package tree

import "github.com/jsonfs/jsonfs/pkg/types"

// Index maps canonical lookup keys to nodes. The root's key is the empty
// string; every other key is the slash-joined path from the root with no
// leading separator, e.g. "dir1/a.txt". Built once, read-only afterwards,
// safe for concurrent lookups.
type Index struct {
	nodes  map[string]*Node
	totals types.TreeTotals
}

// BuildIndex walks the tree depth-first and registers every node under
// its canonical key, accumulating the totals used by statfs.
func BuildIndex(root *Node) *Index {
	idx := &Index{nodes: make(map[string]*Node)}
	idx.add("", root)
	return idx
}

func (idx *Index) add(key string, node *Node) {
	idx.nodes[key] = node
	switch node.Kind {
	case KindDirectory:
		idx.totals.Dirs++
		for _, child := range node.Children {
			childKey := child.Name
			if key != "" {
				childKey = key + "/" + child.Name
			}
			idx.add(childKey, child)
		}
	case KindFile:
		idx.totals.Files++
		idx.totals.TotalBytes += node.Size
	}
}

// Lookup returns the node stored under the canonical key. Matching is
// exact; no prefix or partial resolution happens here.
func (idx *Index) Lookup(key string) (*Node, bool) {
	node, ok := idx.nodes[key]
	return node, ok
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	return len(idx.nodes)
}

// Totals reports the aggregates gathered during the index walk.
func (idx *Index) Totals() types.TreeTotals {
	return idx.totals
}
