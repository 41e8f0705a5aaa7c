// Package tree holds the declared filesystem shape: the node model parsed
// from a layout document and the path index built over it. The tree is
// constructed once at startup and never mutated afterwards, except for the
// optional marker-file append that runs before indexing.
package tree

import (
	"encoding/json"
	"fmt"

	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
)

// Kind discriminates the two node variants.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node is one entry of the declared tree: a directory with ordered
// children or a file with a declared size. Sizes are declarations only;
// no content of that length exists anywhere.
type Node struct {
	Name     string
	Kind     Kind
	Size     int64
	Children []*Node
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Kind == KindDirectory
}

// MacOSMarkerNames are the zero-size control files appended to the root
// directory to keep Spotlight from crawling the mount.
var MacOSMarkerNames = []string{
	".metadata_never_index",
	".metadata_never_index_unless_rootfs",
	".metadata_direct_scope_only",
}

// AddMacOSMarkers appends the Spotlight suppression markers to the root's
// children. Must run before BuildIndex so the markers are addressable.
func AddMacOSMarkers(root *Node) {
	for _, name := range MacOSMarkerNames {
		root.Children = append(root.Children, &Node{Name: name, Kind: KindFile})
	}
}

// Parse decodes a layout document into its root node. The document is a
// JSON array whose first element is the root directory object; elements
// after the first are ignored. Node objects carry "type" ("directory" or
// "file"), "name", and either "contents" (directories, may be omitted for
// empty) or "size" (files, non-negative integer). A missing root name
// defaults to "/". Any structural defect fails with CONFIGURATION_INVALID
// naming the offending node.
func Parse(data []byte) (*Node, error) {
	var doc []json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, jfserrors.NewInvalidConfigf("layout document must be a JSON array: %v", err)
	}
	if len(doc) == 0 {
		return nil, jfserrors.NewInvalidConfig("layout document is empty")
	}

	root, err := decodeNode(doc[0], "root")
	if err != nil {
		return nil, err
	}
	if root.Kind != KindDirectory {
		return nil, jfserrors.NewInvalidConfig("layout root must be a directory")
	}
	if root.Name == "" {
		root.Name = "/"
	}
	return root, nil
}

// decodeNode decodes a single node object. where identifies the node's
// position in the document for error messages, e.g. "root" or
// "root/dir1/entry 2".
func decodeNode(raw json.RawMessage, where string) (*Node, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, jfserrors.NewInvalidConfigf("layout node %s must be an object", where)
	}

	node := &Node{}

	if nameRaw, ok := obj["name"]; ok {
		if err := json.Unmarshal(nameRaw, &node.Name); err != nil {
			return nil, jfserrors.NewInvalidConfigf("layout node %s name must be a string", where)
		}
	}

	typeRaw, ok := obj["type"]
	if !ok {
		return nil, jfserrors.NewInvalidConfigf("layout node %s is missing a type", where)
	}
	var kind string
	if err := json.Unmarshal(typeRaw, &kind); err != nil {
		return nil, jfserrors.NewInvalidConfigf("layout node %s type must be a string", where)
	}

	switch kind {
	case "directory":
		node.Kind = KindDirectory
		if err := decodeChildren(obj, node, where); err != nil {
			return nil, err
		}
	case "file":
		node.Kind = KindFile
		sizeRaw, ok := obj["size"]
		if !ok {
			return nil, jfserrors.NewInvalidConfigf("layout node %s is missing a size", where)
		}
		if err := json.Unmarshal(sizeRaw, &node.Size); err != nil || node.Size < 0 {
			return nil, jfserrors.NewInvalidConfigf("layout node %s size must be a non-negative integer", where)
		}
	default:
		return nil, jfserrors.NewInvalidConfigf("layout node %s has unsupported type %q", where, kind)
	}

	return node, nil
}

func decodeChildren(obj map[string]json.RawMessage, node *Node, where string) error {
	contentsRaw, ok := obj["contents"]
	if !ok {
		// Directories may omit contents; they are empty.
		return nil
	}

	var children []json.RawMessage
	if err := json.Unmarshal(contentsRaw, &children); err != nil {
		return jfserrors.NewInvalidConfigf("layout node %s contents must be an array", where)
	}

	node.Children = make([]*Node, 0, len(children))
	seen := make(map[string]struct{}, len(children))
	for i, childRaw := range children {
		label := fmt.Sprintf("%s/entry %d", where, i)
		child, err := decodeNode(childRaw, label)
		if err != nil {
			return err
		}
		if child.Name == "" {
			return jfserrors.NewInvalidConfigf("layout node %s is missing a name", label)
		}
		if _, dup := seen[child.Name]; dup {
			return jfserrors.NewInvalidConfigf("layout node %s has duplicate entry %q", where, child.Name)
		}
		seen[child.Name] = struct{}{}
		node.Children = append(node.Children, child)
	}
	return nil
}
