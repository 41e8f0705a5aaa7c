package tree

import "testing"

func TestBuildIndex(t *testing.T) {
	root, err := Parse([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	idx := BuildIndex(root)

	t.Run("root key is the empty string", func(t *testing.T) {
		node, ok := idx.Lookup("")
		if !ok {
			t.Fatal("root not indexed")
		}
		if node != root {
			t.Error("root key should resolve to the root node")
		}
	})

	t.Run("every node is addressable", func(t *testing.T) {
		keys := []string{"", "a.txt", "dir1", "dir1/b.bin", "dir1/c.bin", "empty"}
		for _, key := range keys {
			if _, ok := idx.Lookup(key); !ok {
				t.Errorf("key %q not indexed", key)
			}
		}
		if idx.Len() != len(keys) {
			t.Errorf("indexed %d nodes, want %d", idx.Len(), len(keys))
		}
	})

	t.Run("lookup is exact match only", func(t *testing.T) {
		for _, key := range []string{"/a.txt", "dir1/", "dir", "dir1/b", "a.txt/"} {
			if _, ok := idx.Lookup(key); ok {
				t.Errorf("key %q should not resolve", key)
			}
		}
	})

	t.Run("totals aggregate the declared tree", func(t *testing.T) {
		totals := idx.Totals()
		if totals.Files != 3 {
			t.Errorf("files = %d, want 3", totals.Files)
		}
		if totals.Dirs != 3 {
			t.Errorf("dirs = %d, want 3", totals.Dirs)
		}
		if totals.TotalBytes != 10+1048576 {
			t.Errorf("total bytes = %d, want %d", totals.TotalBytes, 10+1048576)
		}
	})
}

func TestBuildIndexWithMarkers(t *testing.T) {
	root, err := Parse([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	AddMacOSMarkers(root)
	idx := BuildIndex(root)

	for _, name := range MacOSMarkerNames {
		node, ok := idx.Lookup(name)
		if !ok {
			t.Errorf("marker %q not indexed", name)
			continue
		}
		if node.Size != 0 {
			t.Errorf("marker %q size = %d, want 0", name, node.Size)
		}
	}

	// Markers count toward the file totals statfs reports
	if got := idx.Totals().Files; got != 6 {
		t.Errorf("files = %d, want 6", got)
	}
}
