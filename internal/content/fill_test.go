package content

import (
	"bytes"
	"testing"
)

func TestFillEngine_ReadAt(t *testing.T) {
	engine := NewFillEngine('X')

	tests := []struct {
		name   string
		offset int64
		length int64
	}{
		{name: "small read", offset: 0, length: 10},
		{name: "cached 4096", offset: 0, length: 4096},
		{name: "cached 8192", offset: 4096, length: 8192},
		{name: "cached 16384", offset: 0, length: 16384},
		{name: "uncached odd length", offset: 100, length: 5000},
		{name: "offset is irrelevant", offset: 1 << 40, length: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := engine.ReadAt("any/file.txt", tt.offset, tt.length)
			if int64(len(data)) != tt.length {
				t.Fatalf("len = %d, want %d", len(data), tt.length)
			}
			if !bytes.Equal(data, bytes.Repeat([]byte{'X'}, int(tt.length))) {
				t.Error("data is not all fill bytes")
			}
		})
	}
}

func TestFillEngine_ZeroLength(t *testing.T) {
	engine := NewFillEngine(0)

	if data := engine.ReadAt("a.txt", 0, 0); len(data) != 0 {
		t.Errorf("zero-length read returned %d bytes", len(data))
	}
	if data := engine.ReadAt("a.txt", 50, -3); len(data) != 0 {
		t.Errorf("negative-length read returned %d bytes", len(data))
	}
}

func TestFillEngine_NulByte(t *testing.T) {
	engine := NewFillEngine(0)

	data := engine.ReadAt("a.txt", 0, 4096)
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, b)
		}
	}
}
