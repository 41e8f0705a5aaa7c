// Package content implements the engines that synthesize file bytes on
// demand. Nothing is stored: the fill engine repeats one byte, and the
// synthetic engine slices deterministic pseudorandom blocks out of a pool
// generated once at startup. Both satisfy types.ContentEngine and are safe
// for concurrent use; both treat identical arguments as a promise of
// identical output.
package content

import (
	"bytes"

	"github.com/jsonfs/jsonfs/pkg/types"
)

// cachedReadSizes are the read lengths the kernel asks for constantly.
// Buffers for these are built once so the hot path never allocates.
var cachedReadSizes = []int64{4096, 8192, 16384}

// FillEngine serves every byte of every file as one configured character.
type FillEngine struct {
	fill   byte
	cached map[int64][]byte
}

var _ types.ContentEngine = (*FillEngine)(nil)

// NewFillEngine creates a constant-fill engine and pre-builds buffers for
// the common read sizes.
func NewFillEngine(fill byte) *FillEngine {
	e := &FillEngine{
		fill:   fill,
		cached: make(map[int64][]byte, len(cachedReadSizes)),
	}
	for _, size := range cachedReadSizes {
		e.cached[size] = bytes.Repeat([]byte{fill}, int(size))
	}
	return e
}

// ReadAt returns length bytes of the fill character. The offset and path
// are irrelevant for constant fill. Returned slices may be shared; callers
// must not mutate them.
func (e *FillEngine) ReadAt(path string, offset, length int64) []byte {
	if length <= 0 {
		return nil
	}
	if buf, ok := e.cached[length]; ok {
		return buf
	}
	return bytes.Repeat([]byte{e.fill}, int(length))
}
