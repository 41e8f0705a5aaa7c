package content

import (
	"encoding/binary"
	"io"
	"math/bits"

	"github.com/zeebo/blake3"

	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/types"
)

// SyntheticEngine serves deterministic pseudorandom content. File space is
// divided into fixed-size blocks; each block's bytes are one entry of a
// pool generated once at construction from the seed, selected by hashing
// (path, block index). Repeated reads of the same region return identical
// bytes, across restarts too when the seed matches, yet no per-request
// generation ever happens: a read costs one hash and a slice copy per
// touched block.
type SyntheticEngine struct {
	blockSize int64
	pool      [][]byte
}

var _ types.ContentEngine = (*SyntheticEngine)(nil)

// NewSyntheticEngine generates the content block pool from the seed. The
// pool holds poolBlocks buffers of blockSize bytes each, drawn from a
// blake3 XOF keyed by the seed.
func NewSyntheticEngine(blockSize int64, poolBlocks int, seed int64) (*SyntheticEngine, error) {
	if blockSize <= 0 {
		return nil, jfserrors.NewInvalidConfigf("block size must be a positive integer, got %d", blockSize)
	}
	if poolBlocks <= 0 {
		return nil, jfserrors.NewInvalidConfigf("pool size must be a positive integer, got %d", poolBlocks)
	}

	hasher := blake3.New()
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], uint64(seed))
	if _, err := hasher.Write(seedBytes[:]); err != nil {
		return nil, err
	}
	xof := hasher.Digest()

	pool := make([][]byte, poolBlocks)
	for i := range pool {
		block := make([]byte, blockSize)
		if _, err := io.ReadFull(xof, block); err != nil {
			return nil, err
		}
		pool[i] = block
	}

	return &SyntheticEngine{blockSize: blockSize, pool: pool}, nil
}

// BlockSize returns the configured content block size.
func (e *SyntheticEngine) BlockSize() int64 {
	return e.blockSize
}

// PoolBlocks returns the number of buffers in the content block pool.
func (e *SyntheticEngine) PoolBlocks() int {
	return len(e.pool)
}

// ReadAt assembles the bytes of path for [offset, offset+length). A range
// spanning several blocks concatenates the relevant slice of each selected
// block in order; a range ending exactly on a block boundary touches no
// block past it.
func (e *SyntheticEngine) ReadAt(path string, offset, length int64) []byte {
	if length <= 0 {
		return nil
	}

	startBlock := offset / e.blockSize
	endBlock := (offset + length - 1) / e.blockSize

	data := make([]byte, length)
	dataOffset := int64(0)

	for block := startBlock; block <= endBlock; block++ {
		blockData := e.pool[e.selectBlock(path, block)]

		blockStart := offset - block*e.blockSize
		if blockStart < 0 {
			blockStart = 0
		}
		blockEnd := offset + length - block*e.blockSize
		if blockEnd > e.blockSize {
			blockEnd = e.blockSize
		}

		dataOffset += int64(copy(data[dataOffset:], blockData[blockStart:blockEnd]))
	}

	return data
}

// selectBlock maps (path, block index) onto a pool entry. The first 128
// bits of the blake3 digest are reduced modulo the pool size; the hash is
// used purely for its uniform distribution.
func (e *SyntheticEngine) selectBlock(path string, block int64) int {
	key := make([]byte, len(path)+8)
	copy(key, path)
	binary.BigEndian.PutUint64(key[len(path):], uint64(block))

	sum := blake3.Sum256(key)
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])

	return int(bits.Rem64(hi, lo, uint64(len(e.pool))))
}
