// Package codec unifies the three primitive codecs (Huffman, RLE, LZ77)
// behind one interface. The reference implementation
// (original_source/compression.c) dispatches on an integer index and
// returns C-style sentinel ints whose meaning flips between algorithms —
// the orchestrator there carries an explicit patch,
// "if ((algorithm_index == 1 || algorithm_index == 3) && result == 0) …",
// to compensate. This package replaces both the sentinel returns and the
// compensating logic with a single Codec interface returning (bytes, error).
package codec

import (
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/huffman"
	"github.com/wrenfield-io/filecompressor/internal/lz77"
	"github.com/wrenfield-io/filecompressor/internal/rle"
)

// Codec is a whole-file primitive compressor/decompressor.
type Codec interface {
	Name() string
	Extension() string
	Compress(data []byte) []byte
	Decompress(data []byte) ([]byte, error)
}

// Index identifies one of the registered algorithms by the CLI's -c value.
type Index int

const (
	Huffman Index = iota
	RLE
	HuffmanParallel
	RLEParallel
	LZ77
	LZ77Parallel
	LZ77Encrypted
	maxIndex
)

type huffmanCodec struct{ maxDepth int }

func (huffmanCodec) Name() string      { return "Huffman" }
func (huffmanCodec) Extension() string { return ".huf" }
func (h huffmanCodec) Compress(data []byte) []byte {
	return huffman.Compress(data, h.maxDepth)
}
func (huffmanCodec) Decompress(data []byte) ([]byte, error) {
	return huffman.Decompress(data)
}

type rleCodec struct{}

func (rleCodec) Name() string                       { return "RLE" }
func (rleCodec) Extension() string                  { return ".rle" }
func (rleCodec) Compress(data []byte) []byte        { return rle.Compress(data) }
func (rleCodec) Decompress(data []byte) ([]byte, error) { return rle.Decompress(data) }

type lz77Codec struct{ params lz77.Params }

func (lz77Codec) Name() string      { return "LZ77" }
func (lz77Codec) Extension() string { return ".lz77" }
func (l lz77Codec) Compress(data []byte) []byte {
	return lz77.Compress(data, l.params)
}
func (lz77Codec) Decompress(data []byte) ([]byte, error) {
	return lz77.Decompress(data)
}

// New returns the whole-file primitive codec for a base algorithm
// (Huffman, RLE, or LZ77 — the parallel and encrypted variants reuse
// the same primitive underneath and are resolved by the worker and
// encryption packages respectively). maxDepth and params carry the
// -O optimization-goal-derived tuning.
func New(idx Index, maxDepth int, lzParams lz77.Params) (Codec, error) {
	switch idx {
	case Huffman, HuffmanParallel:
		return huffmanCodec{maxDepth: maxDepth}, nil
	case RLE, RLEParallel:
		return rleCodec{}, nil
	case LZ77, LZ77Parallel, LZ77Encrypted:
		return lz77Codec{params: lzParams}, nil
	default:
		return nil, fmt.Errorf("codec: index %d out of range [0,%d]", idx, maxIndex-1)
	}
}

// Extension returns the registered file extension for idx, per
// original_source/compression.c's init_compression_algorithms table.
func (idx Index) Extension() string {
	switch idx {
	case Huffman:
		return ".huf"
	case RLE:
		return ".rle"
	case HuffmanParallel:
		return ".hufp"
	case RLEParallel:
		return ".rlep"
	case LZ77:
		return ".lz77"
	case LZ77Parallel:
		return ".lz77p"
	case LZ77Encrypted:
		return ".lz77e"
	default:
		return ""
	}
}

// IsParallel reports whether idx should be driven through the worker pool.
func (idx Index) IsParallel() bool {
	return idx == HuffmanParallel || idx == RLEParallel || idx == LZ77Parallel
}

// IsEncrypted reports whether idx implies the compress-and-encrypt combined operation.
func (idx Index) IsEncrypted() bool {
	return idx == LZ77Encrypted
}

// Valid reports whether idx is one of the seven registered algorithms.
// Index 7 and above are reserved and rejected as Config::Invalid by the
// orchestrator.
func (idx Index) Valid() bool {
	return idx >= Huffman && idx < maxIndex
}
