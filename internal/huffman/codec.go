package huffman

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// header layout: original_size (u64 LE) + serialized tree + bit-packed stream.
const headerSize = 8

// Compress encodes data as a whole-file Huffman stream: an 8-byte
// original-size header, the serialized tree, then the packed codes.
// Empty input produces an 8-byte all-zero header and nothing else.
func Compress(data []byte, maxDepth int) []byte {
	out := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(out, uint64(len(data)))
	if len(data) == 0 {
		return out
	}

	ctx := NewContext(maxDepth)
	ctx.CountFrequencies(data)
	ctx.BuildTreeAndCodes()

	var treeBuf bytes.Buffer
	WriteTree(&treeBuf, ctx.Tree())

	body, err := ctx.CompressChunk(data)
	if err != nil {
		// Every byte present in data has a code by construction, so
		// CompressChunk cannot fail here.
		panic(fmt.Sprintf("huffman: unreachable compress error: %v", err))
	}
	tail := ctx.Finalize()

	buf := bytes.NewBuffer(out)
	buf.Write(treeBuf.Bytes())
	buf.Write(body)
	buf.Write(tail)
	return buf.Bytes()
}

// Decompress reverses Compress: reads the original-size header, rebuilds
// the tree, and walks it bit-by-bit until originalSize bytes have been
// produced. Trailing zero-padding bits after the last symbol are not an
// error. A malformed tree or a stream that runs out of bits before
// originalSize bytes are produced is reported as Codec::Corrupt.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, errs.NewCorrupt("huffman.codec", fmt.Errorf("truncated header"))
	}
	originalSize := binary.LittleEndian.Uint64(data[:headerSize])
	rest := data[headerSize:]

	if originalSize == 0 {
		return []byte{}, nil
	}

	tree, consumed, err := ReadTree(rest)
	if err != nil {
		return nil, err
	}
	if tree.Empty() {
		return nil, errs.NewCorrupt("huffman.codec", fmt.Errorf("empty tree for non-empty payload"))
	}
	body := rest[consumed:]

	state := NewDecodeState(tree)
	state.Feed(body)
	out, ok, err := state.DecodeChunk(int(originalSize))
	if err != nil {
		return nil, err
	}
	if !ok || uint64(len(out)) != originalSize {
		return nil, errs.NewCorrupt("huffman.codec", fmt.Errorf("stream ended after %d of %d bytes", len(out), originalSize))
	}
	return out, nil
}
