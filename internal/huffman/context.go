package huffman

import (
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/bitio"
	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// Context is the streaming Huffman state the worker-pool driver and the
// progressive container drive one chunk at a time: pass 1 accumulates
// frequencies over the chunk's bytes, BuildTreeAndCodes fixes the tree
// for that chunk, and repeated CompressChunk/Finalize calls emit the
// packed bit stream. A Context is created per job (per chunk, in this
// codec's case — each chunk gets its own self-contained tree, since
// spec.md's chunk-oriented components decode chunks independently) and
// discarded at the end of that job.
type Context struct {
	freq     [MaxSymbols]uint64
	tree     *Tree
	codes    [MaxSymbols]Code
	maxDepth int
	writer   *bitio.Writer
	drained  int // bytes already returned to a previous CompressChunk/Finalize caller
}

// NewContext creates a fresh streaming context with the given maximum
// tree depth (DefaultMaxTreeDepth unless a speed/size preset is active).
func NewContext(maxDepth int) *Context {
	return &Context{maxDepth: maxDepth, writer: bitio.NewWriter()}
}

// CountFrequencies is pass 1: accumulate byte frequencies for later tree
// construction. May be called multiple times before BuildTreeAndCodes.
func (c *Context) CountFrequencies(data []byte) {
	for _, b := range data {
		c.freq[b]++
	}
}

// BuildTreeAndCodes ends pass 1 and fixes the tree and code table for
// pass 2. Must be called exactly once, after all CountFrequencies calls
// and before any CompressChunk call.
func (c *Context) BuildTreeAndCodes() {
	c.tree = BuildTree(c.freq)
	c.codes = c.tree.GenerateCodes(c.maxDepth)
}

// Tree returns the context's fixed tree, valid after BuildTreeAndCodes.
func (c *Context) Tree() *Tree { return c.tree }

// CompressChunk is pass 2: encodes input using the fixed code table and
// returns any newly completed output bytes (bytes that no longer have a
// pending partial bit). The partial byte at the tail is held internally
// until Finalize.
func (c *Context) CompressChunk(input []byte) ([]byte, error) {
	if c.tree == nil {
		return nil, fmt.Errorf("huffman: CompressChunk called before BuildTreeAndCodes")
	}
	for _, b := range input {
		code := c.codes[b]
		if code.Length == 0 {
			return nil, errs.NewCorrupt("huffman.context", fmt.Errorf("byte %d has no assigned code", b))
		}
		c.writer.WriteBits(code.Bits)
	}
	return c.drain(), nil
}

// Finalize flushes the final partial byte with zero padding and returns
// any output bytes not yet drained by CompressChunk.
func (c *Context) Finalize() []byte {
	c.writer.Flush()
	return c.drain()
}

func (c *Context) drain() []byte {
	all := c.writer.Bytes()
	fresh := all[c.drained:]
	c.drained = len(all)
	out := make([]byte, len(fresh))
	copy(out, fresh)
	return out
}

// DecodeState is the resumable decode-side counterpart: (tree, bit
// position, current node). Feed hands it the compressed bytes for one
// chunk; DecodeChunk walks the tree one bit at a time, stopping once
// wanted bytes have been produced (output-exhausted) or the input runs
// out first (input-exhausted) — the two conditions are distinguishable
// via DecodeChunk's second return value.
type DecodeState struct {
	tree   *Tree
	reader *bitio.Reader
	node   uint32
}

// NewDecodeState creates a decode-side context walking tree from its root.
func NewDecodeState(tree *Tree) *DecodeState {
	return &DecodeState{tree: tree, node: tree.Root()}
}

// Feed replaces the pending input with a fresh slice of compressed bytes.
func (d *DecodeState) Feed(data []byte) {
	d.reader = bitio.NewReader(data)
}

// DecodeChunk emits up to want bytes. ok is false if the input was
// exhausted before want bytes could be produced (distinct from a
// malformed stream, which returns an error instead).
func (d *DecodeState) DecodeChunk(want int) (out []byte, ok bool, err error) {
	if d.tree == nil || d.tree.Empty() {
		return nil, false, errs.NewCorrupt("huffman.decode", fmt.Errorf("empty tree"))
	}
	out = make([]byte, 0, want)
	for len(out) < want {
		if _, isLeaf := d.tree.IsLeaf(d.node); isLeaf {
			// Degenerate single-symbol tree: root is itself effectively a
			// leaf reached with zero bits consumed. Handled below by the
			// caller resetting node to root after each emitted symbol; a
			// leaf root only happens for BuildTree's single-entry wrap,
			// where root is internal, so this branch is unreachable in
			// practice but kept for defensive symmetry with IsLeaf.
		}
		bit, hasBit := d.reader.ReadBit()
		if !hasBit {
			return out, false, nil
		}
		d.node = d.tree.Child(d.node, bit)
		if value, isLeaf := d.tree.IsLeaf(d.node); isLeaf {
			out = append(out, value)
			d.node = d.tree.Root()
		}
	}
	return out, true, nil
}
