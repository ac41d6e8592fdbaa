// Package huffman implements the Huffman codec: whole-file compress and
// decompress, plus a streaming HuffmanContext for the worker-pool driver
// and progressive container to drive chunk-at-a-time.
//
// The tree is an arena of nodes indexed by uint32 rather than the
// pointer-linked left/right tree the reference C implementation
// (original_source/huffman.c) uses. An arena removes the possibility of
// cycles, gives the tree a single owning slice whose lifetime is the
// compression job, and makes it trivially safe to hand a *Tree to
// multiple worker goroutines for read-only decode.
package huffman

import (
	"container/heap"
	"sort"
)

// MaxSymbols is the size of the byte alphabet this codec operates over.
const MaxSymbols = 256

// Default, speed-preset, and size-preset maximum tree depths (spec §3).
const (
	DefaultMaxTreeDepth = 256
	SpeedMaxTreeDepth   = 32
	SizeMaxTreeDepth    = 512
)

type node struct {
	isLeaf      bool
	value       byte
	left, right uint32
	freq        uint64
}

// Tree is an arena of Huffman tree nodes built from a frequency table.
type Tree struct {
	nodes []node
	root  uint32
}

// heapItem is a min-heap entry over (frequency, insertion order). Ties
// are broken by insertion order, matching the reference implementation's
// array-based min-heap for the common case of equal-frequency leaves
// inserted in ascending byte order (see spec's worked "ab" example,
// where the first-extracted node — the earlier-inserted one on a tie —
// becomes the left child).
type heapItem struct {
	nodeIdx uint32
	freq    uint64
	seq     int
}

type minHeap []heapItem

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].seq < h[j].seq
}
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// BuildTree constructs a Huffman tree from a 256-entry frequency table by
// repeatedly extracting the two lowest-frequency nodes and merging them,
// exactly as the reference min-heap algorithm does. A single distinct
// byte produces a two-node tree (one internal node wrapping one leaf) so
// that byte gets a length-1 code instead of the degenerate zero-length
// code a bare single-leaf root would imply.
func BuildTree(freq [MaxSymbols]uint64) *Tree {
	t := &Tree{}

	h := &minHeap{}
	seq := 0
	for b := 0; b < MaxSymbols; b++ {
		if freq[b] == 0 {
			continue
		}
		idx := t.newLeaf(byte(b), freq[b])
		heap.Push(h, heapItem{nodeIdx: idx, freq: freq[b], seq: seq})
		seq++
	}

	if h.Len() == 0 {
		// Empty input: caller never calls BuildTree with an all-zero
		// table in practice (whole-file compress special-cases empty
		// input), but return a well-formed empty tree defensively.
		return t
	}

	if h.Len() == 1 {
		only := heap.Pop(h).(heapItem)
		root := t.newInternal(only.nodeIdx, only.nodeIdx)
		t.root = root
		return t
	}

	for h.Len() > 1 {
		left := heap.Pop(h).(heapItem)
		right := heap.Pop(h).(heapItem)
		mergedFreq := left.freq + right.freq
		idx := t.newInternal(left.nodeIdx, right.nodeIdx)
		heap.Push(h, heapItem{nodeIdx: idx, freq: mergedFreq, seq: seq})
		seq++
	}

	t.root = heap.Pop(h).(heapItem).nodeIdx
	return t
}

func (t *Tree) newLeaf(value byte, freq uint64) uint32 {
	idx := uint32(len(t.nodes))
	t.nodes = append(t.nodes, node{isLeaf: true, value: value, freq: freq})
	return idx
}

func (t *Tree) newInternal(left, right uint32) uint32 {
	idx := uint32(len(t.nodes))
	t.nodes = append(t.nodes, node{isLeaf: false, left: left, right: right})
	return idx
}

// Code is a single symbol's prefix-free bit sequence, MSB read order.
type Code struct {
	Bits   []uint8
	Length int
}

// GenerateCodes walks the tree depth-first (left=0, right=1) and returns
// the 256-entry code table, capping any code at maxDepth bits. When the
// cap truncates an internal node, every leaf in the pruned subtree is
// deterministically assigned the same path-so-far code — the documented
// tradeoff spec.md §3 calls for; it only triggers on frequency
// distributions deep enough to exceed the configured limit (never under
// the default 256-deep cap, rarely under the 32-deep speed preset).
func (t *Tree) GenerateCodes(maxDepth int) [MaxSymbols]Code {
	var codes [MaxSymbols]Code
	if len(t.nodes) == 0 {
		return codes
	}

	path := make([]uint8, 0, maxDepth)
	var walk func(idx uint32, depth int)
	walk = func(idx uint32, depth int) {
		n := t.nodes[idx]
		if n.isLeaf || depth >= maxDepth {
			length := depth
			if length == 0 {
				length = 1
			}
			code := make([]uint8, length)
			copy(code, path)
			if n.isLeaf {
				codes[n.value] = Code{Bits: code, Length: length}
			} else {
				for _, b := range t.leavesUnder(idx) {
					codes[b] = Code{Bits: code, Length: length}
				}
			}
			return
		}
		path = append(path, 0)
		walk(n.left, depth+1)
		path = path[:len(path)-1]
		path = append(path, 1)
		walk(n.right, depth+1)
		path = path[:len(path)-1]
	}
	walk(t.root, 0)
	return codes
}

func (t *Tree) leavesUnder(idx uint32) []byte {
	var out []byte
	var walk func(uint32)
	walk = func(i uint32) {
		n := t.nodes[i]
		if n.isLeaf {
			out = append(out, n.value)
			return
		}
		walk(n.left)
		if n.right != n.left {
			walk(n.right)
		}
	}
	walk(idx)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Root returns the arena index of the tree's root node.
func (t *Tree) Root() uint32 { return t.root }

// IsLeaf reports whether node idx is a leaf and, if so, its byte value.
func (t *Tree) IsLeaf(idx uint32) (byte, bool) {
	n := t.nodes[idx]
	return n.value, n.isLeaf
}

// Child returns the left (bit=0) or right (bit=1) child of an internal node.
func (t *Tree) Child(idx uint32, bit uint8) uint32 {
	n := t.nodes[idx]
	if bit == 0 {
		return n.left
	}
	return n.right
}

// Empty reports whether the tree has no nodes (built from an all-zero frequency table).
func (t *Tree) Empty() bool { return len(t.nodes) == 0 }
