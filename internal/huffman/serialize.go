package huffman

import (
	"bytes"
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// WriteTree serializes the tree pre-order: "0" + left + right for an
// internal node, "1" + byte for a leaf, matching the reference
// implementation's write_tree exactly.
func WriteTree(buf *bytes.Buffer, t *Tree) {
	if t.Empty() {
		return
	}
	var walk func(idx uint32)
	walk = func(idx uint32) {
		n := t.nodes[idx]
		if n.isLeaf {
			buf.WriteByte(1)
			buf.WriteByte(n.value)
			return
		}
		buf.WriteByte(0)
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
}

// ReadTree deserializes a tree written by WriteTree, returning the
// number of bytes consumed. A malformed marker byte or an early EOF is
// reported as Codec::Corrupt.
func ReadTree(data []byte) (*Tree, int, error) {
	t := &Tree{}
	pos := 0
	var walk func() (uint32, error)
	walk = func() (uint32, error) {
		if pos >= len(data) {
			return 0, errs.NewCorrupt("huffman.tree", fmt.Errorf("unexpected end of tree data"))
		}
		flag := data[pos]
		pos++
		switch flag {
		case 1:
			if pos >= len(data) {
				return 0, errs.NewCorrupt("huffman.tree", fmt.Errorf("truncated leaf"))
			}
			value := data[pos]
			pos++
			return t.newLeaf(value, 0), nil
		case 0:
			left, err := walk()
			if err != nil {
				return 0, err
			}
			right, err := walk()
			if err != nil {
				return 0, err
			}
			return t.newInternal(left, right), nil
		default:
			return 0, errs.NewCorrupt("huffman.tree", fmt.Errorf("invalid node marker %d", flag))
		}
	}
	root, err := walk()
	if err != nil {
		return nil, 0, err
	}
	t.root = root
	return t, pos, nil
}
