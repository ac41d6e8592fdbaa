package progressive

import (
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// DecodeFull decodes every block in order and returns the concatenated
// original bytes. key is required only when the stream is encrypted.
func DecodeFull(data []byte, prim codec.Codec, key []byte) ([]byte, error) {
	ctx, err := OpenWithKey(data, key)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	out := make([]byte, 0, ctx.header.OriginalSize)
	for i := uint32(0); i < ctx.header.TotalBlocks; i++ {
		if err := ctx.Seek(i); err != nil {
			return out, err
		}
		block, err := ctx.DecodeBlock(prim)
		if err != nil {
			return out, err
		}
		out = append(out, block...)
	}
	return out, nil
}

// DecodeRange decodes blocks [start, end] inclusive and returns the
// concatenated bytes.
func DecodeRange(data []byte, prim codec.Codec, key []byte, start, end uint32) ([]byte, error) {
	ctx, err := OpenWithKey(data, key)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	if start > end || end >= ctx.header.TotalBlocks {
		return nil, fmt.Errorf("progressive: %w: range [%d,%d] invalid for %d blocks", errs.ConfigInvalid, start, end, ctx.header.TotalBlocks)
	}
	if err := ctx.Seek(start); err != nil {
		return nil, err
	}

	var out []byte
	for id := start; id <= end; id++ {
		if err := ctx.Seek(id); err != nil {
			return out, err
		}
		block, err := ctx.DecodeBlock(prim)
		if err != nil {
			return out, err
		}
		out = append(out, block...)
	}
	return out, nil
}

// StreamCallback receives each decoded block's bytes; returning false
// stops further decoding.
type StreamCallback func(block []byte) (keepGoing bool)

// DecodeStream decodes blocks in order, invoking cb after each one, until
// either all blocks are decoded or cb returns false.
func DecodeStream(data []byte, prim codec.Codec, key []byte, cb StreamCallback) error {
	ctx, err := OpenWithKey(data, key)
	if err != nil {
		return err
	}
	defer ctx.Close()

	for i := uint32(0); i < ctx.header.TotalBlocks; i++ {
		if err := ctx.Seek(i); err != nil {
			return err
		}
		block, err := ctx.DecodeBlock(prim)
		if err != nil {
			return err
		}
		if !cb(block) {
			return nil
		}
	}
	return nil
}
