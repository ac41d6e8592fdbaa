// Package rle implements run-length encoding, grounded on
// original_source/rle.c: runs of up to 255 identical bytes, each written
// as a (count, value) pair, preceded by an 8-byte original-size header.
package rle

import (
	"encoding/binary"
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// MaxRun is the largest count a single run can encode.
const MaxRun = 255

// Compress emits [original_size: i64][(count, value)...].
func Compress(data []byte) []byte {
	out := make([]byte, 8, 8+len(data))
	binary.LittleEndian.PutUint64(out[:8], uint64(len(data)))
	if len(data) == 0 {
		return out
	}

	current := data[0]
	count := 1
	for i := 1; i < len(data); i++ {
		next := data[i]
		if next == current && count < MaxRun {
			count++
			continue
		}
		out = append(out, byte(count), current)
		current = next
		count = 1
	}
	out = append(out, byte(count), current)
	return out
}

// Decompress reads original_size, then emits (count, value) pairs until
// exactly original_size bytes have been produced. A pair truncated by
// end-of-stream is Codec::Corrupt.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, errs.NewCorrupt("rle.codec", fmt.Errorf("truncated header"))
	}
	originalSize := binary.LittleEndian.Uint64(data[:8])
	body := data[8:]
	if originalSize > uint64(len(body)/2)*MaxRun {
		return nil, errs.NewCorrupt("rle.codec", fmt.Errorf("header size %d exceeds what %d body bytes can encode", originalSize, len(body)))
	}
	out := make([]byte, 0, originalSize)

	pos := 0
	for uint64(len(out)) < originalSize {
		if pos+2 > len(body) {
			return nil, errs.NewCorrupt("rle.codec", fmt.Errorf("truncated run at output position %d", len(out)))
		}
		count := int(body[pos])
		value := body[pos+1]
		pos += 2
		for i := 0; i < count && uint64(len(out)) < originalSize; i++ {
			out = append(out, value)
		}
	}
	return out, nil
}
