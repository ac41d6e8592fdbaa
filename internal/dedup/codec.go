package dedup

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// Magic is the 5-byte ASCII marker at the start of every dedup stream.
var Magic = []byte("DEDUP")

// Options configures a dedup pass.
type Options struct {
	Mode      Mode
	ChunkSize int
	Hash      HashAlgorithm
}

// Encode chunks data per opts and writes the "DEDUP" stream: unique
// chunks stored verbatim, duplicates stored as a reference to the first
// occurrence's offset in the original (uncompressed) input. Returns the
// encoded stream and the Store's final Stats.
func Encode(data []byte, opts Options) ([]byte, Stats) {
	chunks := Split(data, opts.Mode, opts.ChunkSize)
	store := NewStore()
	store.Stats.TotalBytes = uint64(len(data))

	var body bytes.Buffer
	offset := uint64(0)
	bytesAfter := uint64(0)
	for _, chunk := range chunks {
		hash := ComputeHash(opts.Hash, chunk)
		entry, isNew := store.GetOrAdd(hash, uint32(len(chunk)), offset)

		var sizeField [4]byte
		binary.LittleEndian.PutUint32(sizeField[:], uint32(len(chunk)))
		body.Write(sizeField[:])

		if isNew {
			body.WriteByte(0)
			body.Write(chunk)
			bytesAfter += 1 + uint64(len(chunk))
		} else {
			body.WriteByte(1)
			var offField [8]byte
			binary.LittleEndian.PutUint64(offField[:], entry.Offset)
			body.Write(offField[:])
			bytesAfter += 1 + 8
		}
		offset += uint64(len(chunk))
	}
	store.Stats.BytesAfterDedup = bytesAfter

	var out bytes.Buffer
	out.Write(Magic)
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(len(data)))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(chunks)))
	out.Write(hdr[:])
	out.Write(body.Bytes())
	return out.Bytes(), store.Stats
}

// Decode reverses Encode, resolving references against chunks already
// emitted earlier in the same stream.
func Decode(data []byte) ([]byte, error) {
	if len(data) < len(Magic)+16 || !bytes.Equal(data[:len(Magic)], Magic) {
		return nil, fmt.Errorf("dedup: %w: missing DEDUP magic", errs.ContainerBadFormat)
	}
	pos := len(Magic)
	originalSize := binary.LittleEndian.Uint64(data[pos : pos+8])
	pos += 8
	totalChunks := binary.LittleEndian.Uint64(data[pos : pos+8])
	pos += 8

	out := make([]byte, 0, originalSize)
	for i := uint64(0); i < totalChunks; i++ {
		if pos+5 > len(data) {
			return nil, errs.NewCorrupt("dedup.codec", fmt.Errorf("truncated chunk %d metadata", i))
		}
		chunkSize := binary.LittleEndian.Uint32(data[pos : pos+4])
		isRef := data[pos+4]
		pos += 5

		if isRef != 0 {
			if pos+8 > len(data) {
				return nil, errs.NewCorrupt("dedup.codec", fmt.Errorf("truncated chunk %d reference", i))
			}
			refOffset := binary.LittleEndian.Uint64(data[pos : pos+8])
			pos += 8
			if refOffset+uint64(chunkSize) > uint64(len(out)) {
				return nil, errs.NewCorrupt("dedup.codec", fmt.Errorf("chunk %d references unresolved offset %d", i, refOffset))
			}
			out = append(out, out[refOffset:refOffset+uint64(chunkSize)]...)
		} else {
			if pos+int(chunkSize) > len(data) {
				return nil, errs.NewCorrupt("dedup.codec", fmt.Errorf("truncated chunk %d body", i))
			}
			out = append(out, data[pos:pos+int(chunkSize)]...)
			pos += int(chunkSize)
		}
	}
	if uint64(len(out)) != originalSize {
		return nil, errs.NewCorrupt("dedup.codec", fmt.Errorf("decoded %d bytes, header says %d", len(out), originalSize))
	}
	return out, nil
}
