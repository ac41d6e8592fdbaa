// Package dedup implements the content-defined deduplication filter:
// three chunking modes, a fixed-bucket hash table for exact-duplicate
// detection, and the "DEDUP" wire format. Grounded on
// original_source/deduplication.c for the chunking and hash-table shape,
// generalized from its process-wide static state (the reference keeps a
// single global hash_table[65536]) into an explicit Store per spec.md
// §9's redesign note against global mutable state, in the same spirit as
// the teacher's chunkstore.Store.
package dedup

import (
	"bytes"
	"io"

	"github.com/jotfs/fastcdc-go"
)

// Mode selects how chunk boundaries are found.
type Mode int

const (
	Fixed Mode = iota
	Variable
	Smart
)

// Chunk size bounds for Fixed and Variable modes (spec.md §4.10).
const (
	MinChunkSize     = 4 << 10  // 4 KiB
	MaxChunkSize     = 1 << 20  // 1 MiB
	DefaultChunkSize = 64 << 10 // 64 KiB
)

// Rabin-Karp content-defined chunking parameters, exact values from
// original_source/deduplication.c's CDC_WINDOW_SIZE/CDC_PRIME/CDC_MASK.
const (
	cdcWindowSize = 48
	cdcPrime      = 31
	cdcMask       = 0x0000FFFF
)

// ClampChunkSize applies the [MinChunkSize, MaxChunkSize] bound the
// reference implementation's init_deduplication enforces.
func ClampChunkSize(requested int) int {
	if requested < MinChunkSize {
		return MinChunkSize
	}
	if requested > MaxChunkSize {
		return MaxChunkSize
	}
	return requested
}

// findBoundary returns the length of the next chunk within data (which
// may be longer than one chunk), starting at offset 0, for Variable mode.
// A boundary is declared when the rolling hash ANDed with cdcMask is
// zero, or when maxSize is reached.
func findBoundary(data []byte, maxSize int) int {
	limit := len(data)
	if limit > maxSize {
		limit = maxSize
	}
	// original_source/deduplication.c skips CDC below its separate
	// MIN_DEDUP_SIZE (64); using the rolling window size itself as that
	// floor here is close enough that spec.md leaves the exact constant
	// unspecified, but it is not the same value.
	if limit <= cdcWindowSize {
		return limit
	}

	window := cdcWindowSize
	if window > limit {
		window = limit
	}

	var hash uint32
	var power uint32 = 1
	for i := 0; i < window; i++ {
		hash = hash*cdcPrime + uint32(data[i])
		if i < window-1 {
			power *= cdcPrime
		}
	}

	for i := window; i < limit; i++ {
		outByte := data[i-window]
		hash = cdcPrime*(hash-uint32(outByte)*power) + uint32(data[i])
		if hash&cdcMask == 0 {
			return i + 1
		}
	}
	return limit
}

// Split partitions data into chunks according to mode. Fixed and Variable
// return slices into data (no copy); Smart goes through fastcdc.Chunker,
// which owns its own buffers, so its chunks are copies.
func Split(data []byte, mode Mode, chunkSize int) [][]byte {
	chunkSize = ClampChunkSize(chunkSize)
	if mode == Smart {
		return splitSmart(data, chunkSize)
	}

	var chunks [][]byte
	offset := 0
	for offset < len(data) {
		remaining := data[offset:]
		var n int
		if mode == Fixed {
			n = chunkSize
			if n > len(remaining) {
				n = len(remaining)
			}
		} else {
			n = findBoundary(remaining, chunkSize)
		}
		chunks = append(chunks, remaining[:n])
		offset += n
	}
	return chunks
}

// splitSmart implements Smart mode via fastcdc-go's normalized chunking,
// resolving spec.md's open question in favor of a real FastCDC pass
// (min/avg/max target sizes) rather than treating Smart as an alias for
// Variable's hand-rolled Rabin-Karp boundary search.
func splitSmart(data []byte, avgSize int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	minSize := avgSize / 4
	if minSize < MinChunkSize {
		minSize = MinChunkSize
	}
	maxSize := avgSize * 4
	if maxSize > MaxChunkSize {
		maxSize = MaxChunkSize
	}
	if maxSize <= avgSize {
		maxSize = avgSize + 1
	}

	chunker, err := fastcdc.NewChunker(bytes.NewReader(data), fastcdc.Options{
		MinSize:     minSize,
		AverageSize: avgSize,
		MaxSize:     maxSize,
	})
	if err != nil {
		// Options rejected (e.g. a degenerate size triple): fall back to
		// Variable's boundary search rather than failing the whole pass.
		return splitVariable(data, avgSize)
	}

	var chunks [][]byte
	for {
		chunk, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return splitVariable(data, avgSize)
		}
		buf := make([]byte, len(chunk.Data))
		copy(buf, chunk.Data)
		chunks = append(chunks, buf)
	}
	return chunks
}

func splitVariable(data []byte, chunkSize int) [][]byte {
	var chunks [][]byte
	offset := 0
	for offset < len(data) {
		remaining := data[offset:]
		n := findBoundary(remaining, chunkSize)
		chunks = append(chunks, remaining[:n])
		offset += n
	}
	return chunks
}
