// Package worker implements the parallel driver that accelerates any
// primitive codec by partitioning its input into independent chunks and
// running one goroutine per chunk, grounded on the teacher's worker-pool
// shape in pkg/compress/compress_chunked.go (per-worker channel fan-out,
// sync.WaitGroup completion, an atomic progress counter) adapted from a
// file-tree walk to a byte-range partition.
package worker

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// MaxThreads caps the auto-detected and explicitly requested thread count.
const MaxThreads = 64

// ResolveThreadCount applies spec.md §4.7/§5's optimal-thread-count rule:
// 0 means auto-detect (logical cores, capped at MaxThreads); any positive
// value is used as-is, also capped at MaxThreads.
func ResolveThreadCount(requested int) int {
	if requested <= 0 {
		n := runtime.NumCPU()
		if n > MaxThreads {
			n = MaxThreads
		}
		if n < 1 {
			n = 1
		}
		return n
	}
	if requested > MaxThreads {
		return MaxThreads
	}
	return requested
}

// chunkCount picks n = min(requestedThreads, fileSize/1KiB), then applies
// original_source/parallel.c's explicit small-file override: if fileSize
// is under 1 KiB per requested thread, drop straight to a single chunk
// rather than the (larger) value the min() clause alone would pick.
func chunkCount(fileSize int, threads int) int {
	if fileSize == 0 {
		return 1
	}
	if fileSize < threads*1024 {
		return 1
	}
	n := threads
	if byKB := fileSize / 1024; byKB < n {
		n = byKB
	}
	if n < 1 {
		n = 1
	}
	return n
}

// partition splits data into n contiguous chunks where every chunk but
// the last has equal size.
func partition(data []byte, n int) [][]byte {
	if n <= 1 {
		return [][]byte{data}
	}
	size := len(data) / n
	if size == 0 {
		size = 1
		n = len(data)
	}
	chunks := make([][]byte, 0, n)
	for i := 0; i < n-1; i++ {
		chunks = append(chunks, data[i*size:(i+1)*size])
	}
	chunks = append(chunks, data[(n-1)*size:])
	return chunks
}

// Progress reports coarse-grained chunk completion: Done counts the chunks
// Compress has finished.
type Progress struct {
	Done atomic.Int64
}

// Compress runs c over data split into chunkCount(len(data), threads)
// contiguous chunks in parallel, and reassembles the result as
// [thread_count: i32][chunk_compressed_size: i64, chunk_compressed_bytes...]*
// in input order, regardless of which goroutine finishes first.
func Compress(c codec.Codec, data []byte, threads int, progress *Progress) []byte {
	n := chunkCount(len(data), threads)
	chunks := partition(data, n)
	results := make([][]byte, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []byte) {
			defer wg.Done()
			results[i] = c.Compress(chunk)
			if progress != nil {
				progress.Done.Add(1)
			}
		}(i, chunk)
	}
	wg.Wait()

	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(len(chunks)))
	for _, r := range results {
		sizeField := make([]byte, 8)
		binary.LittleEndian.PutUint64(sizeField, uint64(len(r)))
		out = append(out, sizeField...)
		out = append(out, r...)
	}
	return out
}

// Decompress reverses Compress: reads thread_count, then each chunk's
// compressed size, decodes chunks in parallel via c, and concatenates the
// decoded output in the original chunk order. Any single chunk failure
// is fatal for the whole job (errs.WorkerFailedError, tagging which
// chunk index failed).
func Decompress(c codec.Codec, data []byte, threads int) ([]byte, error) {
	if len(data) < 4 {
		return nil, errs.NewCorrupt("worker.driver", fmt.Errorf("truncated thread-count header"))
	}
	threadCount := int(binary.LittleEndian.Uint32(data[:4]))
	pos := 4

	type chunkSpan struct{ start, size int }
	spans := make([]chunkSpan, 0, threadCount)
	for i := 0; i < threadCount; i++ {
		if pos+8 > len(data) {
			return nil, errs.NewCorrupt("worker.driver", fmt.Errorf("truncated chunk-size field for chunk %d", i))
		}
		size := int(binary.LittleEndian.Uint64(data[pos : pos+8]))
		pos += 8
		if pos+size > len(data) {
			return nil, errs.NewCorrupt("worker.driver", fmt.Errorf("truncated chunk body for chunk %d", i))
		}
		spans = append(spans, chunkSpan{start: pos, size: size})
		pos += size
	}

	results := make([][]byte, threadCount)
	errsOut := make([]error, threadCount)

	sem := make(chan struct{}, ResolveThreadCount(threads))
	var wg sync.WaitGroup
	for i, span := range spans {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, span chunkSpan) {
			defer wg.Done()
			defer func() { <-sem }()
			out, err := c.Decompress(data[span.start : span.start+span.size])
			if err != nil {
				errsOut[i] = errs.NewWorkerFailed(i, err)
				return
			}
			results[i] = out
		}(i, span)
	}
	wg.Wait()

	for _, e := range errsOut {
		if e != nil {
			return nil, e
		}
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]byte, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
