package worker

import (
	"bytes"
	"testing"

	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/huffman"
	"github.com/wrenfield-io/filecompressor/internal/lz77"
)

func TestResolveThreadCount(t *testing.T) {
	if got := ResolveThreadCount(0); got < 1 || got > MaxThreads {
		t.Fatalf("auto-detect out of bounds: %d", got)
	}
	if got := ResolveThreadCount(4); got != 4 {
		t.Fatalf("explicit count: got %d want 4", got)
	}
	if got := ResolveThreadCount(1000); got != MaxThreads {
		t.Fatalf("explicit count over cap: got %d want %d", got, MaxThreads)
	}
}

// TestChunkCountSmallFileOverride matches original_source/parallel.c's
// explicit override: a file under 1 KiB per requested thread drops to a
// single chunk even though min(threads, fileSize/1KiB) alone would pick
// a larger count.
func TestChunkCountSmallFileOverride(t *testing.T) {
	if got := chunkCount(5000, 8); got != 1 {
		t.Fatalf("chunkCount(5000, 8) = %d, want 1", got)
	}
	if got := chunkCount(10240, 8); got != 8 {
		t.Fatalf("chunkCount(10240, 8) = %d, want 8", got)
	}
}

func TestPartitionSizes(t *testing.T) {
	data := make([]byte, 100)
	chunks := partition(data, 4)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(data) {
		t.Fatalf("chunk sizes sum to %d, want %d", total, len(data))
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	c, err := codec.New(codec.RLE, huffman.DefaultMaxTreeDepth, lz77.DefaultParams)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}
	data := bytes.Repeat([]byte("hello parallel world "), 500)

	compressed := Compress(c, data, 4, &Progress{})
	decoded, err := Decompress(c, compressed, 4)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatal("round trip mismatch")
	}
}

// TestParallelHuffmanFourThreadHeader checks the thread-count header
// spec.md's worked example gives for a 4-thread Huffman job: 04 00 00 00.
func TestParallelHuffmanFourThreadHeader(t *testing.T) {
	c, err := codec.New(codec.HuffmanParallel, huffman.DefaultMaxTreeDepth, lz77.DefaultParams)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}
	data := bytes.Repeat([]byte("abcdefgh"), 4096)
	out := Compress(c, data, 4, nil)
	if !bytes.Equal(out[:4], []byte{0x04, 0x00, 0x00, 0x00}) {
		t.Fatalf("thread-count header = % x, want 04 00 00 00", out[:4])
	}
}

func TestDecompressTruncatedHeaderIsCorrupt(t *testing.T) {
	c, _ := codec.New(codec.RLE, huffman.DefaultMaxTreeDepth, lz77.DefaultParams)
	_, err := Decompress(c, []byte{1, 2}, 4)
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestDecompressBadChunkIsWorkerFailed(t *testing.T) {
	c, _ := codec.New(codec.RLE, huffman.DefaultMaxTreeDepth, lz77.DefaultParams)
	// One chunk, declared size 4 but its RLE body is malformed (truncated header).
	data := []byte{1, 0, 0, 0, 4, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4}
	_, err := Decompress(c, data, 1)
	if err == nil {
		t.Fatal("expected error for malformed chunk")
	}
}
