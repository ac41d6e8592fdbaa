package huffman

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x42}},
		{"single distinct byte repeated", bytes.Repeat([]byte{0x07}, 1000)},
		{"ab", []byte("ab")},
		{"all 256 byte values", func() []byte {
			b := make([]byte, 256)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()},
		{"text", []byte("the quick brown fox jumps over the lazy dog")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compressed := Compress(tc.data, DefaultMaxTreeDepth)
			decoded, err := Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decoded, tc.data) {
				t.Fatalf("round trip mismatch: got %v want %v", decoded, tc.data)
			}
		})
	}
}

// TestCompressABExactBytes checks the literal wire format against spec's
// worked example: header 02 00 00 00 00 00 00 00, tree 00 01 61 01 62,
// bit stream 0x40.
func TestCompressABExactBytes(t *testing.T) {
	got := Compress([]byte("ab"), DefaultMaxTreeDepth)
	want := []byte{
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // original size = 2
		0x00, 0x01, 0x61, 0x01, 0x62, // tree: internal(leaf 'a', leaf 'b')
		0x40, // bits 0,1 then zero padding
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Compress(\"ab\") = % x, want % x", got, want)
	}
}

func TestCompressEmptyIsHeaderOnly(t *testing.T) {
	got := Compress(nil, DefaultMaxTreeDepth)
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("Compress(nil) = % x, want % x", got, want)
	}
}

func TestDecompressTruncatedHeaderIsCorrupt(t *testing.T) {
	_, err := Decompress([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestDecompressBadTreeMarkerIsCorrupt(t *testing.T) {
	data := []byte{2, 0, 0, 0, 0, 0, 0, 0, 9, 9, 9}
	_, err := Decompress(data)
	if err == nil {
		t.Fatal("expected error for bad tree marker")
	}
}

func TestStreamingContextMatchesWholeFile(t *testing.T) {
	input := []byte("mississippi river")

	ctx := NewContext(DefaultMaxTreeDepth)
	ctx.CountFrequencies(input)
	ctx.BuildTreeAndCodes()

	var packed bytes.Buffer
	mid := len(input) / 2
	part1, err := ctx.CompressChunk(input[:mid])
	if err != nil {
		t.Fatalf("CompressChunk 1: %v", err)
	}
	packed.Write(part1)
	part2, err := ctx.CompressChunk(input[mid:])
	if err != nil {
		t.Fatalf("CompressChunk 2: %v", err)
	}
	packed.Write(part2)
	packed.Write(ctx.Finalize())

	state := NewDecodeState(ctx.Tree())
	state.Feed(packed.Bytes())
	out, ok, err := state.DecodeChunk(len(input))
	if err != nil {
		t.Fatalf("DecodeChunk: %v", err)
	}
	if !ok {
		t.Fatal("DecodeChunk reported input exhausted early")
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("streaming round trip mismatch: got %q want %q", out, input)
	}
}

func TestGenerateCodesRespectsMaxDepth(t *testing.T) {
	// Skewed frequency distribution (Fibonacci-like) forces a deep tree
	// under an unbounded depth; SpeedMaxTreeDepth must cap every code.
	var freq [MaxSymbols]uint64
	a, b := uint64(1), uint64(1)
	for i := 0; i < 40; i++ {
		freq[i] = a
		a, b = b, a+b
	}
	tree := BuildTree(freq)
	codes := tree.GenerateCodes(SpeedMaxTreeDepth)
	for i, c := range codes {
		if c.Length > SpeedMaxTreeDepth {
			t.Fatalf("byte %d code length %d exceeds max depth %d", i, c.Length, SpeedMaxTreeDepth)
		}
	}
}

func TestWriteTreeReadTreeRoundTrip(t *testing.T) {
	var freq [MaxSymbols]uint64
	freq['a'] = 5
	freq['b'] = 3
	freq['c'] = 1
	tree := BuildTree(freq)

	var buf bytes.Buffer
	WriteTree(&buf, tree)

	got, consumed, err := ReadTree(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if consumed != buf.Len() {
		t.Fatalf("consumed %d bytes, want %d", consumed, buf.Len())
	}

	codesWant := tree.GenerateCodes(DefaultMaxTreeDepth)
	codesGot := got.GenerateCodes(DefaultMaxTreeDepth)
	for i := range codesWant {
		if !bytes.Equal(codesWant[i].Bits, codesGot[i].Bits) || codesWant[i].Length != codesGot[i].Length {
			t.Fatalf("byte %d: code mismatch, want %+v got %+v", i, codesWant[i], codesGot[i])
		}
	}
}
