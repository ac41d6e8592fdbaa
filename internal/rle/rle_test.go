package rle

import (
	"bytes"
	"testing"
)

func TestCompressAAAABBBBExactBytes(t *testing.T) {
	got := Compress([]byte("AAAABBBB"))
	want := []byte{0x08, 0, 0, 0, 0, 0, 0, 0, 0x04, 0x41, 0x04, 0x42}
	if !bytes.Equal(got, want) {
		t.Fatalf("Compress(\"AAAABBBB\") = % x, want % x", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x99}},
		{"AAAABBBB", []byte("AAAABBBB")},
		{"no repeats", []byte("abcdefgh")},
		{"run longer than 255", bytes.Repeat([]byte{0x5A}, 1_000_000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compressed := Compress(tc.data)
			decoded, err := Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decoded, tc.data) {
				t.Fatalf("round trip mismatch: got %d bytes want %d bytes", len(decoded), len(tc.data))
			}
		})
	}
}

func TestLongRunSplitsAtMaxRun(t *testing.T) {
	data := bytes.Repeat([]byte{0x5A}, 1_000_000)
	compressed := Compress(data)
	body := compressed[8:]
	runs := len(body) / 2
	wantRuns := (len(data) + MaxRun - 1) / MaxRun
	if runs != wantRuns {
		t.Fatalf("got %d runs, want %d (ceil(%d/%d))", runs, wantRuns, len(data), MaxRun)
	}
}

func TestDecompressTruncatedRunIsCorrupt(t *testing.T) {
	data := []byte{4, 0, 0, 0, 0, 0, 0, 0, 0x04}
	_, err := Decompress(data)
	if err == nil {
		t.Fatal("expected error for truncated run pair")
	}
}

func TestDecompressTruncatedHeaderIsCorrupt(t *testing.T) {
	_, err := Decompress([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
}
