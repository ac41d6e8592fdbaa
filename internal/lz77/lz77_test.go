package lz77

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x11}},
		{"overlapping copy", []byte("aaaaaaaaaa")},
		{"repeated phrase", bytes.Repeat([]byte("abcabcabc"), 50)},
		{"no matches", []byte("the quick brown fox")},
		{"binary", func() []byte {
			b := make([]byte, 512)
			for i := range b {
				b[i] = byte(i * 7)
			}
			return b
		}()},
	}
	for _, params := range []Params{SpeedParams, DefaultParams, SizeParams} {
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				compressed := Compress(tc.data, params)
				decoded, err := Decompress(compressed)
				if err != nil {
					t.Fatalf("Decompress: %v", err)
				}
				if !bytes.Equal(decoded, tc.data) {
					t.Fatalf("round trip mismatch under params %+v: got %q want %q", params, decoded, tc.data)
				}
			})
		}
	}
}

func TestMatchLongerThan255SplitsIntoMultipleTokens(t *testing.T) {
	// A lookahead wider than MaxMatchLength lets the 599-byte run of 'y'
	// match in one search, so it must be emitted as several match tokens.
	params := Params{WindowSize: 4096, LookaheadSize: 1024, MinMatch: 3}
	data := append([]byte("x"), bytes.Repeat([]byte{'y'}, 600)...)
	tokens := Encode(data, params)
	matches := 0
	for _, tok := range tokens {
		if tok.IsMatch {
			matches++
		}
		if tok.IsMatch && int(tok.Length) > MaxMatchLength {
			t.Fatalf("match token length %d exceeds MaxMatchLength %d", tok.Length, MaxMatchLength)
		}
	}
	if matches < 2 {
		t.Fatalf("expected the long match split into at least 2 tokens, got %d", matches)
	}
	decoded, err := Decompress(Compress(data, params))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatal("round trip mismatch on long match")
	}
}

func TestNearestOffsetTieBreak(t *testing.T) {
	// "ab" repeats at offsets 2 and 4 behind the cursor; the nearer
	// candidate (offset 2) must win among equal-length matches.
	data := []byte("ababab")
	offset, length := findLongestMatch(data, 4, SizeParams)
	if length < SizeParams.MinMatch {
		t.Skip("params minMatch too high for this fixture")
	}
	if offset != 2 {
		t.Fatalf("expected nearest offset 2, got %d (length %d)", offset, length)
	}
}

func TestDecompressInvalidOffsetIsCorrupt(t *testing.T) {
	data := []byte{2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 1}
	_, err := Decompress(data)
	if err == nil {
		t.Fatal("expected error for zero offset match")
	}
}

func TestDecompressTruncatedTokenIsCorrupt(t *testing.T) {
	data := []byte{1, 0, 0, 0, 0, 0, 0, 0, 1, 0}
	_, err := Decompress(data)
	if err == nil {
		t.Fatal("expected error for truncated match token")
	}
}
