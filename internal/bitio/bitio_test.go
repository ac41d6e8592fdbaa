package bitio

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	bits := []uint8{1, 0, 1, 1, 0, 0, 1, 0, 1, 1}
	w.WriteBits(bits)
	data := w.Flush()

	r := NewReader(data)
	for i, want := range bits {
		got, ok := r.ReadBit()
		if !ok {
			t.Fatalf("bit %d: reader exhausted early", i)
		}
		if got != want {
			t.Fatalf("bit %d: got %d want %d", i, got, want)
		}
	}
}

func TestFlushPadsPartialByte(t *testing.T) {
	w := NewWriter()
	w.WriteBit(1)
	data := w.Flush()
	if len(data) != 1 {
		t.Fatalf("expected 1 byte after flush, got %d", len(data))
	}
	if data[0] != 0x80 {
		t.Fatalf("expected 0x80 (1 followed by zero padding), got %#x", data[0])
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	w := NewWriter()
	w.WriteBits([]uint8{1, 1, 1, 1, 1, 1, 1, 1})
	first := w.Flush()
	second := w.Flush()
	if len(first) != len(second) {
		t.Fatalf("second flush changed length: %d vs %d", len(first), len(second))
	}
}

func TestReaderExhausted(t *testing.T) {
	r := NewReader([]byte{0xFF})
	for i := 0; i < 8; i++ {
		if r.Exhausted() {
			t.Fatalf("reader reported exhausted after only %d bits", i)
		}
		if _, ok := r.ReadBit(); !ok {
			t.Fatalf("bit %d: unexpected exhaustion", i)
		}
	}
	if !r.Exhausted() {
		t.Fatal("expected reader exhausted after consuming all bits")
	}
	if _, ok := r.ReadBit(); ok {
		t.Fatal("expected ReadBit to fail once exhausted")
	}
}

func TestReset(t *testing.T) {
	w := NewWriter()
	w.WriteBits([]uint8{1, 1, 1, 1, 1, 1, 1, 1})
	w.Flush()
	w.Reset()
	if len(w.Bytes()) != 0 {
		t.Fatalf("expected empty writer after Reset, got %d bytes", len(w.Bytes()))
	}
	w.WriteBit(0)
	data := w.Flush()
	if data[0] != 0x00 {
		t.Fatalf("expected clean state after Reset, got %#x", data[0])
	}
}
