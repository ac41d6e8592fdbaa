// Package chunkio implements the buffered chunked I/O primitive: a
// sequential reader and writer over fixed-size buffers, with an optional
// per-chunk checksum-framed variant. Grounded on the general buffered,
// signal-aware file handling shape used throughout the teacher's
// pkg/compress/compress_chunked.go, scaled down from a file-tree walk to
// a single stream, for the "-L" large-file path spec.md §4.1 describes.
package chunkio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/wrenfield-io/filecompressor/internal/checksum"
	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// Reader streams a file through fixed-size buffers.
type Reader struct {
	f         *os.File
	chunkSize int
	pos       int64
	size      int64
	eos       bool
}

// Open opens path for chunked reading. Io::Open on a missing/unreadable file.
func Open(path string, chunkSize int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunkio: %w: %v", errs.IoOpen, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("chunkio: %w: %v", errs.IoOpen, err)
	}
	if chunkSize <= 0 {
		chunkSize = 65536
	}
	return &Reader{f: f, chunkSize: chunkSize, size: info.Size()}, nil
}

// NextChunk returns the next up-to-chunkSize bytes and advances position.
// ok is false once end-of-stream has been reached; further calls remain
// idempotent, always returning ok=false.
func (r *Reader) NextChunk() (data []byte, ok bool, err error) {
	if r.eos {
		return nil, false, nil
	}
	buf := make([]byte, r.chunkSize)
	n, readErr := io.ReadFull(r.f, buf)
	if n > 0 {
		r.pos += int64(n)
	}
	if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
		r.eos = true
		if n == 0 {
			return nil, false, nil
		}
		return buf[:n], true, nil
	}
	if readErr != nil {
		return nil, false, fmt.Errorf("chunkio: %w: %v", errs.IoRead, readErr)
	}
	return buf[:n], true, nil
}

// Size returns the total file size recorded at Open.
func (r *Reader) Size() int64 { return r.size }

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close() }

// Writer accumulates writes into a buffer, flushing to disk whenever it
// exceeds chunkSize.
type Writer struct {
	f         *os.File
	chunkSize int
	buf       []byte
}

// Create truncates/creates path for chunked writing.
func Create(path string, chunkSize int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("chunkio: %w: %v", errs.IoOpen, err)
	}
	if chunkSize <= 0 {
		chunkSize = 65536
	}
	return &Writer{f: f, chunkSize: chunkSize}, nil
}

// Write accumulates p, flushing to disk whenever the internal buffer
// exceeds chunkSize.
func (w *Writer) Write(p []byte) error {
	w.buf = append(w.buf, p...)
	for len(w.buf) >= w.chunkSize {
		if _, err := w.f.Write(w.buf[:w.chunkSize]); err != nil {
			return fmt.Errorf("chunkio: %w: %v", errs.IoWrite, err)
		}
		w.buf = w.buf[w.chunkSize:]
	}
	return nil
}

// Close flushes any remaining buffered bytes and closes the file.
func (w *Writer) Close() error {
	if len(w.buf) > 0 {
		if _, err := w.f.Write(w.buf); err != nil {
			w.f.Close()
			return fmt.Errorf("chunkio: %w: %v", errs.IoWrite, err)
		}
		w.buf = nil
	}
	return w.f.Close()
}

// FramedWriter wraps Writer, prefixing every Write call's payload with a
// record `{tag: u32, checksum_payload, data_length: u32, data}` when kind
// is not checksum.None.
type FramedWriter struct {
	w    *Writer
	kind checksum.Kind
}

// NewFramedWriter wraps w to emit checksum-framed records of the given kind.
func NewFramedWriter(w *Writer, kind checksum.Kind) *FramedWriter {
	return &FramedWriter{w: w, kind: kind}
}

// Write emits one framed record covering data.
func (fw *FramedWriter) Write(data []byte) error {
	if fw.kind == checksum.None {
		return fw.w.Write(data)
	}
	sum := checksum.Compute(fw.kind, data)
	var hdr []byte
	var tagField [4]byte
	binary.LittleEndian.PutUint32(tagField[:], uint32(fw.kind))
	hdr = append(hdr, tagField[:]...)
	hdr = append(hdr, sum.Payload...)
	var lenField [4]byte
	binary.LittleEndian.PutUint32(lenField[:], uint32(len(data)))
	hdr = append(hdr, lenField[:]...)
	if err := fw.w.Write(hdr); err != nil {
		return err
	}
	return fw.w.Write(data)
}

// Close flushes and closes the underlying Writer.
func (fw *FramedWriter) Close() error { return fw.w.Close() }

// FramedReader wraps Reader, reading back FramedWriter's records and
// verifying each one's checksum. A mismatch is reported through
// NextRecord's checksumOK result, without aborting the read; the caller decides whether to
// continue past it.
type FramedReader struct {
	r    *Reader
	buf  []byte
	pos  int
}

// NewFramedReader wraps r for reading checksum-framed records.
func NewFramedReader(r *Reader) *FramedReader {
	return &FramedReader{r: r}
}

func (fr *FramedReader) fill(n int) error {
	for len(fr.buf)-fr.pos < n {
		chunk, ok, err := fr.r.NextChunk()
		if err != nil {
			return err
		}
		if !ok {
			return io.EOF
		}
		fr.buf = append(fr.buf[fr.pos:], chunk...)
		fr.pos = 0
	}
	return nil
}

// NextRecord reads the next framed record, returning its payload and
// whether recomputing its checksum matched (always true when the stream
// carries no checksum).
func (fr *FramedReader) NextRecord() (data []byte, checksumOK bool, err error) {
	if err := fr.fill(1); err != nil {
		if err == io.EOF {
			return nil, true, io.EOF
		}
		return nil, false, err
	}
	if err := fr.fill(4); err != nil {
		return nil, false, errs.NewCorrupt("chunkio.framed", fmt.Errorf("truncated frame tag"))
	}
	kind := checksum.Kind(binary.LittleEndian.Uint32(fr.buf[fr.pos : fr.pos+4]))
	fr.pos += 4

	payloadSize := kind.PayloadSize()
	if err := fr.fill(payloadSize + 4); err != nil {
		return nil, false, errs.NewCorrupt("chunkio.framed", fmt.Errorf("truncated frame header"))
	}
	payload := make([]byte, payloadSize)
	copy(payload, fr.buf[fr.pos:fr.pos+payloadSize])
	fr.pos += payloadSize
	dataLen := binary.LittleEndian.Uint32(fr.buf[fr.pos : fr.pos+4])
	fr.pos += 4

	if err := fr.fill(int(dataLen)); err != nil {
		return nil, false, errs.NewCorrupt("chunkio.framed", fmt.Errorf("truncated frame body"))
	}
	data = make([]byte, dataLen)
	copy(data, fr.buf[fr.pos:fr.pos+int(dataLen)])
	fr.pos += int(dataLen)

	ok := checksum.Equal(kind, data, checksum.Value{Kind: kind, Payload: payload})
	return data, ok, nil
}

// Close releases the underlying Reader.
func (fr *FramedReader) Close() error { return fr.r.Close() }
