package chunkio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrenfield-io/filecompressor/internal/checksum"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	w, err := Create(path, 16)
	require.NoError(t, err)
	require.NoError(t, w.Write([]byte("hello, chunked world, this spans several chunks")))
	require.NoError(t, w.Close())

	r, err := Open(path, 16)
	require.NoError(t, err)
	defer r.Close()

	var got []byte
	for {
		chunk, ok, err := r.NextChunk()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, chunk...)
	}
	require.Equal(t, "hello, chunked world, this spans several chunks", string(got))
}

func TestNextChunkIdempotentAtEOS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.bin")
	w, err := Create(path, 64)
	require.NoError(t, err)
	require.NoError(t, w.Write([]byte("short")))
	require.NoError(t, w.Close())

	r, err := Open(path, 64)
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := r.NextChunk()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = r.NextChunk()
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = r.NextChunk()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenMissingFileIsIoOpen(t *testing.T) {
	_, err := Open("/nonexistent/path/does-not-exist.bin", 64)
	require.Error(t, err)
}

func TestFramedWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framed.bin")

	w, err := Create(path, 32)
	require.NoError(t, err)
	fw := NewFramedWriter(w, checksum.CRC32)
	records := [][]byte{[]byte("first record"), []byte("second, a bit longer"), []byte("third")}
	for _, rec := range records {
		require.NoError(t, fw.Write(rec))
	}
	require.NoError(t, fw.Close())

	r, err := Open(path, 32)
	require.NoError(t, err)
	fr := NewFramedReader(r)
	defer fr.Close()

	for _, want := range records {
		got, ok, err := fr.NextRecord()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, _, err = fr.NextRecord()
	require.ErrorIs(t, err, io.EOF)
}

func TestFramedReaderDetectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "framed_corrupt.bin")

	w, err := Create(path, 64)
	require.NoError(t, err)
	fw := NewFramedWriter(w, checksum.CRC32)
	require.NoError(t, fw.Write([]byte("integrity check payload")))
	require.NoError(t, fw.Close())

	raw, err := Open(path, 4096)
	require.NoError(t, err)
	chunk, ok, err := raw.NextChunk()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, raw.Close())

	corrupted := append([]byte{}, chunk...)
	corrupted[len(corrupted)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, corrupted, 0o644))

	r, err := Open(path, 4096)
	require.NoError(t, err)
	fr := NewFramedReader(r)
	defer fr.Close()

	_, ok, err = fr.NextRecord()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNoChecksumFramingPassesThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unframed.bin")

	w, err := Create(path, 64)
	require.NoError(t, err)
	fw := NewFramedWriter(w, checksum.None)
	require.NoError(t, fw.Write([]byte("plain data")))
	require.NoError(t, fw.Close())

	r, err := Open(path, 64)
	require.NoError(t, err)
	defer r.Close()
	chunk, ok, err := r.NextChunk()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "plain data", string(chunk))
}
