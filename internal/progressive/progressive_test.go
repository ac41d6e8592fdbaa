package progressive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wrenfield-io/filecompressor/internal/checksum"
	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/huffman"
	"github.com/wrenfield-io/filecompressor/internal/lz77"
)

func testCodec(t *testing.T) codec.Codec {
	t.Helper()
	c, err := codec.New(codec.RLE, huffman.DefaultMaxTreeDepth, lz77.DefaultParams)
	require.NoError(t, err)
	return c
}

func testData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestCompressDecodeFullRoundTrip(t *testing.T) {
	c := testCodec(t)
	data := testData(5 * 64 << 10) // 5 blocks at 64 KiB

	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: c, BlockSize: 64 << 10,
		FileChecksum: checksum.CRC32, BlockChecksum: checksum.CRC32, StreamingOptimized: false,
	})
	decoded, err := DecodeFull(out, c, nil)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

// TestTenMiBAcrossOneMiBBlocksRangeDecode covers the 10 MiB / 1 MiB block
// / CRC32 / range [2,4] scenario.
func TestTenMiBAcrossOneMiBBlocksRangeDecode(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates a 10 MiB buffer; skipped under -short")
	}
	c := testCodec(t)
	data := testData(10 << 20)
	blockSize := uint32(1 << 20)

	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: c, BlockSize: blockSize,
		FileChecksum: checksum.CRC32, BlockChecksum: checksum.CRC32, StreamingOptimized: false,
	})

	decoded, err := DecodeRange(out, c, nil, 2, 4)
	require.NoError(t, err)

	want := data[2*(1<<20) : 5*(1<<20)]
	require.Equal(t, want, decoded)
}

// TestCorruptedBlockChecksumMismatch flips a byte inside block 3's
// compressed body and expects DecodeRange to surface a checksum mismatch.
func TestCorruptedBlockChecksumMismatch(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates a 10 MiB buffer; skipped under -short")
	}
	c := testCodec(t)
	data := testData(10 << 20)
	blockSize := uint32(1 << 20)

	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: c, BlockSize: blockSize,
		FileChecksum: checksum.CRC32, BlockChecksum: checksum.CRC32, StreamingOptimized: false,
	})

	ctx, err := Open(out)
	require.NoError(t, err)
	require.NoError(t, ctx.Seek(3))
	blockHeaderLen := ctx.blockHeaderSize()
	corrupted := append([]byte{}, out...)
	corrupted[ctx.pos+blockHeaderLen] ^= 0xFF

	_, err = DecodeRange(corrupted, c, nil, 2, 4)
	require.Error(t, err)
}

func TestStreamingDecodeStopsEarly(t *testing.T) {
	c := testCodec(t)
	data := testData(5 * 64 << 10)
	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: c, BlockSize: 64 << 10,
		StreamingOptimized: false,
	})

	var blocks int
	err := DecodeStream(out, c, nil, func(block []byte) bool {
		blocks++
		return blocks < 2
	})
	require.NoError(t, err)
	require.Equal(t, 2, blocks)
}

func TestEncryptedBlocksRequireKey(t *testing.T) {
	c := testCodec(t)
	data := testData(3 * 64 << 10)
	key := []byte("progressivekey")

	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: c, BlockSize: 64 << 10,
		StreamingOptimized: false, EncryptionKey: key,
	})

	_, err := DecodeFull(out, c, nil)
	require.Error(t, err)

	decoded, err := DecodeFull(out, c, key)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestDedupBlocksReferenceEarlierBlock(t *testing.T) {
	c := testCodec(t)
	block := testData(64 << 10)
	data := append(append([]byte{}, block...), block...)

	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: c, BlockSize: 64 << 10,
		StreamingOptimized: false, DedupBlocks: true,
	})

	header, _, err := ReadHeader(out)
	require.NoError(t, err)
	require.NotZero(t, header.Flags&FlagDedupBlocks)

	decoded, err := DecodeFull(out, c, nil)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

// identityCodec never changes size, unlike RLE/Huffman/LZ77; it exists
// only to exercise FlagStreamingOptimized's fixed-stride Seek formula
// under the one condition it actually requires: every block's on-disk
// footprint equal to block_size.
type identityCodec struct{}

func (identityCodec) Name() string                          { return "identity" }
func (identityCodec) Extension() string                     { return ".raw" }
func (identityCodec) Compress(data []byte) []byte           { return append([]byte{}, data...) }
func (identityCodec) Decompress(data []byte) ([]byte, error) { return append([]byte{}, data...), nil }

func TestStreamingOptimizedSeekWithFixedSizeCodec(t *testing.T) {
	data := testData(4 * 32 << 10) // evenly divisible: every block is exactly 32 KiB
	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: identityCodec{}, BlockSize: 32 << 10,
		StreamingOptimized: true,
	})

	decoded, err := DecodeRange(out, identityCodec{}, nil, 1, 2)
	require.NoError(t, err)
	require.Equal(t, data[32<<10:3*(32<<10)], decoded)
}

func TestNonStreamingSeekScansLinearly(t *testing.T) {
	c := testCodec(t)
	data := testData(4 * 32 << 10)
	out := Compress(data, Options{
		Algorithm: codec.RLE, Codec: c, BlockSize: 32 << 10,
		StreamingOptimized: false,
	})

	decoded, err := DecodeRange(out, c, nil, 1, 2)
	require.NoError(t, err)
	require.Equal(t, data[32<<10:3*(32<<10)], decoded)
}

func TestDecodeRangeRejectsOutOfBoundsRange(t *testing.T) {
	c := testCodec(t)
	data := testData(2 * 32 << 10)
	out := Compress(data, Options{Algorithm: codec.RLE, Codec: c, BlockSize: 32 << 10})

	_, err := DecodeRange(out, c, nil, 0, 5)
	require.Error(t, err)
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	_, _, err := ReadHeader([]byte("not a progressive stream"))
	require.Error(t, err)
}

func TestEmptyInput(t *testing.T) {
	c := testCodec(t)
	out := Compress(nil, Options{Algorithm: codec.RLE, Codec: c, BlockSize: 64 << 10})
	decoded, err := DecodeFull(out, c, nil)
	require.NoError(t, err)
	require.Empty(t, decoded)
}
