package progressive

import (
	"bytes"

	"github.com/wrenfield-io/filecompressor/internal/checksum"
	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/encryption"
	"github.com/zeebo/blake3"
)

// Options configures a progressive compress pass.
type Options struct {
	Algorithm          codec.Index
	Codec              codec.Codec
	BlockSize          uint32
	FileChecksum       checksum.Kind
	BlockChecksum      checksum.Kind
	StreamingOptimized bool
	// DedupBlocks enables the FlagDedupBlocks supplement: identical
	// blocks (by BLAKE3 content hash) are stored once and later
	// occurrences reference the first by block ID.
	DedupBlocks bool
	// EncryptionKey, when non-empty, XOR-encrypts each block's compressed
	// bytes (post-codec) before it is written, applying the pipeline's
	// encryption stage per block per spec.md's ProgressiveHeader bit 2.
	EncryptionKey []byte
}

// dedupSentinel marks a block's CompressedSize field as "this block is a
// duplicate; its compressed bytes area holds a 4-byte little-endian
// block ID to copy from instead of codec-compressed data".
const dedupSentinel uint32 = 0xFFFFFFFF

// Compress packages data into the progressive container described by opts.
func Compress(data []byte, opts Options) []byte {
	totalBlocks := uint32(0)
	if len(data) > 0 {
		totalBlocks = (uint32(len(data)) + opts.BlockSize - 1) / opts.BlockSize
	}

	flags := uint8(0)
	if opts.FileChecksum != checksum.None {
		flags |= FlagHasChecksum
	}
	if opts.StreamingOptimized {
		flags |= FlagStreamingOptimized
	}
	if opts.DedupBlocks {
		flags |= FlagDedupBlocks
	}
	if len(opts.EncryptionKey) > 0 {
		flags |= FlagEncrypted
	}

	header := Header{
		Version:      CurrentVersion,
		Algorithm:    opts.Algorithm,
		Flags:        flags,
		BlockSize:    opts.BlockSize,
		TotalBlocks:  totalBlocks,
		OriginalSize: uint64(len(data)),
	}
	// The header is written twice: once as a size-correct placeholder
	// (so nothing after it needs to move), then rewritten in place once
	// the running file checksum is known.
	header.Checksum = checksum.Value{Kind: opts.FileChecksum, Payload: make([]byte, opts.FileChecksum.PayloadSize())}

	var out bytes.Buffer
	WriteHeader(&out, header)

	fileRolling := checksum.NewRolling(opts.FileChecksum)
	seen := map[[32]byte]uint32{}

	for i := uint32(0); i < totalBlocks; i++ {
		start := uint64(i) * uint64(opts.BlockSize)
		end := start + uint64(opts.BlockSize)
		if end > uint64(len(data)) {
			end = uint64(len(data))
		}
		block := data[start:end]
		fileRolling.Write(block)

		bh := BlockHeader{BlockID: i, OriginalSize: uint32(len(block))}

		var fingerprint [32]byte
		if opts.DedupBlocks {
			fingerprint = blake3.Sum256(block)
			bh.Fingerprint = fingerprint[:]
		}

		if opts.DedupBlocks {
			if refID, ok := seen[fingerprint]; ok {
				bh.CompressedSize = dedupSentinel
				WriteBlockHeader(&out, bh, flags)
				var refBuf [4]byte
				refBuf[0] = byte(refID)
				refBuf[1] = byte(refID >> 8)
				refBuf[2] = byte(refID >> 16)
				refBuf[3] = byte(refID >> 24)
				out.Write(refBuf[:])
				continue
			}
			seen[fingerprint] = i
		}

		compressed := opts.Codec.Compress(block)
		if opts.BlockChecksum != checksum.None {
			bh.Checksum = checksum.Compute(opts.BlockChecksum, compressed)
		}
		if len(opts.EncryptionKey) > 0 {
			compressed = encryption.XORCycle(compressed, opts.EncryptionKey)
		}
		bh.CompressedSize = uint32(len(compressed))
		WriteBlockHeader(&out, bh, flags)
		out.Write(compressed)
	}

	// Rewrite the header in place with the final file checksum.
	final := out.Bytes()
	if opts.FileChecksum != checksum.None {
		header.Checksum = fileRolling.Value()
		var rewritten bytes.Buffer
		WriteHeader(&rewritten, header)
		copy(final[:rewritten.Len()], rewritten.Bytes())
	}
	return final
}
