// Package splitarchive implements the split-archive wrapper: one logical
// compressed output spread across numbered "<base>.part<PPPP>" files,
// grounded on original_source/split_archive.c's ArchivePartHeader layout.
// Each part independently compresses its own slice of the source with the
// chosen primitive codec, so a part's body can be decoded with a single
// call to that codec's whole-file decoder.
package splitarchive

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/checksum"
	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/encryption"
	"github.com/wrenfield-io/filecompressor/internal/errs"
)

// Magic is the 4-byte ASCII marker at the start of every part file.
var Magic = [4]byte{'S', 'P', 'L', 'T'}

// MinSplitSize is the smallest max-part-size accepted; Split clamps
// smaller requests up to it without emitting a warning.
const MinSplitSize = 1 << 20 // 1 MiB

// MaxParts is the largest total_parts a split archive may declare.
const MaxParts = 9999

const headerSize = 4 + 4 + 4 + 8 + 8 + 1 + 32 // magic+part_number+total_parts+part_size+total_size+checksum_type+checksum_payload

// PartHeader precedes every part's compressed body. Its layout matches
// spec.md's SplitPartHeader byte for byte; whether a part's body is
// encrypted is not recorded here (there is no flags field), it is a
// whole-archive decision the caller already knows from its own config,
// the same way progressive.Context needs a caller-supplied key to open
// a stream with FlagEncrypted set rather than discovering it per block.
type PartHeader struct {
	PartNumber uint32
	TotalParts uint32
	PartSize   uint64 // source bytes covered by this part
	TotalSize  uint64 // original source size across the whole archive
	Checksum   checksum.Value
}

func writeHeader(buf *bytes.Buffer, h PartHeader) {
	buf.Write(Magic[:])
	var tmp [8]byte
	binary.LittleEndian.PutUint32(tmp[:4], h.PartNumber)
	buf.Write(tmp[:4])
	binary.LittleEndian.PutUint32(tmp[:4], h.TotalParts)
	buf.Write(tmp[:4])
	binary.LittleEndian.PutUint64(tmp[:8], h.PartSize)
	buf.Write(tmp[:8])
	binary.LittleEndian.PutUint64(tmp[:8], h.TotalSize)
	buf.Write(tmp[:8])
	buf.WriteByte(byte(h.Checksum.Kind))
	payload := make([]byte, 32)
	copy(payload, h.Checksum.Payload)
	buf.Write(payload)
}

func readHeader(data []byte) (PartHeader, error) {
	var h PartHeader
	if len(data) < headerSize {
		return h, errs.NewCorrupt("splitarchive.header", fmt.Errorf("truncated part header"))
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return h, fmt.Errorf("splitarchive: %w: bad magic", errs.ContainerBadFormat)
	}
	pos := 4
	h.PartNumber = binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	h.TotalParts = binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	h.PartSize = binary.LittleEndian.Uint64(data[pos:])
	pos += 8
	h.TotalSize = binary.LittleEndian.Uint64(data[pos:])
	pos += 8
	kind := checksum.Kind(data[pos])
	pos++
	payload := make([]byte, kind.PayloadSize())
	copy(payload, data[pos:pos+kind.PayloadSize()])
	h.Checksum = checksum.Value{Kind: kind, Payload: payload}
	return h, nil
}

// PartName formats "<base>.part<PPPP>" for a 1-based part number, matching
// the reference implementation's get_part_filename.
func PartName(base string, partNumber uint32) string {
	return fmt.Sprintf("%s.part%04d", base, partNumber)
}

// ClampPartSize applies the MIN_SPLIT_SIZE floor, reporting whether it
// clamped so the caller can emit the spec-mandated warning.
func ClampPartSize(requested uint64) (clamped uint64, wasClamped bool) {
	if requested < MinSplitSize {
		return MinSplitSize, true
	}
	return requested, false
}

// Part is one compressed part: its header and its compressed body.
type Part struct {
	Header PartHeader
	Body   []byte
}

// Split compresses data into parts of at most maxPartSize source bytes
// each, using c independently per part and a checksum of kind over each
// part's compressed body. When encryptionKey is non-empty, every part's
// compressed body is XOR-encrypted (per the pipeline's encryption stage,
// which runs after the codec and before container selection); Join must
// be called with the same key to reverse it, since the header carries no
// per-part or per-archive flag recording that choice.
func Split(data []byte, c codec.Codec, maxPartSize uint64, kind checksum.Kind, encryptionKey []byte) ([]Part, error) {
	maxPartSize, _ = ClampPartSize(maxPartSize)

	totalSize := uint64(len(data))
	totalParts := uint32(1)
	if totalSize > 0 {
		totalParts = uint32((totalSize + maxPartSize - 1) / maxPartSize)
	}
	if totalParts > MaxParts {
		return nil, fmt.Errorf("splitarchive: %w: %d parts exceeds maximum %d", errs.ConfigInvalid, totalParts, MaxParts)
	}

	parts := make([]Part, 0, totalParts)
	for p := uint32(1); p <= totalParts; p++ {
		start := uint64(p-1) * maxPartSize
		end := start + maxPartSize
		if end > totalSize {
			end = totalSize
		}
		slice := data[start:end]
		compressed := c.Compress(slice)

		checksumValue := checksum.Compute(kind, compressed)
		if len(encryptionKey) > 0 {
			compressed = encryption.XORCycle(compressed, encryptionKey)
		}

		header := PartHeader{
			PartNumber: p,
			TotalParts: totalParts,
			PartSize:   uint64(len(slice)),
			TotalSize:  totalSize,
			Checksum:   checksumValue,
		}
		var buf bytes.Buffer
		writeHeader(&buf, header)
		buf.Write(compressed)
		parts = append(parts, Part{Header: header, Body: buf.Bytes()})
	}
	return parts, nil
}

// Join decodes a sequence of part file contents (in part-number order,
// as read from disk by the caller) back into the original bytes. A
// missing or out-of-order part must be reported by the caller before
// calling Join by passing a shorter slice or an ordering error; Join
// itself validates the part_number sequence and total_parts agreement.
// encryptionKey must be non-empty and match whatever key Split used, if
// any — the header carries no flag recording whether the archive was
// encrypted, so Join decrypts unconditionally whenever a key is given, the
// same way a wrong OpenWithKey key on a progressive stream is only caught
// once the resulting bytes fail their checksum or codec decode.
func Join(partFiles [][]byte, c codec.Codec, encryptionKey []byte) ([]byte, error) {
	if len(partFiles) == 0 {
		return nil, errs.NewMissingPart(1)
	}

	first, err := readHeader(partFiles[0])
	if err != nil {
		return nil, err
	}
	if int(first.TotalParts) != len(partFiles) {
		return nil, errs.NewMissingPart(len(partFiles) + 1)
	}

	out := make([]byte, 0, first.TotalSize)
	for i, raw := range partFiles {
		header, err := readHeader(raw)
		if err != nil {
			return nil, err
		}
		if header.PartNumber != uint32(i+1) {
			return nil, errs.NewMissingPart(i + 1)
		}
		body := raw[headerSize:]
		if len(encryptionKey) > 0 {
			body = encryption.XORCycle(body, encryptionKey)
		}
		if header.Checksum.Kind != checksum.None && !checksum.Equal(header.Checksum.Kind, body, header.Checksum) {
			return nil, fmt.Errorf("splitarchive: %w: part %d", errs.ContainerChecksumMismatch, header.PartNumber)
		}
		decoded, err := c.Decompress(body)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}
