package dedup

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/crc32"
)

// HashAlgorithm selects the chunk-fingerprint algorithm. All four are
// stored right-padded into a fixed 20-byte field for uniform indexing.
type HashAlgorithm int

const (
	SHA1 HashAlgorithm = iota
	MD5
	CRC32
	XXH64
)

// HashFieldSize is the fixed width every chunk hash is stored in,
// regardless of the underlying algorithm's native digest size.
const HashFieldSize = 20

var crc32Table = crc32.MakeTable(crc32.IEEE)

// ComputeHash hashes data with algo and right-pads the result to HashFieldSize.
func ComputeHash(algo HashAlgorithm, data []byte) [HashFieldSize]byte {
	var out [HashFieldSize]byte
	switch algo {
	case SHA1:
		sum := sha1.Sum(data)
		copy(out[:], sum[:])
	case MD5:
		sum := md5.Sum(data)
		copy(out[:], sum[:])
	case CRC32:
		sum := crc32.Checksum(data, crc32Table)
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], sum)
		copy(out[:], buf[:])
	case XXH64:
		sum := xxhash.Sum64(data)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], sum)
		copy(out[:], buf[:])
	}
	return out
}
