package dedup

// bucketCount is the fixed hash-table size from
// original_source/deduplication.c's HASH_TABLE_SIZE, indexed by the
// first two bytes of the (padded) chunk hash.
const bucketCount = 65536

// Entry records one unique chunk's identity, original offset, and size.
type Entry struct {
	Hash   [HashFieldSize]byte
	Offset uint64
	Size   uint32
	RefCount uint32
}

// listNode is a singly linked collision-chain node, matching the
// reference implementation's ChunkHash::next pointer chain per bucket.
type listNode struct {
	entry Entry
	next  *listNode
}

// Store is the deduplication hash table: bucketCount buckets keyed by the
// hash's first two bytes, singly linked collision lists within a bucket.
// Equality compares the full hash and the chunk size, matching
// compare_hashes plus the explicit size check in add_chunk.
type Store struct {
	buckets [bucketCount]*listNode
	Stats   Stats
}

// Stats mirrors the reference implementation's DedupStats.
type Stats struct {
	TotalChunks         uint64
	DuplicateChunks      uint64
	DuplicateBytesSaved  uint64
	TotalBytes           uint64
	BytesAfterDedup      uint64
}

// NewStore creates an empty deduplication hash table.
func NewStore() *Store {
	return &Store{}
}

func bucketIndex(hash [HashFieldSize]byte) uint16 {
	return uint16(hash[0])<<8 | uint16(hash[1])
}

func hashesEqual(a, b [HashFieldSize]byte) bool {
	return a == b
}

// Lookup finds an existing entry with the same hash and size, if any.
func (s *Store) Lookup(hash [HashFieldSize]byte, size uint32) (Entry, bool) {
	idx := bucketIndex(hash)
	for n := s.buckets[idx]; n != nil; n = n.next {
		if hashesEqual(n.entry.Hash, hash) && n.entry.Size == size {
			return n.entry, true
		}
	}
	return Entry{}, false
}

// GetOrAdd records chunk (hash, size, offset), returning the entry to
// reference and whether it was newly added. On a duplicate, the existing
// entry's RefCount is incremented and DuplicateChunks/DuplicateBytesSaved
// are updated.
func (s *Store) GetOrAdd(hash [HashFieldSize]byte, size uint32, offset uint64) (entry Entry, isNew bool) {
	s.Stats.TotalChunks++
	idx := bucketIndex(hash)
	for n := s.buckets[idx]; n != nil; n = n.next {
		if hashesEqual(n.entry.Hash, hash) && n.entry.Size == size {
			n.entry.RefCount++
			s.Stats.DuplicateChunks++
			s.Stats.DuplicateBytesSaved += uint64(size)
			return n.entry, false
		}
	}
	entry = Entry{Hash: hash, Offset: offset, Size: size, RefCount: 1}
	s.buckets[idx] = &listNode{entry: entry, next: s.buckets[idx]}
	return entry, true
}
