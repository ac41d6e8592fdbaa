// Package errs defines the error taxonomy shared by every codec,
// container, and filter in filecompressor. Every component returns a
// plain error built from these sentinels instead of algorithm-specific
// int codes, so callers can use errors.Is/errors.As uniformly instead
// of remembering which codec treats 0 as success.
package errs

import (
	"errors"
	"fmt"
)

var (
	// IoOpen is returned when a file cannot be opened for reading or writing.
	IoOpen = errors.New("io: open failed")
	// IoRead is returned when a read from an open file or stream fails.
	IoRead = errors.New("io: read failed")
	// IoWrite is returned when a write to an open file or stream fails.
	IoWrite = errors.New("io: write failed")
	// IoSeek is returned when repositioning a seekable stream fails.
	IoSeek = errors.New("io: seek failed")

	// ConfigInvalid is returned for bad codec indices, empty encryption
	// keys, malformed ranges, and other request-construction errors.
	ConfigInvalid = errors.New("config: invalid")

	// CodecCorrupt is the base sentinel for malformed codec streams.
	// Use NewCorrupt to attach the offending location.
	CodecCorrupt = errors.New("codec: corrupt stream")

	// ContainerBadFormat is returned when a container's magic bytes don't match.
	ContainerBadFormat = errors.New("container: bad format")
	// ContainerUnsupportedVersion is returned when a container's version exceeds what this build understands.
	ContainerUnsupportedVersion = errors.New("container: unsupported version")
	// ContainerMissingPart is the base sentinel for a missing split-archive part.
	ContainerMissingPart = errors.New("container: missing part")
	// ContainerChecksumMismatch is the base sentinel for a failed checksum comparison.
	ContainerChecksumMismatch = errors.New("container: checksum mismatch")

	// ResourceMemory is returned when an allocation fails or a caller-supplied buffer is too small.
	ResourceMemory = errors.New("resource: allocation failed")

	// WorkerFailed is the base sentinel for a worker-pool job aborted by the first failing worker.
	WorkerFailed = errors.New("worker: failed")
)

// CorruptError carries the specific location of a Codec::Corrupt failure.
type CorruptError struct {
	Where string
	Err   error
}

func NewCorrupt(where string, cause error) *CorruptError {
	return &CorruptError{Where: where, Err: cause}
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec: corrupt stream at %s: %v", e.Where, e.Err)
	}
	return fmt.Sprintf("codec: corrupt stream at %s", e.Where)
}

func (e *CorruptError) Unwrap() error { return CodecCorrupt }

// MissingPartError carries the 1-based part number that could not be found or was out of order.
type MissingPartError struct {
	Part int
}

func NewMissingPart(part int) *MissingPartError {
	return &MissingPartError{Part: part}
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("container: missing part %d", e.Part)
}

func (e *MissingPartError) Unwrap() error { return ContainerMissingPart }

// ChecksumMismatchError optionally carries the failing block's id (progressive
// container blocks are numbered; whole-stream checksums leave BlockID nil).
type ChecksumMismatchError struct {
	BlockID *uint32
}

func NewChecksumMismatch(blockID *uint32) *ChecksumMismatchError {
	return &ChecksumMismatchError{BlockID: blockID}
}

func (e *ChecksumMismatchError) Error() string {
	if e.BlockID != nil {
		return fmt.Sprintf("container: checksum mismatch at block %d", *e.BlockID)
	}
	return "container: checksum mismatch"
}

func (e *ChecksumMismatchError) Unwrap() error { return ContainerChecksumMismatch }

// WorkerFailedError surfaces the first worker failure in a parallel job.
type WorkerFailedError struct {
	ThreadID int
	Cause    error
}

func NewWorkerFailed(threadID int, cause error) *WorkerFailedError {
	return &WorkerFailedError{ThreadID: threadID, Cause: cause}
}

func (e *WorkerFailedError) Error() string {
	return fmt.Sprintf("worker %d failed: %v", e.ThreadID, e.Cause)
}

func (e *WorkerFailedError) Unwrap() error { return WorkerFailed }
