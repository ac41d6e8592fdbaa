package filecompressor

import (
	"github.com/hashicorp/go-multierror"

	"github.com/wrenfield-io/filecompressor/internal/dedup"
)

// Result reports the outcome of one compress or decompress job.
type Result struct {
	OriginalSize   uint64
	CompressedSize uint64

	// Dedup is populated only when the job ran the deduplication filter.
	Dedup *dedup.Stats

	// PartsWritten holds the split-archive part paths, in order, when
	// the job wrote a split archive.
	PartsWritten []string

	// Errors aggregates non-fatal failures encountered along the way
	// (e.g. individual split parts). A job-fatal error is returned
	// directly from Run instead of being folded in here.
	Errors *multierror.Error
}

// Success reports whether the job completed without any aggregated error.
func (r *Result) Success() bool {
	return r.Errors == nil || r.Errors.Len() == 0
}

// CompressionRatio returns CompressedSize/OriginalSize as a percentage.
func (r *Result) CompressionRatio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.CompressedSize) / float64(r.OriginalSize) * 100
}
