// Package config replaces the reference implementation's process-wide
// mutable globals (encryption key, buffer size, optimization goal,
// thread count — flagged in spec.md's Design Notes as an anti-pattern)
// with a single explicit Config record built once by the CLI and passed
// through the orchestrator. Layering is done with github.com/spf13/viper,
// the same precedence chain (defaults < environment < flags) the
// lupppig-dbackup example uses, but instantiated per-run instead of
// stashed behind a package-level *Config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/wrenfield-io/filecompressor/internal/checksum"
	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/dedup"
	"github.com/wrenfield-io/filecompressor/internal/errs"
	"github.com/wrenfield-io/filecompressor/internal/lz77"
)

var errConfigInvalid = errs.ConfigInvalid

// Mode selects the top-level direction of the job.
type Mode int

const (
	Compress Mode = iota
	Decompress
	ListCodecs
)

// OptimizationGoal is the -O preset, resolved into concrete Huffman
// depth caps and LZ77 window/lookahead/min-match triples.
type OptimizationGoal string

const (
	OptDefault OptimizationGoal = ""
	OptSpeed   OptimizationGoal = "speed"
	OptSize    OptimizationGoal = "size"
)

// HuffmanMaxDepth resolves the tree-depth cap per original_source/huffman.c's
// set_huffman_optimization table (32 speed / 256 default / 512 size).
func (g OptimizationGoal) HuffmanMaxDepth() int {
	switch g {
	case OptSpeed:
		return 32
	case OptSize:
		return 512
	default:
		return 256
	}
}

// LZ77Params resolves the window/lookahead/min-match triple per
// original_source/lz77.c's set_lz77_optimization table.
func (g OptimizationGoal) LZ77Params() lz77.Params {
	switch g {
	case OptSpeed:
		return lz77.SpeedParams
	case OptSize:
		return lz77.SizeParams
	default:
		return lz77.DefaultParams
	}
}

// Range is an inclusive progressive-container block range (-R a-b).
type Range struct {
	Start uint32
	End   uint32
}

// Config is the fully resolved set of options for one job. It carries no
// hidden state; two Configs built from the same inputs behave identically.
type Config struct {
	Mode         Mode
	Algorithm    codec.Index
	ThreadCount  int
	EncryptionKey []byte
	Optimization OptimizationGoal
	BufferSize   int

	LargeFile bool

	ChecksumKind checksum.Kind

	Progressive bool
	Range       *Range
	Streaming   bool

	Split       bool
	MaxPartSize uint64

	Dedup          bool
	DedupChunkSize int
	DedupHash      dedup.HashAlgorithm
	DedupMode      dedup.Mode

	InputPath  string
	OutputPath string
}

const (
	defaultBufferSize      = 65536
	defaultDedupChunkSize  = dedup.DefaultChunkSize
	defaultMaxPartSize     = 100 << 20 // 100 MiB
)

// NewViper builds a viper instance layered defaults < environment
// (OMP_NUM_THREADS, COMPRESSION_BUFFER_SIZE) < flags, mirroring spec.md
// §6's "Environment" section. Flag binding happens in cmd/filecompressor,
// which owns the pflag.FlagSet; this function only seeds defaults and env.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("threads", 0)
	v.SetDefault("buffer_size", defaultBufferSize)

	_ = v.BindEnv("threads", "OMP_NUM_THREADS")
	_ = v.BindEnv("buffer_size", "COMPRESSION_BUFFER_SIZE")
	v.AutomaticEnv()

	return v
}

// FromFlags builds a Config from already-bound viper values. Callers
// (cmd/filecompressor) bind pflag values into v before calling this, so
// the precedence chain (default < env < flag) is fully resolved by the
// time FromFlags reads back a key.
func FromFlags(v *viper.Viper) (*Config, error) {
	c := &Config{
		Mode:           Mode(v.GetInt("mode")),
		Algorithm:      codec.Index(v.GetInt("algorithm")),
		ThreadCount:    v.GetInt("threads"),
		Optimization:   OptimizationGoal(v.GetString("optimization")),
		BufferSize:     v.GetInt("buffer_size"),
		LargeFile:      v.GetBool("large_file"),
		Progressive:    v.GetBool("progressive"),
		Streaming:      v.GetBool("streaming"),
		Split:          v.GetBool("split"),
		MaxPartSize:    v.GetUint64("max_part_size"),
		Dedup:          v.GetBool("dedup"),
		DedupChunkSize: v.GetInt("dedup_chunk_size"),
		DedupHash:      dedup.HashAlgorithm(v.GetInt("dedup_hash")),
		DedupMode:      dedup.Mode(v.GetInt("dedup_mode")),
		InputPath:      v.GetString("input"),
		OutputPath:     v.GetString("output"),
	}
	if key := v.GetString("key"); key != "" {
		c.EncryptionKey = []byte(key)
	}
	kind, err := checksum.ParseKind(v.GetInt("checksum_kind"))
	if err != nil {
		return nil, fmt.Errorf("config: %w: %v", errConfigInvalid, err)
	}
	c.ChecksumKind = kind

	if rangeSpec := v.GetString("range"); rangeSpec != "" {
		r, err := parseRange(rangeSpec)
		if err != nil {
			return nil, err
		}
		c.Range = r
	}

	if c.MaxPartSize == 0 {
		c.MaxPartSize = defaultMaxPartSize
	}
	if c.DedupChunkSize == 0 {
		c.DedupChunkSize = defaultDedupChunkSize
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseRange(spec string) (*Range, error) {
	var a, b uint32
	if _, err := fmt.Sscanf(spec, "%d-%d", &a, &b); err != nil {
		return nil, fmt.Errorf("config: %w: malformed range %q", errConfigInvalid, spec)
	}
	if a > b {
		return nil, fmt.Errorf("config: %w: range start %d exceeds end %d", errConfigInvalid, a, b)
	}
	return &Range{Start: a, End: b}, nil
}

// Validate rejects a bad codec index and an empty encryption key when the
// encrypted variant is selected (Config::Invalid), replaces a non-positive
// buffer size with the default, and clamps the dedup chunk size. The split
// part size is clamped later by splitarchive.Split. No clamp emits a warning.
func (c *Config) Validate() error {
	if c.Mode == Compress || c.Mode == Decompress {
		if !c.Algorithm.Valid() {
			return fmt.Errorf("config: %w: codec index %d out of range [0,6]", errConfigInvalid, c.Algorithm)
		}
	}
	if c.Algorithm.IsEncrypted() && len(c.EncryptionKey) == 0 {
		return fmt.Errorf("config: %w: empty encryption key", errConfigInvalid)
	}
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	c.DedupChunkSize = dedup.ClampChunkSize(c.DedupChunkSize)
	return nil
}
