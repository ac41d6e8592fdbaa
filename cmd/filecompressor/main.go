// Command filecompressor is the CLI front end. It is a thin, mostly
// untested-by-design wrapper (spec.md §1 names argument parsing and help
// text an external collaborator out of core scope): it binds pflags into
// a viper.Viper, resolves a config.Config, and calls filecompressor.Run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/config"
	"github.com/wrenfield-io/filecompressor/pkg/filecompressor"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "filecompressor: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		compressIdx   int
		decompressIdx int
		listCodecs    bool
		threads       int
		key           string
		optimization  string
		bufferSize    int
		largeFile     bool
		checksumKind  int
		progressiveOn bool
		rangeSpec     string
		streamingOn   bool
		splitOn       bool
		maxPartSize   int64
		dedupOn       bool
		dedupChunk    int
		dedupHash     int
		dedupMode     int
	)

	cmd := &cobra.Command{
		Use:           "filecompressor [flags] <input> [output]",
		Short:         "Compress or decompress a file with a chosen codec, container, or filter",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listCodecs {
				printCodecs()
				return nil
			}
			if len(args) == 0 {
				return cmd.Usage()
			}

			v := config.NewViper()
			mode := config.Compress
			algo := compressIdx
			if cmd.Flags().Changed("d") {
				mode = config.Decompress
				algo = decompressIdx
			}
			v.Set("mode", int(mode))
			v.Set("algorithm", algo)
			// Only explicit -t/-B override OMP_NUM_THREADS/COMPRESSION_BUFFER_SIZE.
			if cmd.Flags().Changed("t") {
				v.Set("threads", threads)
			}
			v.Set("key", key)
			v.Set("optimization", optimization)
			if cmd.Flags().Changed("B") {
				v.Set("buffer_size", bufferSize)
			}
			v.Set("large_file", largeFile)
			v.Set("checksum_kind", checksumKind)
			v.Set("progressive", progressiveOn)
			v.Set("range", rangeSpec)
			v.Set("streaming", streamingOn)
			v.Set("split", splitOn)
			v.Set("max_part_size", maxPartSize)
			v.Set("dedup", dedupOn)
			v.Set("dedup_chunk_size", dedupChunk)
			v.Set("dedup_hash", dedupHash)
			v.Set("dedup_mode", dedupMode)
			v.Set("input", args[0])
			if len(args) > 1 {
				v.Set("output", args[1])
			} else {
				v.Set("output", args[0]+defaultOutputSuffix(mode, codec.Index(algo)))
			}

			cfg, err := config.FromFlags(v)
			if err != nil {
				return err
			}

			progress, bars := filecompressor.ProgressBarCallback()
			result, err := filecompressor.Run(cfg, progress)
			bars.Wait()
			if err != nil {
				return err
			}
			printSummary(cfg, result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&compressIdx, "c", "c", 0, "compress; codec index 0..6")
	flags.IntVarP(&decompressIdx, "d", "d", 0, "decompress; codec index")
	flags.BoolVarP(&listCodecs, "a", "a", false, "list codecs and exit")
	flags.IntVarP(&threads, "t", "t", 0, "thread count, <=0 for auto")
	flags.StringVarP(&key, "k", "k", "", "encryption key")
	flags.StringVarP(&optimization, "O", "O", "", "optimization preset: speed|size")
	flags.IntVarP(&bufferSize, "B", "B", 0, "I/O buffer size in bytes")
	flags.BoolVarP(&largeFile, "L", "L", false, "large-file chunked path")
	flags.IntVarP(&checksumKind, "I", "I", 0, "checksum kind 0..3")
	flags.BoolVarP(&progressiveOn, "P", "P", false, "progressive container")
	flags.StringVarP(&rangeSpec, "R", "R", "", "partial progressive decode range a-b")
	flags.BoolVarP(&streamingOn, "S", "S", false, "streaming decode via callback")
	flags.BoolVarP(&splitOn, "X", "X", false, "split archive mode")
	flags.Int64VarP(&maxPartSize, "M", "M", 0, "max split-part size in bytes")
	flags.BoolVarP(&dedupOn, "D", "D", false, "dedup filter")
	flags.IntVarP(&dedupChunk, "C", "C", 0, "dedup chunk size in bytes")
	flags.IntVarP(&dedupHash, "H", "H", 0, "dedup hash 0..3 (sha1/md5/crc32/xxh64)")
	flags.IntVarP(&dedupMode, "V", "V", 0, "dedup mode 0..2 (fixed/variable/smart)")

	return cmd
}

func defaultOutputSuffix(mode config.Mode, idx codec.Index) string {
	if mode == config.Decompress {
		return ".out"
	}
	return idx.Extension()
}

func printCodecs() {
	fmt.Println("Available codecs:")
	for i := codec.Huffman; i <= codec.LZ77Encrypted; i++ {
		fmt.Printf("  %d  %-16s %s\n", i, i.Extension(), codecName(i))
	}
}

func codecName(idx codec.Index) string {
	switch idx {
	case codec.Huffman:
		return "Huffman"
	case codec.RLE:
		return "RLE"
	case codec.HuffmanParallel:
		return "Huffman (parallel)"
	case codec.RLEParallel:
		return "RLE (parallel)"
	case codec.LZ77:
		return "LZ77"
	case codec.LZ77Parallel:
		return "LZ77 (parallel)"
	case codec.LZ77Encrypted:
		return "LZ77 + encryption"
	default:
		return "unknown"
	}
}

func printSummary(cfg *config.Config, result *filecompressor.Result) {
	fmt.Printf("Original size:   %d bytes\n", result.OriginalSize)
	fmt.Printf("Compressed size: %d bytes\n", result.CompressedSize)
	if cfg.Mode == config.Compress && result.OriginalSize > 0 {
		fmt.Printf("Ratio:           %.1f%%\n", result.CompressionRatio())
	}
	if result.Dedup != nil {
		fmt.Printf("Dedup chunks:    %d total, %d duplicate\n", result.Dedup.TotalChunks, result.Dedup.DuplicateChunks)
	}
	if len(result.PartsWritten) > 0 {
		fmt.Printf("Parts written:   %d\n", len(result.PartsWritten))
	}
}
