package filecompressor

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/wrenfield-io/filecompressor/internal/checksum"
	"github.com/wrenfield-io/filecompressor/internal/chunkio"
	"github.com/wrenfield-io/filecompressor/internal/codec"
	"github.com/wrenfield-io/filecompressor/internal/config"
	"github.com/wrenfield-io/filecompressor/internal/dedup"
	"github.com/wrenfield-io/filecompressor/internal/encryption"
	"github.com/wrenfield-io/filecompressor/internal/errs"
	"github.com/wrenfield-io/filecompressor/internal/progressive"
	"github.com/wrenfield-io/filecompressor/internal/splitarchive"
	"github.com/wrenfield-io/filecompressor/internal/worker"
)

// baseCodec resolves the whole-file primitive codec for cfg.Algorithm,
// with the -O preset already folded into the tree-depth/LZ77-params
// arguments.
func baseCodec(cfg *config.Config) (codec.Codec, error) {
	return codec.New(cfg.Algorithm, cfg.Optimization.HuffmanMaxDepth(), cfg.Optimization.LZ77Params())
}

// Run drives one compress or decompress job to completion, reading
// cfg.InputPath and writing cfg.OutputPath (or its numbered split parts).
func Run(cfg *config.Config, progress ProgressCallback) (*Result, error) {
	emit(progress, ProgressEvent{Type: EventStart})

	switch cfg.Mode {
	case config.Compress:
		return runCompress(cfg, progress)
	case config.Decompress:
		return runDecompress(cfg, progress)
	default:
		return nil, fmt.Errorf("filecompressor: %w: unsupported mode", errs.ConfigInvalid)
	}
}

func runCompress(cfg *config.Config, progress ProgressCallback) (*Result, error) {
	data, err := readSource(cfg, cfg.InputPath, false)
	if err != nil {
		return nil, err
	}
	result := &Result{OriginalSize: uint64(len(data))}

	if cfg.Dedup {
		emit(progress, ProgressEvent{Type: EventStageStart, Stage: "dedup"})
		encoded, stats := dedup.Encode(data, dedup.Options{Mode: cfg.DedupMode, ChunkSize: cfg.DedupChunkSize, Hash: cfg.DedupHash})
		data = encoded
		result.Dedup = &stats
		emit(progress, ProgressEvent{Type: EventStageComplete, Stage: "dedup"})
	}

	switch {
	case cfg.Progressive:
		if err := compressProgressive(cfg, data, result); err != nil {
			return nil, err
		}
	case cfg.Split:
		if err := compressSplit(cfg, data, result); err != nil {
			return nil, err
		}
	default:
		if err := compressRaw(cfg, data, result, progress); err != nil {
			return nil, err
		}
	}

	emit(progress, ProgressEvent{Type: EventComplete})
	return result, nil
}

func compressProgressive(cfg *config.Config, data []byte, result *Result) error {
	c, err := baseCodec(cfg)
	if err != nil {
		return err
	}
	blockSize := uint32(cfg.BufferSize)
	if blockSize == 0 {
		blockSize = 65536
	}
	out := progressive.Compress(data, progressive.Options{
		Algorithm:     cfg.Algorithm,
		Codec:         c,
		BlockSize:     blockSize,
		FileChecksum:  cfg.ChecksumKind,
		BlockChecksum: cfg.ChecksumKind,
		// FlagStreamingOptimized's fixed-stride index (header_size +
		// block*(block_header_size+block_size)) is only valid when every
		// block's on-disk footprint equals block_size. None of Huffman,
		// RLE, or LZ77 make that guarantee (RLE in particular can more
		// than double a block on non-repetitive input), so this
		// orchestrator never requests it, matching
		// original_source/progressive.c's progressive_compress_file,
		// which never sets the flag either. Range decode falls back to
		// ProgressiveContext's linear block-header scan.
		StreamingOptimized: false,
		DedupBlocks:        cfg.Dedup,
		EncryptionKey:      cfg.EncryptionKey,
	})
	result.CompressedSize = uint64(len(out))
	// Progressive already carries its own file/block checksums, so the
	// chunked write here stays unframed.
	return writeFile(cfg, cfg.OutputPath, out, false)
}

func compressSplit(cfg *config.Config, data []byte, result *Result) error {
	c, err := baseCodec(cfg)
	if err != nil {
		return err
	}
	parts, err := splitarchive.Split(data, c, cfg.MaxPartSize, cfg.ChecksumKind, cfg.EncryptionKey)
	if err != nil {
		return err
	}
	var total uint64
	for _, p := range parts {
		path := splitarchive.PartName(cfg.OutputPath, p.Header.PartNumber)
		// Each part already carries its own PartHeader checksum, so the
		// chunked write here stays unframed too.
		if err := writeFile(cfg, path, p.Body, false); err != nil {
			return err
		}
		result.PartsWritten = append(result.PartsWritten, path)
		total += uint64(len(p.Body))
	}
	result.CompressedSize = total
	return nil
}

func compressRaw(cfg *config.Config, data []byte, result *Result, progress ProgressCallback) error {
	var out []byte

	if cfg.Algorithm.IsEncrypted() {
		encoded, err := encryption.CompressAndEncrypt(data, cfg.Optimization.LZ77Params(), cfg.EncryptionKey)
		if err != nil {
			return err
		}
		out = encoded
	} else {
		c, err := baseCodec(cfg)
		if err != nil {
			return err
		}
		if cfg.Algorithm.IsParallel() {
			emit(progress, ProgressEvent{Type: EventStageStart, Stage: "worker"})
			out = worker.Compress(c, data, cfg.ThreadCount, &worker.Progress{})
			emit(progress, ProgressEvent{Type: EventStageComplete, Stage: "worker"})
		} else {
			out = c.Compress(data)
		}
		if len(cfg.EncryptionKey) > 0 {
			encrypted, err := encryption.Encrypt(out, cfg.EncryptionKey)
			if err != nil {
				return err
			}
			out = encrypted
		}
	}

	result.CompressedSize = uint64(len(out))
	// The raw path is the one artifact kind with no structural checksum of
	// its own, so it is the only one that gets chunkio's framed variant.
	return writeFile(cfg, cfg.OutputPath, out, true)
}

func runDecompress(cfg *config.Config, progress ProgressCallback) (*Result, error) {
	result := &Result{}

	if cfg.Split {
		data, err := decompressSplit(cfg, result)
		if err != nil {
			return nil, err
		}
		return finishDecompress(cfg, data, result, progress)
	}

	// Mirrors compressProgressive/compressRaw's framing choice: progressive
	// artifacts are read unframed, raw artifacts are read framed.
	data, err := readSource(cfg, cfg.InputPath, !cfg.Progressive)
	if err != nil {
		return nil, err
	}
	result.CompressedSize = uint64(len(data))

	if cfg.Progressive || bytes.HasPrefix(data, progressive.Magic[:]) {
		decoded, err := decompressProgressive(cfg, data)
		if err != nil {
			return nil, err
		}
		return finishDecompress(cfg, decoded, result, progress)
	}

	decoded, err := decompressRaw(cfg, data)
	if err != nil {
		return nil, err
	}
	return finishDecompress(cfg, decoded, result, progress)
}

func decompressProgressive(cfg *config.Config, data []byte) ([]byte, error) {
	c, err := baseCodec(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Range != nil {
		return progressive.DecodeRange(data, c, cfg.EncryptionKey, cfg.Range.Start, cfg.Range.End)
	}
	if cfg.Streaming {
		var out []byte
		err := progressive.DecodeStream(data, c, cfg.EncryptionKey, func(block []byte) bool {
			out = append(out, block...)
			return true
		})
		return out, err
	}
	return progressive.DecodeFull(data, c, cfg.EncryptionKey)
}

func decompressSplit(cfg *config.Config, result *Result) ([]byte, error) {
	c, err := baseCodec(cfg)
	if err != nil {
		return nil, err
	}

	var parts [][]byte
	var aggregate error
	for p := uint32(1); p <= splitarchive.MaxParts; p++ {
		path := splitarchive.PartName(cfg.InputPath, p)
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				break
			}
			aggregate = multierror.Append(aggregate, err)
			break
		}
		parts = append(parts, raw)
		result.CompressedSize += uint64(len(raw))
	}
	if len(parts) == 0 {
		return nil, errs.NewMissingPart(1)
	}
	if me, ok := aggregate.(*multierror.Error); ok {
		result.Errors = me
	}
	return splitarchive.Join(parts, c, cfg.EncryptionKey)
}

func decompressRaw(cfg *config.Config, data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, []byte(encryption.Header)) {
		if cfg.Algorithm.IsEncrypted() {
			return encryption.DecryptAndDecompress(data, cfg.EncryptionKey)
		}
		decrypted, err := encryption.Decrypt(data, cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		data = decrypted
	}

	c, err := baseCodec(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Algorithm.IsParallel() {
		return worker.Decompress(c, data, cfg.ThreadCount)
	}
	return c.Decompress(data)
}

func finishDecompress(cfg *config.Config, data []byte, result *Result, progress ProgressCallback) (*Result, error) {
	if cfg.Dedup {
		emit(progress, ProgressEvent{Type: EventStageStart, Stage: "dedup"})
		decoded, err := dedup.Decode(data)
		if err != nil {
			return nil, err
		}
		data = decoded
		emit(progress, ProgressEvent{Type: EventStageComplete, Stage: "dedup"})
	}
	result.OriginalSize = uint64(len(data))
	// The restored file is plain content, not one of our own containers, so
	// it is always written unframed.
	if err := writeFile(cfg, cfg.OutputPath, data, false); err != nil {
		return nil, err
	}
	emit(progress, ProgressEvent{Type: EventComplete})
	return result, nil
}

// readSource reads path in full, using chunkio's buffered reader instead of
// a single os.ReadFile when cfg.LargeFile is set (the "-L" path spec.md
// §4.1 describes). framed selects chunkio's checksum-framed record variant,
// for callers reading back an artifact that carries no checksum of its
// own (the raw pipeline path); it must agree with whatever writeFile used
// to produce path.
func readSource(cfg *config.Config, path string, framed bool) ([]byte, error) {
	if !cfg.LargeFile {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("filecompressor: %w: %v", errs.IoOpen, err)
		}
		return data, nil
	}

	r, err := chunkio.Open(path, cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if framed && cfg.ChecksumKind != checksum.None {
		fr := chunkio.NewFramedReader(r)
		data, ok, err := fr.NextRecord()
		if err != nil {
			return nil, fmt.Errorf("filecompressor: %w: %v", errs.IoRead, err)
		}
		if !ok {
			return nil, fmt.Errorf("filecompressor: %w: chunked record checksum mismatch", errs.ContainerChecksumMismatch)
		}
		return data, nil
	}

	data := make([]byte, 0, r.Size())
	for {
		chunk, ok, err := r.NextChunk()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		data = append(data, chunk...)
	}
	return data, nil
}

// writeFile writes data to path in full, using chunkio's buffered writer
// instead of a single os.WriteFile when cfg.LargeFile is set. framed wraps
// data in one chunkio-framed record when cfg.ChecksumKind is also set, for
// the one artifact kind (raw) with no checksum of its own; readSource must
// be called with the same framed value to read it back.
func writeFile(cfg *config.Config, path string, data []byte, framed bool) error {
	if !cfg.LargeFile {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("filecompressor: %w: %v", errs.IoWrite, err)
		}
		return nil
	}

	w, err := chunkio.Create(path, cfg.BufferSize)
	if err != nil {
		return err
	}

	if framed && cfg.ChecksumKind != checksum.None {
		fw := chunkio.NewFramedWriter(w, cfg.ChecksumKind)
		if err := fw.Write(data); err != nil {
			return err
		}
		return fw.Close()
	}

	if err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}
