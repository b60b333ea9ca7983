package store

import (
	"fmt"
	"qrmanager/internal/store/interfaces"
	"qrmanager/internal/structures"

	"github.com/klauspost/compress/zstd"
)

const defaultBackupLevel = "best"

// ZstdCompression packs legacy documents before they are rewritten. Backups
// are written once per migration, so both sides run single-threaded.
type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(document []byte) ([]byte, error) {
	return z.encoder.EncodeAll(document, make([]byte, 0, len(document)/4)), nil
}

func (z *ZstdCompression) Decompress(backup []byte) ([]byte, error) {
	return z.decoder.DecodeAll(backup, nil)
}

// NewZstdCompressor uses conf.Store.BackupLevel, one of fastest, default,
// better or best.
func NewZstdCompressor(conf *structures.Config) (interfaces.CompressorInterface, error) {
	name := conf.Store.BackupLevel
	if name == "" {
		name = defaultBackupLevel
	}
	ok, level := zstd.EncoderLevelFromString(name)
	if !ok {
		return nil, fmt.Errorf("unknown backup compression level %q", name)
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderCRC(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}
