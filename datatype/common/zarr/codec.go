package zarr

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DefaultZstdLevel is the numcodecs zstd level written to .zarray.
const DefaultZstdLevel = 1

var (
	decoderOnce sync.Once
	decoder     *zstd.Decoder
	decoderErr  error

	encodersMu sync.Mutex
	encoders   = make(map[zstd.EncoderLevel]*zstd.Encoder)
)

// zstdEncoder returns a shared encoder for the level.  EncodeAll may be called
// concurrently on one encoder.
func zstdEncoder(level zstd.EncoderLevel) (*zstd.Encoder, error) {
	encodersMu.Lock()
	defer encodersMu.Unlock()
	if enc, found := encoders[level]; found {
		return enc, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, err
	}
	encoders[level] = enc
	return enc, nil
}

func zstdDecoder() (*zstd.Decoder, error) {
	decoderOnce.Do(func() {
		decoder, decoderErr = zstd.NewReader(nil)
	})
	return decoder, decoderErr
}

// compress encodes a chunk according to the compressor configuration.
func compress(c *CompressorConfig, data []byte) ([]byte, error) {
	if c == nil {
		return data, nil
	}
	switch c.ID {
	case "zstd":
		enc, err := zstdEncoder(zstd.EncoderLevelFromZstd(c.Level))
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
	default:
		return nil, fmt.Errorf("unsupported compressor %q", c.ID)
	}
}

// decompress decodes a stored chunk.
func decompress(c *CompressorConfig, data []byte) ([]byte, error) {
	if c == nil {
		return data, nil
	}
	switch c.ID {
	case "zstd":
		dec, err := zstdDecoder()
		if err != nil {
			return nil, err
		}
		return dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unsupported compressor %q", c.ID)
	}
}
