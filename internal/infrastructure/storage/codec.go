package storage

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// Codec turns records into compressed payloads. Safe for concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a sonic + zstd codec
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Encode marshals and compresses a record
func (c *Codec) Encode(rec *types.LayoutRecord) ([]byte, error) {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode decompresses and unmarshals a payload
func (c *Codec) Decode(payload []byte) (*types.LayoutRecord, error) {
	data, err := c.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress record: %w", err)
	}
	var rec types.LayoutRecord
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// Close releases the encoder and decoder
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
