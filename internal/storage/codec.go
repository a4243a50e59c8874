package storage

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/voxel"
	"github.com/klauspost/compress/zstd"
)

// Codec сжимает буферы вокселей. EncodeAll/DecodeAll zstd безопасны для конкурентного вызова.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec создаёт кодек zstd
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Encode сериализует и сжимает буфер
func (c *Codec) Encode(buf *voxel.Buffer) ([]byte, error) {
	raw, err := buf.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации буфера: %w", err)
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/8)), nil
}

// Decode распаковывает и разбирает буфер
func (c *Codec) Decode(data []byte) (*voxel.Buffer, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки буфера: %w", err)
	}
	buf := &voxel.Buffer{}
	if err := buf.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close освобождает ресурсы кодека
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
