package transducer

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

type zstdTransducer struct {
	opts Options
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

func newZstd(opts Options) (Transducer, error) {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &zstdTransducer{opts: opts, enc: enc, dec: dec}, nil
}

func (z *zstdTransducer) Name() string { return "zstd" }

func (z *zstdTransducer) Encode(samples []int16) ([]byte, error) {
	return seal(z.enc.EncodeAll(samplesToBytes(samples), nil)), nil
}

func (z *zstdTransducer) Decode(payload []byte) ([]int16, error) {
	body, err := open(payload)
	if err != nil {
		return nil, err
	}
	raw, err := z.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptPayload, err)
	}
	samples, err := bytesToSamples(raw)
	if err != nil {
		return nil, err
	}
	if err := checkSampleCount(z.opts, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func (z *zstdTransducer) Close() error {
	z.dec.Close()
	return z.enc.Close()
}
