package transducer

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

type s2Transducer struct {
	opts Options
}

func newS2(opts Options) (Transducer, error) {
	return &s2Transducer{opts: opts}, nil
}

func (s *s2Transducer) Name() string { return "s2" }

func (s *s2Transducer) Encode(samples []int16) ([]byte, error) {
	return seal(s2.EncodeBetter(nil, samplesToBytes(samples))), nil
}

func (s *s2Transducer) Decode(payload []byte) ([]int16, error) {
	body, err := open(payload)
	if err != nil {
		return nil, err
	}
	raw, err := s2.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("%w: s2: %w", ErrCorruptPayload, err)
	}
	samples, err := bytesToSamples(raw)
	if err != nil {
		return nil, err
	}
	if err := checkSampleCount(s.opts, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *s2Transducer) Close() error { return nil }
