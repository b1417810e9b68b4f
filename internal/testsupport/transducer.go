package testsupport

import (
	"encoding/binary"
	"fmt"
)

// IdentityTransducer stores samples as little-endian bytes with no framing.
// Decode trims to ChunkSamples so zero padding added by the bit grid is
// dropped. Individual calls can be made to fail by their 1-based index.
type IdentityTransducer struct {
	ChunkSamples int
	FailEncode   map[int]bool
	FailDecode   map[int]bool

	EncodeCalls int
	DecodeCalls int
	// Decoded records the payload handed to every Decode call.
	Decoded [][]byte
}

// NewIdentityTransducer returns a transducer for chunks of chunkSamples values.
func NewIdentityTransducer(chunkSamples int) *IdentityTransducer {
	return &IdentityTransducer{
		ChunkSamples: chunkSamples,
		FailEncode:   map[int]bool{},
		FailDecode:   map[int]bool{},
	}
}

func (f *IdentityTransducer) Name() string { return "identity" }

func (f *IdentityTransducer) Encode(samples []int16) ([]byte, error) {
	f.EncodeCalls++
	if f.FailEncode[f.EncodeCalls] {
		return nil, fmt.Errorf("encode call %d: %w", f.EncodeCalls, ErrInjected)
	}
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out, nil
}

func (f *IdentityTransducer) Decode(payload []byte) ([]int16, error) {
	f.DecodeCalls++
	f.Decoded = append(f.Decoded, append([]byte(nil), payload...))
	if f.FailDecode[f.DecodeCalls] {
		return nil, fmt.Errorf("decode call %d: %w", f.DecodeCalls, ErrInjected)
	}
	n := len(payload) / 2
	if f.ChunkSamples > 0 && n > f.ChunkSamples {
		n = f.ChunkSamples
	}
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}
	return out, nil
}

func (f *IdentityTransducer) Close() error { return nil }
