//go:build opus

package transducer_test

import (
	"errors"
	"math"
	"slices"
	"testing"

	"vidbits/internal/transducer"
)

// 60 ms of 8 kHz mono, the default chunk.
var opusOptions = transducer.Options{
	SampleRate:      8000,
	Channels:        1,
	ChunkSamples:    480,
	Bitrate:         160000,
	MaxPayloadBytes: 1200,
}

func rms(samples []int16) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestOpusRoundTripKeepsSignalEnergy(t *testing.T) {
	tr, err := transducer.New("opus", opusOptions)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer tr.Close()
	if !slices.Contains(transducer.Names(), "opus") {
		t.Fatalf("opus missing from %v", transducer.Names())
	}

	signal := sine(480 * 5)
	var last []int16
	for i := 0; i < 5; i++ {
		chunk := signal[i*480 : (i+1)*480]
		unit, err := tr.Encode(chunk)
		if err != nil {
			t.Fatalf("chunk %d: Encode error: %v", i, err)
		}
		padded := append(slices.Clone(unit), make([]byte, 64)...)
		last, err = tr.Decode(padded)
		if err != nil {
			t.Fatalf("chunk %d: Decode error: %v", i, err)
		}
		if len(last) != len(chunk) {
			t.Fatalf("chunk %d: decoded %d samples, want %d", i, len(last), len(chunk))
		}
	}
	// Lossy, so compare loudness once the decoder has settled.
	want := rms(signal[4*480:])
	if got := rms(last); got < want/2 || got > want*3/2 {
		t.Fatalf("decoded rms %.0f too far from input rms %.0f", got, want)
	}
}

func TestOpusHonoursPayloadLimit(t *testing.T) {
	opts := opusOptions
	opts.MaxPayloadBytes = 100
	tr, err := transducer.New("opus", opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer tr.Close()
	signal := sine(480 * 4)
	for i := 0; i < 4; i++ {
		unit, err := tr.Encode(signal[i*480 : (i+1)*480])
		if err != nil {
			t.Fatalf("chunk %d: Encode error: %v", i, err)
		}
		if len(unit) > opts.MaxPayloadBytes {
			t.Fatalf("chunk %d: unit of %d bytes exceeds limit %d", i, len(unit), opts.MaxPayloadBytes)
		}
	}

	opts.MaxPayloadBytes = 4
	if _, err := transducer.New("opus", opts); err == nil {
		t.Fatal("expected error when the limit cannot hold a packet")
	}
}

func TestOpusRejectsDamagedUnits(t *testing.T) {
	tr, err := transducer.New("opus", opusOptions)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer tr.Close()
	unit, err := tr.Encode(sine(480))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	damaged := slices.Clone(unit)
	damaged[len(damaged)/2] ^= 0x5A
	if _, err := tr.Decode(damaged); !errors.Is(err, transducer.ErrCorruptPayload) {
		t.Fatalf("expected ErrCorruptPayload for flipped bits, got %v", err)
	}
	if _, err := tr.Decode(make([]byte, 16)); !errors.Is(err, transducer.ErrCorruptPayload) {
		t.Fatalf("expected ErrCorruptPayload for blank frame, got %v", err)
	}
}

func TestOpusRejectsUnsupportedStreams(t *testing.T) {
	cases := map[string]transducer.Options{
		"rate":     {SampleRate: 44100, Channels: 1, ChunkSamples: 441},
		"channels": {SampleRate: 8000, Channels: 3, ChunkSamples: 480},
		"duration": {SampleRate: 8000, Channels: 1, ChunkSamples: 100},
		"long":     {SampleRate: 8000, Channels: 1, ChunkSamples: 960},
	}
	for name, opts := range cases {
		if _, err := transducer.New("opus", opts); err == nil {
			t.Fatalf("%s: expected error for %+v", name, opts)
		}
	}
}
