package pipeline_test

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"vidbits/internal/pipeline"
	"vidbits/internal/resolution"
	"vidbits/internal/testsupport"
	"vidbits/internal/transducer"
)

const chunkSamples = 8

// 8 samples -> 16 bytes -> exactly 128 bits.
var grid8x16 = resolution.Resolution{Width: 8, Height: 16}

func baseConfig(readAhead int) pipeline.Config {
	return pipeline.Config{
		Resolution:            grid8x16,
		Scale:                 2,
		ChunkSamples:          chunkSamples,
		SimilarityThreshold:   90,
		BinarizationThreshold: 127,
		ReadAhead:             readAhead,
	}
}

func noisyChunks(n int) [][]int16 {
	rng := rand.New(rand.NewSource(7))
	out := make([][]int16, n)
	for i := range out {
		chunk := make([]int16, chunkSamples)
		for j := range chunk {
			chunk[j] = int16(rng.Intn(1 << 16))
		}
		out[i] = chunk
	}
	return out
}

func flatten(chunks [][]int16) []int16 {
	var out []int16
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func encodeFrames(t *testing.T, cfg pipeline.Config, samples []int16) *testsupport.FrameBuffer {
	t.Helper()
	enc, err := pipeline.NewEncoder(cfg, testsupport.NewIdentityTransducer(cfg.ChunkSamples))
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	frames := testsupport.NewFrameBuffer()
	if _, err := enc.Run(context.Background(), testsupport.NewSampleBuffer(samples), frames); err != nil {
		t.Fatalf("encode Run error: %v", err)
	}
	return frames
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, depth := range []int{0, 3} {
		cfg := baseConfig(depth)
		chunks := noisyChunks(5)
		samples := append(flatten(chunks), 11, 22, 33)

		enc, err := pipeline.NewEncoder(cfg, testsupport.NewIdentityTransducer(chunkSamples))
		if err != nil {
			t.Fatalf("NewEncoder error: %v", err)
		}
		frames := testsupport.NewFrameBuffer()
		encStats, err := enc.Run(context.Background(), testsupport.NewSampleBuffer(samples), frames)
		if err != nil {
			t.Fatalf("depth %d: encode error: %v", depth, err)
		}
		if encStats.Frames != 6 || len(frames.Frames) != 6 {
			t.Fatalf("depth %d: expected 6 frames, got stats=%d buffer=%d", depth, encStats.Frames, len(frames.Frames))
		}
		if encStats.PaddedSamples != chunkSamples-3 {
			t.Fatalf("depth %d: expected %d padded samples, got %d", depth, chunkSamples-3, encStats.PaddedSamples)
		}
		if frames.Frames[0].Width != 16 || frames.Frames[0].Height != 32 {
			t.Fatalf("depth %d: unexpected frame size %dx%d", depth, frames.Frames[0].Width, frames.Frames[0].Height)
		}

		dec, err := pipeline.NewDecoder(cfg, testsupport.NewIdentityTransducer(chunkSamples))
		if err != nil {
			t.Fatalf("NewDecoder error: %v", err)
		}
		sink := testsupport.NewSampleBuffer(nil)
		decStats, err := dec.Run(context.Background(), frames, sink)
		if err != nil {
			t.Fatalf("depth %d: decode error: %v", depth, err)
		}
		if decStats.Written != 6 || decStats.Skipped != 0 || decStats.Held != 0 {
			t.Fatalf("depth %d: unexpected decode stats %+v", depth, decStats)
		}
		want := append(slices.Clone(samples), make([]int16, chunkSamples-3)...)
		if !slices.Equal(sink.Written(), want) {
			t.Fatalf("depth %d: decoded samples differ from input", depth)
		}
	}
}

func TestExactCapacityPayloadReconstructs(t *testing.T) {
	cfg := baseConfig(0)
	chunk := noisyChunks(1)[0]
	frames := encodeFrames(t, cfg, chunk)

	fake := testsupport.NewIdentityTransducer(chunkSamples)
	dec, err := pipeline.NewDecoder(cfg, fake)
	if err != nil {
		t.Fatalf("NewDecoder error: %v", err)
	}
	if _, err := dec.Run(context.Background(), frames, testsupport.NewSampleBuffer(nil)); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	encoded, _ := testsupport.NewIdentityTransducer(chunkSamples).Encode(chunk)
	if len(encoded)*8 != grid8x16.Capacity() {
		t.Fatalf("fixture payload is %d bits, want %d", len(encoded)*8, grid8x16.Capacity())
	}
	if len(fake.Decoded) != 1 || !slices.Equal(fake.Decoded[0], encoded) {
		t.Fatalf("decoded payload %v, want %v", fake.Decoded, encoded)
	}
}

func TestDecoderSkipsIdenticalFrames(t *testing.T) {
	cfg := baseConfig(2)
	chunk := noisyChunks(1)[0]
	frames := encodeFrames(t, cfg, flatten([][]int16{chunk, chunk, chunk}))

	var outcomes []pipeline.Outcome
	cfg.Observer = func(evt pipeline.FrameEvent) { outcomes = append(outcomes, evt.Outcome) }
	dec, err := pipeline.NewDecoder(cfg, testsupport.NewIdentityTransducer(chunkSamples))
	if err != nil {
		t.Fatalf("NewDecoder error: %v", err)
	}
	sink := testsupport.NewSampleBuffer(nil)
	stats, err := dec.Run(context.Background(), frames, sink)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(sink.Chunks) != 1 || stats.Skipped != 2 {
		t.Fatalf("expected one chunk and two skips, got %d chunks and %+v", len(sink.Chunks), stats)
	}
	want := []pipeline.Outcome{pipeline.OutcomeWritten, pipeline.OutcomeSkipped, pipeline.OutcomeSkipped}
	if !slices.Equal(outcomes, want) {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
}

func TestDecoderHoldsLastGoodChunk(t *testing.T) {
	cfg := baseConfig(0)
	chunks := noisyChunks(6)
	frames := encodeFrames(t, cfg, flatten(chunks))

	fake := testsupport.NewIdentityTransducer(chunkSamples)
	fake.FailDecode[5] = true
	dec, err := pipeline.NewDecoder(cfg, fake)
	if err != nil {
		t.Fatalf("NewDecoder error: %v", err)
	}
	sink := testsupport.NewSampleBuffer(nil)
	stats, err := dec.Run(context.Background(), frames, sink)
	if err != nil {
		t.Fatalf("decode failure on one frame must not stop the run: %v", err)
	}
	if stats.Held != 1 || stats.Written != 6 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !slices.Equal(sink.Chunks[4], chunks[3]) {
		t.Fatalf("frame 5 should repeat frame 4 output")
	}
	if !slices.Equal(sink.Chunks[5], chunks[5]) {
		t.Fatalf("frame 6 should decode normally")
	}
}

func TestDecoderDropsFailureBeforeFirstGood(t *testing.T) {
	cfg := baseConfig(0)
	chunks := noisyChunks(2)
	frames := encodeFrames(t, cfg, flatten(chunks))

	fake := testsupport.NewIdentityTransducer(chunkSamples)
	fake.FailDecode[1] = true
	dec, err := pipeline.NewDecoder(cfg, fake)
	if err != nil {
		t.Fatalf("NewDecoder error: %v", err)
	}
	sink := testsupport.NewSampleBuffer(nil)
	stats, err := dec.Run(context.Background(), frames, sink)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if stats.Dropped != 1 || len(sink.Chunks) != 1 || !slices.Equal(sink.Chunks[0], chunks[1]) {
		t.Fatalf("expected first frame dropped and second written, got %+v", stats)
	}
}

func TestDecoderStateResetsBetweenRuns(t *testing.T) {
	cfg := baseConfig(0)
	chunk := noisyChunks(1)[0]
	frames := encodeFrames(t, cfg, chunk)

	fake := testsupport.NewIdentityTransducer(chunkSamples)
	// The only frame of the second run fails; a hold carried over from the
	// first run would repeat its chunk instead of dropping it.
	fake.FailDecode[2] = true
	dec, err := pipeline.NewDecoder(cfg, fake)
	if err != nil {
		t.Fatalf("NewDecoder error: %v", err)
	}
	for run := 0; run < 2; run++ {
		frames.Rewind()
		sink := testsupport.NewSampleBuffer(nil)
		stats, err := dec.Run(context.Background(), frames, sink)
		if err != nil {
			t.Fatalf("run %d: decode error: %v", run, err)
		}
		if stats.Skipped != 0 {
			t.Fatalf("run %d: expected a fresh gate, got %+v", run, stats)
		}
		switch run {
		case 0:
			if len(sink.Chunks) != 1 || !slices.Equal(sink.Chunks[0], chunk) {
				t.Fatalf("run 0: expected the chunk written, got %+v", stats)
			}
		case 1:
			if stats.Held != 0 || stats.Dropped != 1 || len(sink.Chunks) != 0 {
				t.Fatalf("run 1: expected an empty hold, got %+v", stats)
			}
		}
	}
}

func TestEncoderTransducerFailureIsFatal(t *testing.T) {
	fake := testsupport.NewIdentityTransducer(chunkSamples)
	fake.FailEncode[2] = true
	enc, err := pipeline.NewEncoder(baseConfig(2), fake)
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	frames := testsupport.NewFrameBuffer()
	_, err = enc.Run(context.Background(), testsupport.NewSampleBuffer(flatten(noisyChunks(4))), frames)
	if !errors.Is(err, pipeline.ErrPayloadEncode) {
		t.Fatalf("expected ErrPayloadEncode, got %v", err)
	}
	if len(frames.Frames) != 1 {
		t.Fatalf("expected one frame before the failure, got %d", len(frames.Frames))
	}
}

func TestSinkFailuresAreFatal(t *testing.T) {
	for _, depth := range []int{0, 2} {
		cfg := baseConfig(depth)
		enc, err := pipeline.NewEncoder(cfg, testsupport.NewIdentityTransducer(chunkSamples))
		if err != nil {
			t.Fatalf("NewEncoder error: %v", err)
		}
		badFrames := testsupport.NewFrameBuffer()
		badFrames.FailWriteAt = 1
		if _, err := enc.Run(context.Background(), testsupport.NewSampleBuffer(flatten(noisyChunks(4))), badFrames); !errors.Is(err, testsupport.ErrInjected) {
			t.Fatalf("depth %d: expected frame sink error, got %v", depth, err)
		}

		frames := encodeFrames(t, cfg, flatten(noisyChunks(4)))
		dec, err := pipeline.NewDecoder(cfg, testsupport.NewIdentityTransducer(chunkSamples))
		if err != nil {
			t.Fatalf("NewDecoder error: %v", err)
		}
		badSink := testsupport.NewSampleBuffer(nil)
		badSink.FailWriteAt = 2
		if _, err := dec.Run(context.Background(), frames, badSink); !errors.Is(err, testsupport.ErrInjected) {
			t.Fatalf("depth %d: expected sample sink error, got %v", depth, err)
		}
	}
}

func TestEncoderCountsTruncatedPayloads(t *testing.T) {
	cfg := baseConfig(0)
	cfg.Resolution = resolution.Resolution{Width: 4, Height: 16}
	var events []pipeline.FrameEvent
	cfg.Observer = func(evt pipeline.FrameEvent) { events = append(events, evt) }
	enc, err := pipeline.NewEncoder(cfg, testsupport.NewIdentityTransducer(chunkSamples))
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	stats, err := enc.Run(context.Background(), testsupport.NewSampleBuffer(flatten(noisyChunks(2))), testsupport.NewFrameBuffer())
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	if stats.TruncatedFrames != 2 {
		t.Fatalf("expected 2 truncated frames, got %d", stats.TruncatedFrames)
	}
	if len(events) != 2 || !events[0].Truncated {
		t.Fatalf("expected truncation flagged in events, got %+v", events)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc, err := pipeline.NewEncoder(baseConfig(0), testsupport.NewIdentityTransducer(chunkSamples))
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	if _, err := enc.Run(ctx, testsupport.NewSampleBuffer(flatten(noisyChunks(2))), testsupport.NewFrameBuffer()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig(0)
	cfg.Resolution = resolution.Resolution{}
	if _, err := pipeline.NewEncoder(cfg, testsupport.NewIdentityTransducer(chunkSamples)); !errors.Is(err, resolution.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	cfg = baseConfig(0)
	cfg.Scale = 0
	if _, err := pipeline.NewDecoder(cfg, testsupport.NewIdentityTransducer(chunkSamples)); err == nil {
		t.Fatal("expected error for zero scale")
	}
	cfg = baseConfig(0)
	cfg.ChunkSamples = 0
	if _, err := pipeline.NewEncoder(cfg, testsupport.NewIdentityTransducer(chunkSamples)); err == nil {
		t.Fatal("expected error for zero chunk size")
	}
}

func TestRoundTripWithZstdTransducer(t *testing.T) {
	const rate, chunk = 8000, 480
	cfg := baseConfig(4)
	cfg.ChunkSamples = chunk
	cfg.Resolution = resolution.Resolution{Width: 96, Height: 100}

	opts := transducer.Options{SampleRate: rate, Channels: 1, ChunkSamples: chunk}
	encT, err := transducer.New("zstd", opts)
	if err != nil {
		t.Fatalf("transducer.New error: %v", err)
	}
	defer encT.Close()
	decT, err := transducer.New("zstd", opts)
	if err != nil {
		t.Fatalf("transducer.New error: %v", err)
	}
	defer decT.Close()

	samples := testsupport.Tone(chunk*4, rate, 1)
	enc, err := pipeline.NewEncoder(cfg, encT)
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	frames := testsupport.NewFrameBuffer()
	if _, err := enc.Run(context.Background(), testsupport.NewSampleBuffer(samples), frames); err != nil {
		t.Fatalf("encode error: %v", err)
	}

	cfg.SimilarityThreshold = 101
	dec, err := pipeline.NewDecoder(cfg, decT)
	if err != nil {
		t.Fatalf("NewDecoder error: %v", err)
	}
	sink := testsupport.NewSampleBuffer(nil)
	stats, err := dec.Run(context.Background(), frames, sink)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if stats.Held != 0 || stats.Dropped != 0 {
		t.Fatalf("unexpected decode failures %+v", stats)
	}
	if !slices.Equal(sink.Written(), samples) {
		t.Fatal("zstd round trip changed the samples")
	}
}

func TestAnalyzeProfilesGate(t *testing.T) {
	cfg := baseConfig(1)
	chunks := noisyChunks(2)
	frames := encodeFrames(t, cfg, flatten([][]int16{chunks[0], chunks[0], chunks[1]}))

	profile, err := pipeline.Analyze(context.Background(), cfg, frames)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(profile.Points) != 3 || profile.Skipped() != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if !profile.Points[1].Skipped || profile.Points[1].Adjacent != 100 {
		t.Fatalf("expected frame 1 to duplicate frame 0, got %+v", profile.Points[1])
	}
	if profile.Points[2].Skipped {
		t.Fatalf("expected frame 2 to pass the gate, got %+v", profile.Points[2])
	}
}

func TestFrameEventPercent(t *testing.T) {
	if got := (pipeline.FrameEvent{Index: 4, Total: 10}).Percent(); got != 50 {
		t.Fatalf("expected 50%%, got %v", got)
	}
	if got := (pipeline.FrameEvent{Index: 4}).Percent(); got != -1 {
		t.Fatalf("expected unknown progress, got %v", got)
	}
}
