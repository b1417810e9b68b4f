package testsupport

import (
	"errors"
	"io"

	"vidbits/internal/raster"
)

// FrameBuffer is an in-memory frame stream. Written frames can be read back
// in order once writing is done.
type FrameBuffer struct {
	Frames []*raster.Raster
	// FailWriteAt makes the n-th WriteFrame call (0-based) fail when >= 0.
	FailWriteAt int

	next   int
	writes int
}

// NewFrameBuffer returns an empty buffer that never fails.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{FailWriteAt: -1}
}

// ErrInjected is returned by test doubles when a failure was requested.
var ErrInjected = errors.New("injected failure")

func (b *FrameBuffer) WriteFrame(frame *raster.Raster) error {
	defer func() { b.writes++ }()
	if b.FailWriteAt >= 0 && b.writes == b.FailWriteAt {
		return ErrInjected
	}
	clone := raster.New(frame.Width, frame.Height)
	copy(clone.Pix, frame.Pix)
	b.Frames = append(b.Frames, clone)
	return nil
}

func (b *FrameBuffer) ReadFrame() (*raster.Raster, error) {
	if b.next >= len(b.Frames) {
		return nil, io.EOF
	}
	frame := b.Frames[b.next]
	b.next++
	return frame, nil
}

// Rewind restarts reading from the first frame.
func (b *FrameBuffer) Rewind() {
	b.next = 0
}

// SampleBuffer is an in-memory PCM source and sink.
type SampleBuffer struct {
	Samples []int16
	// Chunks records each WriteChunk call.
	Chunks [][]int16
	// FailWriteAt makes the n-th WriteChunk call (0-based) fail when >= 0.
	FailWriteAt int

	pos int
}

// NewSampleBuffer returns a source yielding samples.
func NewSampleBuffer(samples []int16) *SampleBuffer {
	return &SampleBuffer{Samples: samples, FailWriteAt: -1}
}

func (b *SampleBuffer) ReadChunk(dst []int16) (int, error) {
	if b.pos >= len(b.Samples) {
		return 0, io.EOF
	}
	n := copy(dst, b.Samples[b.pos:])
	b.pos += n
	return n, nil
}

func (b *SampleBuffer) WriteChunk(samples []int16) error {
	if b.FailWriteAt >= 0 && len(b.Chunks) == b.FailWriteAt {
		return ErrInjected
	}
	b.Chunks = append(b.Chunks, append([]int16(nil), samples...))
	return nil
}

// Written concatenates every chunk written so far.
func (b *SampleBuffer) Written() []int16 {
	var out []int16
	for _, chunk := range b.Chunks {
		out = append(out, chunk...)
	}
	return out
}
