// Package wavio reads and writes the 16-bit PCM WAV files exchanged with the
// codec pipeline.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth       = 16
	pcmAudioFormat = 1
)

// Format describes an interleaved 16-bit PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// Validate ensures the format can be written.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("wav format: invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("wav format: invalid channel count %d", f.Channels)
	}
	return nil
}

// Reader streams interleaved samples from a WAV file.
type Reader struct {
	file   *os.File
	dec    *wav.Decoder
	format Format
	buf    *audio.IntBuffer
}

// Open validates the WAV header at path and positions the reader at the
// first sample.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		_ = file.Close()
		return nil, fmt.Errorf("open wav %s: not a valid WAV file", path)
	}
	if dec.BitDepth != bitDepth {
		_ = file.Close()
		return nil, fmt.Errorf("open wav %s: unsupported bit depth %d (only 16-bit PCM)", path, dec.BitDepth)
	}
	if err := dec.FwdToPCM(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open wav %s: locate PCM data: %w", path, err)
	}
	return &Reader{
		file:   file,
		dec:    dec,
		format: Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)},
	}, nil
}

// Format reports the stream format from the file header.
func (r *Reader) Format() Format {
	return r.format
}

// TotalSamples reports the number of interleaved samples in the data chunk.
func (r *Reader) TotalSamples() int64 {
	return r.dec.PCMLen() / (bitDepth / 8)
}

// ReadChunk fills dst with interleaved samples. It returns the number of
// samples read; a short count means the stream ended mid-chunk. io.EOF is
// returned only when no samples remain.
func (r *Reader) ReadChunk(dst []int16) (int, error) {
	if r.buf == nil || len(r.buf.Data) != len(dst) {
		r.buf = &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: r.format.Channels, SampleRate: r.format.SampleRate},
			Data:           make([]int, len(dst)),
			SourceBitDepth: bitDepth,
		}
	}
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("read wav samples: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(r.buf.Data[i])
	}
	return n, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Writer appends interleaved samples to a new WAV file.
type Writer struct {
	file    *os.File
	enc     *wav.Encoder
	format  Format
	written int64
}

// Create truncates path and writes a WAV header for format.
func Create(path string, format Format) (*Writer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}
	return &Writer{
		file:   file,
		enc:    wav.NewEncoder(file, format.SampleRate, bitDepth, format.Channels, pcmAudioFormat),
		format: format,
	}, nil
}

// WriteChunk appends samples.
func (w *Writer) WriteChunk(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: w.format.Channels, SampleRate: w.format.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := w.enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	w.written += int64(len(samples))
	return nil
}

// Samples reports the number of interleaved samples written so far.
func (w *Writer) Samples() int64 {
	return w.written
}

// Close finalizes the header sizes and closes the file.
func (w *Writer) Close() error {
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	if encErr != nil {
		return fmt.Errorf("finalize wav: %w", encErr)
	}
	return fileErr
}
