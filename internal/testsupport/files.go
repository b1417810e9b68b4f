package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"vidbits/internal/media/wavio"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Tone returns n interleaved samples of a 440 Hz tone at sampleRate,
// duplicated across channels.
func Tone(n, sampleRate, channels int) []int16 {
	if channels < 1 {
		channels = 1
	}
	out := make([]int16, n)
	for i := range out {
		frame := i / channels
		out[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(frame)/float64(sampleRate)))
	}
	return out
}

// WriteWAV writes samples to a 16-bit WAV file at path.
func WriteWAV(t testing.TB, path string, format wavio.Format, samples []int16) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	w, err := wavio.Create(path, format)
	if err != nil {
		t.Fatalf("create wav %s: %v", path, err)
	}
	if err := w.WriteChunk(samples); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close wav %s: %v", path, err)
	}
}

// ReadWAV returns every sample stored in the WAV file at path.
func ReadWAV(t testing.TB, path string) (wavio.Format, []int16) {
	t.Helper()

	r, err := wavio.Open(path)
	if err != nil {
		t.Fatalf("open wav %s: %v", path, err)
	}
	defer r.Close()

	var out []int16
	buf := make([]int16, 1024)
	for {
		n, err := r.ReadChunk(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	return r.Format(), out
}
