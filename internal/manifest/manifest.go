// Package manifest records the parameters of an encode run next to its video
// so a later decode can reproduce the grid without re-deriving it.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"vidbits/internal/fileutil"
	"vidbits/internal/resolution"
)

// Version is the manifest schema written by this build.
const Version = 1

// Suffix is appended to the video path to form the manifest path.
const Suffix = ".vidbits.toml"

// ErrNotFound reports a video without a manifest.
var ErrNotFound = errors.New("manifest not found")

// Codec records how frames were laid out.
type Codec struct {
	Resolution      resolution.Resolution `toml:"resolution"`
	Scale           int                   `toml:"scale"`
	Bitrate         int                   `toml:"bitrate"`
	FrameDurationMs int                   `toml:"frame_duration_ms"`
	FPS             float64               `toml:"fps"`
	Orientation     string                `toml:"orientation"`
	Choice          int                   `toml:"choice"`
	Transducer      string                `toml:"transducer"`
}

// Audio records the PCM stream that was encoded.
type Audio struct {
	SampleRate    int   `toml:"sample_rate"`
	Channels      int   `toml:"channels"`
	ChunkSamples  int   `toml:"chunk_samples"`
	Samples       int64 `toml:"samples"`
	PaddedSamples int   `toml:"padded_samples"`
}

// Video records the frame stream that was written.
type Video struct {
	Container string `toml:"container"`
	Frames    int    `toml:"frames"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
}

// Manifest is the sidecar written after a successful encode.
type Manifest struct {
	Version   int       `toml:"version"`
	RunID     string    `toml:"run_id"`
	CreatedAt time.Time `toml:"created_at"`
	Source    string    `toml:"source"`
	Codec     Codec     `toml:"codec"`
	Audio     Audio     `toml:"audio"`
	Video     Video     `toml:"video"`
}

// PathFor returns the manifest path for a video file.
func PathFor(videoPath string) string {
	return videoPath + Suffix
}

// Validate checks the fields a decode depends on.
func (m Manifest) Validate() error {
	if m.Version != Version {
		return fmt.Errorf("manifest: unsupported version %d", m.Version)
	}
	if m.Codec.Resolution.Capacity() <= 0 {
		return fmt.Errorf("manifest: %w: resolution %s", resolution.ErrInvalidCapacity, m.Codec.Resolution)
	}
	if m.Codec.Scale < 1 {
		return fmt.Errorf("manifest: invalid scale %d", m.Codec.Scale)
	}
	if m.Audio.SampleRate <= 0 || m.Audio.Channels <= 0 {
		return fmt.Errorf("manifest: invalid audio format %d Hz x %d", m.Audio.SampleRate, m.Audio.Channels)
	}
	if m.Audio.ChunkSamples <= 0 {
		return fmt.Errorf("manifest: invalid chunk size %d", m.Audio.ChunkSamples)
	}
	if m.Codec.Transducer == "" {
		return errors.New("manifest: transducer missing")
	}
	return nil
}

// Write stores m at path, replacing any previous manifest atomically.
func Write(path string, m Manifest) error {
	if m.Version == 0 {
		m.Version = Version
	}
	if err := m.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// Read loads and validates the manifest at path.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// ForVideo loads the manifest stored beside videoPath.
func ForVideo(videoPath string) (Manifest, error) {
	return Read(PathFor(videoPath))
}
