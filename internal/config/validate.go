package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	knownTransducers = []string{"opus", "pcm", "s2", "zstd"}
	knownContainers  = []string{"auto", "archive", "ffmpeg"}
	knownOrients     = []string{"default", "horizontal", "vertical"}
	knownLogFormats  = []string{"console", "json"}
	knownLogLevels   = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCodec(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if c.Pipeline.ReadAhead < 0 {
		return errors.New("pipeline.read_ahead must be >= 0")
	}
	return c.validateLogging()
}

func (c *Config) validateCodec() error {
	if c.Codec.Bitrate <= 0 {
		return errors.New("codec.bitrate must be positive")
	}
	if c.Codec.FrameDurationMs <= 0 {
		return errors.New("codec.frame_duration_ms must be positive")
	}
	if c.CapacityBits() <= 0 {
		return fmt.Errorf("codec.bitrate %d at %d ms yields no frame capacity", c.Codec.Bitrate, c.Codec.FrameDurationMs)
	}
	if c.Codec.FPS <= 0 {
		return errors.New("codec.fps must be positive")
	}
	if c.Codec.Scale < 1 {
		return errors.New("codec.scale must be >= 1")
	}
	if c.Codec.SimilarityThreshold < 0 {
		return errors.New("codec.similarity_threshold must be >= 0")
	}
	if c.Codec.BinarizationThreshold < 0 || c.Codec.BinarizationThreshold > 254 {
		return errors.New("codec.binarization_threshold must be between 0 and 254")
	}
	if !slices.Contains(knownOrients, c.Codec.Orientation) {
		return fmt.Errorf("codec.orientation must be one of %s", strings.Join(knownOrients, ", "))
	}
	if !slices.Contains(knownTransducers, c.Codec.Transducer) {
		return fmt.Errorf("codec.transducer must be one of %s", strings.Join(knownTransducers, ", "))
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	if c.ChunkFrames() <= 0 {
		return fmt.Errorf("audio.sample_rate %d is too low for %d ms frames", c.Audio.SampleRate, c.Codec.FrameDurationMs)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if !slices.Contains(knownContainers, c.Video.Container) {
		return fmt.Errorf("video.container must be one of %s", strings.Join(knownContainers, ", "))
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(knownLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %s", strings.Join(knownLogFormats, ", "))
	}
	if !slices.Contains(knownLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %s", strings.Join(knownLogLevels, ", "))
	}
	return nil
}
