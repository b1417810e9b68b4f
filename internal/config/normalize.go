package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCodec()
	c.normalizeVideo()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CatalogPath, err = expandPath(strings.TrimSpace(c.Paths.CatalogPath)); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCodec() {
	c.Codec.Orientation = strings.ToLower(strings.TrimSpace(c.Codec.Orientation))
	switch c.Codec.Orientation {
	case "", "d":
		c.Codec.Orientation = "default"
	case "h":
		c.Codec.Orientation = "horizontal"
	case "v":
		c.Codec.Orientation = "vertical"
	}
	c.Codec.Transducer = strings.ToLower(strings.TrimSpace(c.Codec.Transducer))
	if c.Codec.Transducer == "" {
		c.Codec.Transducer = defaultTransducer
	}
}

func (c *Config) normalizeVideo() {
	c.Video.Container = strings.ToLower(strings.TrimSpace(c.Video.Container))
	if c.Video.Container == "" {
		c.Video.Container = defaultContainer
	}
	c.Video.FFmpegBinary = envOrValue("VIDBITS_FFMPEG", c.Video.FFmpegBinary, defaultFFmpegBinary)
	c.Video.FFprobeBinary = envOrValue("VIDBITS_FFPROBE", c.Video.FFprobeBinary, defaultFFprobeBinary)
	c.Video.Codec = strings.TrimSpace(c.Video.Codec)
	if c.Video.Codec == "" {
		c.Video.Codec = defaultVideoCodec
	}
	c.Video.PixelFormat = strings.TrimSpace(c.Video.PixelFormat)
	if c.Video.PixelFormat == "" {
		c.Video.PixelFormat = defaultPixelFormat
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("VIDBITS_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func envOrValue(key, value, fallback string) string {
	if env, ok := os.LookupEnv(key); ok && strings.TrimSpace(env) != "" {
		return strings.TrimSpace(env)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
