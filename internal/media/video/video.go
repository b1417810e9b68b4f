// Package video moves rasters in and out of frame containers.
//
// Two containers are supported. The frame archive (".vbf") is a zstd stream
// of packed RGB24 frames behind a short header; it needs no external tools
// and is always lossless. Everything else goes through ffmpeg as a raw RGB24
// pipe, encoded with a lossless codec (FFV1 by default). Lossy codecs will
// blur the bit blocks and are not supported.
package video

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"vidbits/internal/raster"
)

// Container names accepted in Options.
const (
	ContainerAuto    = "auto"
	ContainerArchive = "archive"
	ContainerFFmpeg  = "ffmpeg"
)

// ArchiveExt is the file extension of the frame archive.
const ArchiveExt = ".vbf"

// ErrFrameSize reports a raster whose dimensions do not match the stream.
var ErrFrameSize = errors.New("frame size mismatch")

// StreamInfo describes a frame stream.
type StreamInfo struct {
	Width  int
	Height int
	FPS    float64
	// Frames is the frame count when the container records it, else -1.
	Frames int
}

// FrameReader yields rasters in stream order and returns io.EOF after the
// last frame.
type FrameReader interface {
	Info() StreamInfo
	ReadFrame() (*raster.Raster, error)
	Close() error
}

// FrameWriter appends rasters to a stream.
type FrameWriter interface {
	WriteFrame(frame *raster.Raster) error
	Close() error
}

// Options selects and tunes the container backend.
type Options struct {
	Container     string
	FFmpegBinary  string
	FFprobeBinary string
	VideoCodec    string
	PixelFormat   string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Container) == "" {
		o.Container = ContainerAuto
	}
	if strings.TrimSpace(o.FFmpegBinary) == "" {
		o.FFmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(o.FFprobeBinary) == "" {
		o.FFprobeBinary = "ffprobe"
	}
	if strings.TrimSpace(o.VideoCodec) == "" {
		o.VideoCodec = "ffv1"
	}
	if strings.TrimSpace(o.PixelFormat) == "" {
		o.PixelFormat = "gray"
	}
	return o
}

// Backend resolves the container used for path.
func Backend(path string, opts Options) (string, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(strings.TrimSpace(opts.Container)) {
	case ContainerArchive:
		return ContainerArchive, nil
	case ContainerFFmpeg:
		return ContainerFFmpeg, nil
	case ContainerAuto:
		if strings.EqualFold(filepath.Ext(path), ArchiveExt) {
			return ContainerArchive, nil
		}
		return ContainerFFmpeg, nil
	default:
		return "", fmt.Errorf("video: unknown container %q", opts.Container)
	}
}

// Open starts reading the frame stream at path.
func Open(ctx context.Context, path string, opts Options) (FrameReader, error) {
	opts = opts.withDefaults()
	backend, err := Backend(path, opts)
	if err != nil {
		return nil, err
	}
	if backend == ContainerArchive {
		return OpenArchive(path)
	}
	return openFFmpeg(ctx, path, opts)
}

// Create starts writing a frame stream of the given geometry at path.
func Create(ctx context.Context, path string, info StreamInfo, opts Options) (FrameWriter, error) {
	opts = opts.withDefaults()
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("video: invalid frame size %dx%d", info.Width, info.Height)
	}
	if info.FPS <= 0 {
		return nil, fmt.Errorf("video: invalid frame rate %v", info.FPS)
	}
	backend, err := Backend(path, opts)
	if err != nil {
		return nil, err
	}
	if backend == ContainerArchive {
		return CreateArchive(path, info)
	}
	return createFFmpeg(ctx, path, info, opts)
}

func checkFrame(frame *raster.Raster, info StreamInfo) error {
	if frame == nil {
		return errors.New("video: nil frame")
	}
	if frame.Width != info.Width || frame.Height != info.Height {
		return fmt.Errorf("%w: got %dx%d, stream is %dx%d", ErrFrameSize, frame.Width, frame.Height, info.Width, info.Height)
	}
	return nil
}
