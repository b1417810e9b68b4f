package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"vidbits/internal/media/ffprobe"
	"vidbits/internal/raster"
)

// EncodeArgs builds the ffmpeg arguments that read raw RGB24 frames from
// stdin and write them losslessly to dest.
func EncodeArgs(info StreamInfo, opts Options, dest string) []string {
	opts = opts.withDefaults()
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-r", strconv.FormatFloat(info.FPS, 'f', -1, 64),
		"-i", "-",
		"-an",
		"-c:v", opts.VideoCodec,
		"-pix_fmt", opts.PixelFormat,
		dest,
	}
}

// DecodeArgs builds the ffmpeg arguments that emit the first video stream of
// source as raw RGB24 frames on stdout.
func DecodeArgs(source string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}
}

type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
	info   StreamInfo

	waited  bool
	waitErr error
}

func createFFmpeg(ctx context.Context, path string, info StreamInfo, opts Options) (FrameWriter, error) {
	cmd := exec.CommandContext(ctx, opts.FFmpegBinary, EncodeArgs(info, opts, path)...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode: stdin pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg encode: start: %w", err)
	}
	info.Frames = -1
	return &ffmpegWriter{cmd: cmd, stdin: stdin, stderr: stderr, info: info}, nil
}

func (w *ffmpegWriter) WriteFrame(frame *raster.Raster) error {
	if err := checkFrame(frame, w.info); err != nil {
		return err
	}
	if w.waited {
		if w.waitErr != nil {
			return w.waitErr
		}
		return errors.New("ffmpeg encode: write frame: process already exited")
	}
	if _, err := w.stdin.Write(frame.Pix); err != nil {
		// stderr is only safe to read once the process has been reaped.
		_ = w.stdin.Close()
		if waitErr := w.wait(); waitErr != nil {
			return fmt.Errorf("ffmpeg encode: write frame: %w", waitErr)
		}
		return fmt.Errorf("ffmpeg encode: write frame: %w", err)
	}
	return nil
}

func (w *ffmpegWriter) Close() error {
	closeErr := w.stdin.Close()
	if w.waited {
		closeErr = nil
	}
	if err := w.wait(); err != nil {
		return err
	}
	return closeErr
}

func (w *ffmpegWriter) wait() error {
	if !w.waited {
		w.waited = true
		if err := w.cmd.Wait(); err != nil {
			w.waitErr = fmt.Errorf("ffmpeg encode: %w: %s", err, strings.TrimSpace(w.stderr.String()))
		}
	}
	return w.waitErr
}

type ffmpegReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	r      *bufio.Reader
	stderr *bytes.Buffer
	info   StreamInfo
	done   bool
}

func openFFmpeg(ctx context.Context, path string, opts Options) (FrameReader, error) {
	probe, err := ffprobe.Inspect(ctx, opts.FFprobeBinary, path)
	if err != nil {
		return nil, err
	}
	stream, ok := probe.VideoStream()
	if !ok {
		return nil, fmt.Errorf("open video %s: no video stream", path)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("open video %s: invalid frame size %dx%d", path, stream.Width, stream.Height)
	}
	info := StreamInfo{
		Width:  stream.Width,
		Height: stream.Height,
		FPS:    stream.FrameRate(),
		Frames: stream.FrameCount(),
	}

	cmd := exec.CommandContext(ctx, opts.FFmpegBinary, DecodeArgs(path)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: stdout pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: start: %w", err)
	}
	return &ffmpegReader{
		cmd:    cmd,
		stdout: stdout,
		r:      bufio.NewReaderSize(stdout, raster.FrameSize(info.Width, info.Height)),
		stderr: stderr,
		info:   info,
	}, nil
}

func (f *ffmpegReader) Info() StreamInfo { return f.info }

func (f *ffmpegReader) ReadFrame() (*raster.Raster, error) {
	if f.done {
		return nil, io.EOF
	}
	frame, err := readRawFrame(f.r, f.info)
	if errors.Is(err, io.EOF) {
		if waitErr := f.wait(); waitErr != nil {
			return nil, waitErr
		}
		return nil, io.EOF
	}
	return frame, err
}

func (f *ffmpegReader) wait() error {
	if f.done {
		return nil
	}
	f.done = true
	if err := f.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode: %w: %s", err, strings.TrimSpace(f.stderr.String()))
	}
	return nil
}

func (f *ffmpegReader) Close() error {
	if f.done {
		return nil
	}
	_ = f.stdout.Close()
	if f.cmd.Process != nil {
		_ = f.cmd.Process.Kill()
	}
	f.done = true
	_ = f.cmd.Wait()
	return nil
}
