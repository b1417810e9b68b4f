package video_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"vidbits/internal/media/video"
	"vidbits/internal/raster"
)

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.vbf")
	info := video.StreamInfo{Width: 6, Height: 4, FPS: 25}
	ctx := context.Background()

	w, err := video.Create(ctx, path, info, video.Options{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	var written []*raster.Raster
	for i := 0; i < 3; i++ {
		frame := raster.New(info.Width, info.Height)
		for j := range frame.Pix {
			frame.Pix[j] = byte(i*31 + j)
		}
		if err := w.WriteFrame(frame); err != nil {
			t.Fatalf("WriteFrame %d error: %v", i, err)
		}
		written = append(written, frame)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	r, err := video.Open(ctx, path, video.Options{})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer r.Close()
	got := r.Info()
	if got.Width != info.Width || got.Height != info.Height || got.FPS != info.FPS || got.Frames != -1 {
		t.Fatalf("unexpected info %+v", got)
	}
	for i, want := range written {
		frame, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d error: %v", i, err)
		}
		if !slices.Equal(frame.Pix, want.Pix) {
			t.Fatalf("frame %d differs", i)
		}
	}
	if _, err := r.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

func TestArchiveRejectsWrongFrameSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.vbf")
	w, err := video.CreateArchive(path, video.StreamInfo{Width: 4, Height: 4, FPS: 25})
	if err != nil {
		t.Fatalf("CreateArchive error: %v", err)
	}
	defer w.Close()
	if err := w.WriteFrame(raster.New(2, 2)); !errors.Is(err, video.ErrFrameSize) {
		t.Fatalf("expected ErrFrameSize, got %v", err)
	}
}

func TestOpenArchiveRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.vbf")
	if err := os.WriteFile(path, []byte("not zstd at all"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if _, err := video.OpenArchive(path); err == nil {
		t.Fatal("expected error opening garbage archive")
	}
}

func TestBackendSelection(t *testing.T) {
	cases := []struct {
		path      string
		container string
		want      string
	}{
		{path: "a.vbf", container: "", want: video.ContainerArchive},
		{path: "a.VBF", container: "auto", want: video.ContainerArchive},
		{path: "a.mkv", container: "", want: video.ContainerFFmpeg},
		{path: "a.mkv", container: "archive", want: video.ContainerArchive},
		{path: "a.vbf", container: "ffmpeg", want: video.ContainerFFmpeg},
	}
	for _, tc := range cases {
		got, err := video.Backend(tc.path, video.Options{Container: tc.container})
		if err != nil {
			t.Fatalf("Backend(%q, %q) error: %v", tc.path, tc.container, err)
		}
		if got != tc.want {
			t.Fatalf("Backend(%q, %q) = %q, want %q", tc.path, tc.container, got, tc.want)
		}
	}
	if _, err := video.Backend("a.mkv", video.Options{Container: "tape"}); err == nil {
		t.Fatal("expected error for unknown container")
	}
}

func TestEncodeArgsDefaultsToLosslessCodec(t *testing.T) {
	args := video.EncodeArgs(video.StreamInfo{Width: 64, Height: 480, FPS: 25}, video.Options{}, "out.mkv")
	joined := map[string]string{}
	for i := 0; i+1 < len(args); i++ {
		joined[args[i]] = args[i+1]
	}
	if joined["-c:v"] != "ffv1" {
		t.Fatalf("expected ffv1 codec, got %q", joined["-c:v"])
	}
	if joined["-s"] != "64x480" || joined["-r"] != "25" {
		t.Fatalf("unexpected geometry args %v", args)
	}
	if args[len(args)-1] != "out.mkv" {
		t.Fatalf("expected destination last, got %v", args)
	}
}

func TestCreateValidatesInfo(t *testing.T) {
	ctx := context.Background()
	if _, err := video.Create(ctx, filepath.Join(t.TempDir(), "x.vbf"), video.StreamInfo{Width: 0, Height: 4, FPS: 25}, video.Options{}); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := video.Create(ctx, filepath.Join(t.TempDir(), "x.vbf"), video.StreamInfo{Width: 4, Height: 4}, video.Options{}); err == nil {
		t.Fatal("expected error for zero fps")
	}
}
