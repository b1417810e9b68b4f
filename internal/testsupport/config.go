package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidbits/internal/config"
	"vidbits/internal/media/video"
)

// ConfigOption adjusts a generated test config.
type ConfigOption func(t testing.TB, cfg *config.Config)

// NewConfig returns the default config rooted in a fresh temp directory, with
// a small read-ahead so pipeline tests exercise the ordering path.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CatalogPath = filepath.Join(base, "state", "runs.db")
	cfg.Pipeline.ReadAhead = 2
	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// BaseDir returns the temp directory backing cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

// WithTransducer selects the payload transducer.
func WithTransducer(name string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) { cfg.Codec.Transducer = name }
}

// WithContainer selects the frame container backend.
func WithContainer(name string) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) { cfg.Video.Container = name }
}

// WithoutCatalog disables run history.
func WithoutCatalog() ConfigOption {
	return func(_ testing.TB, cfg *config.Config) { cfg.Paths.CatalogPath = "" }
}

// WithStubbedBinaries puts executables named after names (ffmpeg and ffprobe
// by default) at the front of PATH for the rest of the test. The ffmpeg name
// gets the pass-through stub; every other name exits 0 and prints nothing.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		t.Helper()
		if len(names) == 0 {
			names = []string{cfg.Video.FFmpegBinary, cfg.Video.FFprobeBinary}
		}
		binDir := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			if name == "" || strings.ContainsRune(name, os.PathSeparator) {
				t.Fatalf("stub binary %q must be a bare command name", name)
			}
			script := "#!/bin/sh\nexit 0\n"
			if name == cfg.Video.FFmpegBinary {
				script = ffmpegStub
			}
			writeStub(t, binDir, name, script)
		}
		t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// WithFFmpegPipe points the ffmpeg container at pass-through stubs whose
// ffprobe reports streams.
func WithFFmpegPipe(streams string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		t.Helper()
		cfg.Video.Container = video.ContainerFFmpeg
		cfg.Video.FFmpegBinary, cfg.Video.FFprobeBinary = StubFFmpeg(t, filepath.Join(BaseDir(cfg), "bin"), streams)
	}
}
