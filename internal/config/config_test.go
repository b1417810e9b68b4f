package config_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vidbits/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "vidbits", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".local", "share", "vidbits", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "vidbits", "runs.db"); cfg.Paths.CatalogPath != want {
		t.Fatalf("unexpected catalog path: got %q want %q", cfg.Paths.CatalogPath, want)
	}
	if cfg.CapacityBits() != 9600 {
		t.Fatalf("expected 9600 bit capacity, got %d", cfg.CapacityBits())
	}
	if cfg.ChunkFrames() != 480 {
		t.Fatalf("expected 480 sample frames per chunk, got %d", cfg.ChunkFrames())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[codec]
bitrate = 128000
orientation = "H"
transducer = " ZSTD "

[audio]
sample_rate = 48000
channels = 2

[video]
container = "archive"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to resolve, got %q exists=%v", resolved, exists)
	}
	if cfg.Codec.Orientation != "horizontal" {
		t.Fatalf("expected normalized orientation, got %q", cfg.Codec.Orientation)
	}
	if cfg.Codec.Transducer != "zstd" {
		t.Fatalf("expected normalized transducer, got %q", cfg.Codec.Transducer)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if cfg.CapacityBits() != 7680 {
		t.Fatalf("expected 7680 bits, got %d", cfg.CapacityBits())
	}
	if cfg.ChunkFrames() != 2880 {
		t.Fatalf("expected 2880 sample frames, got %d", cfg.ChunkFrames())
	}
	if cfg.Codec.Scale != 4 {
		t.Fatalf("expected default scale to survive partial config, got %d", cfg.Codec.Scale)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[codec]\nbitrat = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIDBITS_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("VIDBITS_FFPROBE", "/opt/ffmpeg/bin/ffprobe")
	t.Setenv("VIDBITS_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Video.FFmpegBinary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary %q", cfg.Video.FFmpegBinary)
	}
	if cfg.Video.FFprobeBinary != "/opt/ffmpeg/bin/ffprobe" {
		t.Fatalf("unexpected ffprobe binary %q", cfg.Video.FFprobeBinary)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{name: "bitrate", mutate: func(c *config.Config) { c.Codec.Bitrate = 0 }, want: "codec.bitrate"},
		{name: "capacity", mutate: func(c *config.Config) { c.Codec.Bitrate = 10; c.Codec.FrameDurationMs = 10 }, want: "frame capacity"},
		{name: "scale", mutate: func(c *config.Config) { c.Codec.Scale = 0 }, want: "codec.scale"},
		{name: "fps", mutate: func(c *config.Config) { c.Codec.FPS = 0 }, want: "codec.fps"},
		{name: "transducer", mutate: func(c *config.Config) { c.Codec.Transducer = "opus" }, want: "codec.transducer"},
		{name: "binarization", mutate: func(c *config.Config) { c.Codec.BinarizationThreshold = 255 }, want: "binarization"},
		{name: "channels", mutate: func(c *config.Config) { c.Audio.Channels = 0 }, want: "audio.channels"},
		{name: "container", mutate: func(c *config.Config) { c.Video.Container = "avi" }, want: "video.container"},
		{name: "read ahead", mutate: func(c *config.Config) { c.Pipeline.ReadAhead = -1 }, want: "read_ahead"},
		{name: "log format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, want: "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateSampleMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if err := config.CreateSample(path, false); !errors.Is(err, config.ErrExists) {
		t.Fatalf("expected ErrExists on second write, got %v", err)
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("overwrite returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	def := config.Default()
	if parsed.Codec != def.Codec {
		t.Fatalf("sample codec section %+v differs from defaults %+v", parsed.Codec, def.Codec)
	}
	if parsed.Audio != def.Audio || parsed.Video != def.Video || parsed.Pipeline != def.Pipeline || parsed.Logging != def.Logging {
		t.Fatal("sample config differs from defaults")
	}
}

func TestWriteTOMLRoundTrips(t *testing.T) {
	cfg := config.Default()
	cfg.Codec.Transducer = "s2"
	var buf bytes.Buffer
	if err := cfg.WriteTOML(&buf); err != nil {
		t.Fatalf("WriteTOML returned error: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("rendered config does not parse: %v", err)
	}
	if parsed.Codec != cfg.Codec {
		t.Fatalf("codec section %+v, want %+v", parsed.Codec, cfg.Codec)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CatalogPath = filepath.Join(base, "state", "runs.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.CatalogPath)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}

func TestOverrideNormalizesCopy(t *testing.T) {
	base := config.Default()
	next, err := base.Override(func(c *config.Config) {
		c.Codec.Orientation = "H"
		c.Codec.Transducer = " ZSTD "
		c.Codec.Choice = 3
	})
	if err != nil {
		t.Fatalf("Override returned error: %v", err)
	}
	if next.Codec.Orientation != "horizontal" || next.Codec.Transducer != "zstd" || next.Codec.Choice != 3 {
		t.Fatalf("unexpected override result %+v", next.Codec)
	}
	if base.Codec.Transducer != "pcm" || base.Codec.Choice != 24 {
		t.Fatalf("base config mutated: %+v", base.Codec)
	}

	if _, err := base.Override(func(c *config.Config) { c.Video.Container = "avi" }); err == nil {
		t.Fatal("expected invalid container to be rejected")
	}
}
