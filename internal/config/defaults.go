package config

const (
	defaultConfigPath  = "~/.config/vidbits/config.toml"
	defaultLogDir      = "~/.local/share/vidbits/logs"
	defaultCatalogPath = "~/.local/share/vidbits/runs.db"

	defaultBitrate               = 160000
	defaultFrameDurationMs       = 60
	defaultFPS                   = 25
	defaultScale                 = 4
	defaultSimilarityThreshold   = 90.0
	defaultBinarizationThreshold = 127
	defaultOrientation           = "default"
	defaultChoice                = 24
	defaultTransducer            = "pcm"

	defaultSampleRate = 8000
	defaultChannels   = 1

	defaultContainer     = "auto"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultVideoCodec    = "ffv1"
	defaultPixelFormat   = "gray"

	defaultReadAhead = 8
)

// Default returns a Config populated with repository defaults. With these
// values one 60 ms frame holds 9600 bits, enough for an uncompressed 8 kHz
// mono PCM chunk, and choice 24 selects the 96x100 grid.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:      defaultLogDir,
			CatalogPath: defaultCatalogPath,
		},
		Codec: Codec{
			Bitrate:               defaultBitrate,
			FrameDurationMs:       defaultFrameDurationMs,
			FPS:                   defaultFPS,
			Scale:                 defaultScale,
			SimilarityThreshold:   defaultSimilarityThreshold,
			BinarizationThreshold: defaultBinarizationThreshold,
			Orientation:           defaultOrientation,
			Choice:                defaultChoice,
			Transducer:            defaultTransducer,
		},
		Audio: Audio{
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
		},
		Video: Video{
			Container:     defaultContainer,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Codec:         defaultVideoCodec,
			PixelFormat:   defaultPixelFormat,
		},
		Pipeline: Pipeline{
			ReadAhead: defaultReadAhead,
		},
		Logging: Logging{
			Format:  "console",
			Level:   "info",
			RunLogs: true,
		},
	}
}
