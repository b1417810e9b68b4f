package transducer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCorruptPayload reports a payload unit that failed envelope or body
// validation.
var ErrCorruptPayload = errors.New("corrupt payload")

// ErrUnknownTransducer reports an unregistered transducer name.
var ErrUnknownTransducer = errors.New("unknown transducer")

// Transducer encodes PCM chunks into payload units and decodes them back.
// Implementations may keep state across calls, so calls must be made in
// stream order from a single goroutine.
type Transducer interface {
	Name() string
	Encode(samples []int16) ([]byte, error)
	Decode(payload []byte) ([]int16, error)
	Close() error
}

// Options describes the PCM stream a transducer handles.
type Options struct {
	SampleRate int
	Channels   int
	// ChunkSamples is the number of interleaved values in one chunk
	// (sample frames times channels). Decode rejects units that do not
	// expand to exactly this many values when it is positive.
	ChunkSamples int
	// Bitrate is the target bitrate in bits per second for codecs that
	// have one. Lossless transducers ignore it.
	Bitrate int
	// MaxPayloadBytes caps an encoded unit for codecs that can honour a
	// size limit; it is normally the frame capacity in bytes.
	MaxPayloadBytes int
}

type factory func(Options) (Transducer, error)

var registry = map[string]factory{
	"pcm":  newPCM,
	"zstd": newZstd,
	"s2":   newS2,
}

// New constructs the named transducer.
func New(name string, opts Options) (Transducer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	build, ok := registry[key]
	if !ok {
		hint := ""
		if key == "opus" {
			hint = "; opus needs a build with -tags opus"
		}
		return nil, fmt.Errorf("%w: %q (available: %s%s)", ErrUnknownTransducer, name, strings.Join(Names(), ", "), hint)
	}
	return build(opts)
}

// Names lists the registered transducers in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkSampleCount(opts Options, samples []int16) error {
	if opts.ChunkSamples > 0 && len(samples) != opts.ChunkSamples {
		return fmt.Errorf("%w: decoded %d samples, expected %d", ErrCorruptPayload, len(samples), opts.ChunkSamples)
	}
	return nil
}
