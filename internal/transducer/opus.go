//go:build opus

package transducer

import (
	"fmt"
	"slices"

	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket is the largest packet a single Opus frame can produce.
const maxOpusPacket = 1275

// envelopeOverhead is the uvarint length (two bytes up to 16383) plus the
// checksum that seal adds around every packet.
const envelopeOverhead = 2 + checksumSize

var opusRates = []int{8000, 12000, 16000, 24000, 48000}

// Durations in units of 2.5 ms: 2.5, 5, 10, 20, 40 and 60 ms.
var opusFrameSteps = []int{1, 2, 4, 8, 16, 24}

func init() {
	registry["opus"] = newOpus
}

type opusTransducer struct {
	opts     Options
	enc      *opus.Encoder
	dec      *opus.Decoder
	maxBytes int
	pcm      []int16
}

func newOpus(opts Options) (Transducer, error) {
	if !slices.Contains(opusRates, opts.SampleRate) {
		return nil, fmt.Errorf("opus: sample rate %d not supported (use one of %v)", opts.SampleRate, opusRates)
	}
	if opts.Channels != 1 && opts.Channels != 2 {
		return nil, fmt.Errorf("opus: %d channels not supported", opts.Channels)
	}
	if opts.ChunkSamples <= 0 || opts.ChunkSamples%opts.Channels != 0 {
		return nil, fmt.Errorf("opus: chunk of %d samples does not split into %d channels", opts.ChunkSamples, opts.Channels)
	}
	frames := opts.ChunkSamples / opts.Channels
	if frames*400%opts.SampleRate != 0 || !slices.Contains(opusFrameSteps, frames*400/opts.SampleRate) {
		return nil, fmt.Errorf("opus: chunk of %d frames at %d Hz is not a 2.5/5/10/20/40/60 ms frame", frames, opts.SampleRate)
	}

	maxBytes := maxOpusPacket
	if opts.MaxPayloadBytes > 0 {
		maxBytes = min(maxBytes, opts.MaxPayloadBytes-envelopeOverhead)
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("opus: payload limit of %d bytes leaves no room for a packet", opts.MaxPayloadBytes)
	}

	enc, err := opus.NewEncoder(opts.SampleRate, opts.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	if opts.Bitrate > 0 {
		if err := enc.SetBitrate(opts.Bitrate); err != nil {
			return nil, fmt.Errorf("opus encoder: bitrate %d: %w", opts.Bitrate, err)
		}
	}
	dec, err := opus.NewDecoder(opts.SampleRate, opts.Channels)
	if err != nil {
		return nil, fmt.Errorf("opus decoder: %w", err)
	}
	return &opusTransducer{
		opts:     opts,
		enc:      enc,
		dec:      dec,
		maxBytes: maxBytes,
		pcm:      make([]int16, opts.ChunkSamples),
	}, nil
}

func (o *opusTransducer) Name() string { return "opus" }

func (o *opusTransducer) Encode(samples []int16) ([]byte, error) {
	if len(samples) != o.opts.ChunkSamples {
		return nil, fmt.Errorf("opus: chunk has %d samples, expected %d", len(samples), o.opts.ChunkSamples)
	}
	packet := make([]byte, o.maxBytes)
	n, err := o.enc.Encode(samples, packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode: %w", err)
	}
	return seal(packet[:n]), nil
}

func (o *opusTransducer) Decode(payload []byte) ([]int16, error) {
	body, err := open(payload)
	if err != nil {
		return nil, err
	}
	n, err := o.dec.Decode(body, o.pcm)
	if err != nil {
		return nil, fmt.Errorf("%w: opus: %w", ErrCorruptPayload, err)
	}
	samples := slices.Clone(o.pcm[:n*o.opts.Channels])
	if err := checkSampleCount(o.opts, samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// Close is a no-op; the codec state holds nothing beyond memory.
func (o *opusTransducer) Close() error { return nil }
