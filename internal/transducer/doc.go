// Package transducer provides the payload codecs that turn one chunk of PCM
// samples into the opaque byte unit carried by a frame, and back.
//
// Every transducer wraps its body in a small envelope: a uvarint body length,
// the body, and a CRC-32C of the body. The envelope makes units
// self-delimiting so the zero padding added by the bit grid is ignored, and
// lets Decode reject frames whose bits were damaged in transit. A rejected
// unit surfaces as ErrCorruptPayload, which the decode pipeline absorbs with
// its frame hold.
//
// pcm, zstd and s2 are lossless. opus is lossy, encodes at Options.Bitrate
// within Options.MaxPayloadBytes, and links libopus through cgo, so it is only
// registered in binaries built with -tags opus.
package transducer
