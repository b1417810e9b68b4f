// Package bitgrid converts payload bytes to the fixed-size boolean matrices
// carried by a single frame, and back.
//
// Bits are packed most-significant-bit first within each byte. This ordering
// is part of the frame format: encoders and decoders must agree on it or the
// recovered payload is garbage. A grid always holds exactly Width*Height bits;
// short payloads are zero-padded and long payloads are truncated without
// error, so callers that care about truncation must compare the payload size
// against the grid capacity themselves.
package bitgrid
