// Package pipeline drives encode and decode runs frame by frame.
//
// The Encoder reads PCM chunks, turns each into one payload unit through a
// transducer, lays the unit out on the run's bit grid, and writes one raster
// per chunk. The Decoder reverses the path: it thresholds each frame back to
// a grid, drops frames the similarity gate marks as duplicates, decodes the
// rest, and falls back to the frame hold when a unit does not decode.
//
// Transducer calls and decoder state updates happen in frame order on one
// goroutine. With ReadAhead > 0 a second goroutine performs source I/O (and,
// for decode, thresholding) into a bounded channel so the two overlap.
package pipeline
