// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties, including frame geometry and rate
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// The frame-stream helpers (VideoStream, FrameRate, FrameCount) are what the
// decoder uses to size its raw frame reads when the source is a regular video
// container rather than a frame archive.
package ffprobe
