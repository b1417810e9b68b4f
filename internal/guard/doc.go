// Package guard holds the per-run decode state that protects the output
// stream: the similarity gate that drops near-duplicate frames and the frame
// hold that repeats the last good output when the payload transducer rejects
// a frame.
//
// The gate compares raw bit blocks, not decoded payloads. Two frames whose
// payloads genuinely differ but binarize to mostly identical bytes are
// treated as duplicates and the second one is dropped. That is the intended
// temporal deduplication policy; lowering the threshold trades fewer false
// drops for more repeated audio.
package guard
