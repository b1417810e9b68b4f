// Command vidbits carries PCM audio through video frames as black and white
// bit grids, and recovers it again.
//
// Common invocations:
//
//	vidbits plan                     list candidate grid resolutions
//	vidbits encode in.wav out.mkv    write a lossless frame stream
//	vidbits decode out.mkv back.wav  recover the audio
//	vidbits analyze out.mkv --chart similarity.png
//	vidbits runs                     show run history
package main
