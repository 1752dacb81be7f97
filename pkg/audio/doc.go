// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, FileFormat and sample conversion functions
// Package audio provides fundamental audio types shared by decoders and outputs.
//
// This package defines:
//   - Format: Describes a decoded stream (codec, sample rate, channels, bit depth)
//   - FileFormat: The catalog identifier of an encoded file (e.g. OGG_VORBIS_320)
//
// Decoded samples travel as float64 in [-1, 1]. Conversion helpers cover the
// integer representations produced by codec libraries and consumed by
// output devices:
//   - int16 ↔ float64
//   - n-bit signed PCM → float64
//
// Example:
//
//	f, err := audio.ParseFileFormat("MP3_320")
//	if err != nil {
//	    return err
//	}
//	sample := audio.SampleFromInt16(raw)
package audio
