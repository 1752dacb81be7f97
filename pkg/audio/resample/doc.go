// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded audio between sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation on interleaved float64 samples. Handles both
// upsampling and downsampling, and streams across chunk boundaries.
//
// Example:
//
//	r := resample.New(48000, 44100, 2)
//	out := r.Resample(samples)
package resample
