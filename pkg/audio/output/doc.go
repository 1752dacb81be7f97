// ABOUTME: Audio output package for rendering decoded audio
// ABOUTME: Provides Output interface with speaker, WAV file and wrapper sinks
// Package output provides render sinks for decoded samples.
//
// Oto and Malgo play through the system audio device, WAV writes a 16-bit
// PCM file. Multi fans out to several sinks and Resampled converts to a
// fixed sample rate before writing.
//
// Example:
//
//	out := output.NewResampled(output.NewOto(), 48000)
//	err := out.Open(44100, 2)
//	err = out.Write(samples)
package output
