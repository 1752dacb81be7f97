// ABOUTME: Playback pipeline package
// ABOUTME: Drives a decoder into render sinks and records metrics
// Package playback connects a decode.Decoder to its consumers.
//
// A Pipeline seeks once and then pulls packets until the decoder reports
// end of stream. Decoders stay synchronous; Start is the only place a
// goroutine is involved.
package playback
