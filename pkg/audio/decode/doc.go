// ABOUTME: Audio decoder package for the playback pipeline
// ABOUTME: Provides the Decoder contract, Packet type, errors and codec backends
// Package decode provides the boundary between an encoded audio source and
// the render pipeline.
//
// Every backend implements Decoder: Seek once per position change, then
// NextPacket until it returns a nil packet (end of stream, not an error).
// Packets are either decoded samples or raw Ogg pages for passthrough:
//
//	Passthrough: Ogg Vorbis pages forwarded untouched (raw packets)
//	Vorbis, MP3, FLAC, Opus: decoded to interleaved float64 samples
//
// Failures are *DecoderError values tagged with the backend family.
// Asking a packet for the wrong variant returns ErrRawPacket or
// ErrSamplesPacket instead.
//
// Example:
//
//	if !decode.IsOggVorbis(format) && !decode.IsMP3(format) {
//	    return errUnsupported
//	}
//	decoder, err := decode.New(format, file, decode.Options{})
//	_, err = decoder.Seek(0)
//	for {
//	    pkt, err := decoder.NextPacket()
//	    if err != nil || pkt == nil {
//	        break
//	    }
//	    samples, err := pkt.Samples()
//	}
package decode
