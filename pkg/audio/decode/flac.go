// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC audio to float64 samples, one packet per frame
package decode

import (
	"errors"
	"io"
	"log"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct {
	src    io.ReadSeeker
	stream *flac.Stream
	format audio.Format
	done   bool
}

// NewFLAC creates a new FLAC decoder
func NewFLAC(r io.ReadSeeker) (Decoder, error) {
	stream, err := flac.NewSeek(r)
	if err != nil {
		return nil, FullDecodeError("failed to create flac decoder: %w", err)
	}

	info := stream.Info
	format := audio.Format{
		Codec:      "flac",
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}

	log.Printf("Loaded FLAC (sample rate: %d Hz, channels: %d, bit depth: %d)",
		format.SampleRate, format.Channels, format.BitDepth)

	return &FLACDecoder{
		src:    r,
		stream: stream,
		format: format,
	}, nil
}

// NextPacket decodes the next FLAC frame
func (d *FLACDecoder) NextPacket() (*Packet, error) {
	if d.done {
		return nil, nil
	}

	frame, err := d.stream.ParseNext()
	if errors.Is(err, io.EOF) {
		d.done = true
		return nil, nil
	}
	if err != nil {
		return nil, fromLibrary(err)
	}

	channels := len(frame.Subframes)
	if channels == 0 {
		return NewSamplesPacket(nil), nil
	}
	frames := len(frame.Subframes[0].Samples)

	samples := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = audio.SampleFromPCM(frame.Subframes[ch].Samples[i], d.format.BitDepth)
		}
	}
	return NewSamplesPacket(samples), nil
}

// Seek moves to the start of the frame containing absgp
func (d *FLACDecoder) Seek(absgp uint64) (uint64, error) {
	end := d.stream.Info.NSamples
	if end == 0 {
		return 0, FullDecodeError("stream length unknown, cannot seek")
	}
	if absgp > end {
		return 0, FullDecodeError("seek position %d beyond end of stream (%d)", absgp, end)
	}
	if absgp == end {
		d.done = true
		return end, nil
	}

	reached, err := d.stream.Seek(absgp)
	if err != nil {
		return 0, fromLibrary(err)
	}
	d.done = false
	return reached, nil
}

// Format describes the decoded stream
func (d *FLACDecoder) Format() audio.Format {
	return d.format
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return closeSource(d.src)
}
