// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 audio to float64 samples using go-mp3
package decode

import (
	"encoding/binary"
	"errors"
	"io"
	"log"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

const (
	// go-mp3 always outputs 16-bit little-endian stereo
	mp3Channels      = 2
	mp3BytesPerFrame = 4

	// one MPEG-1 Layer III frame
	mp3PacketFrames = 1152
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct {
	src     io.ReadSeeker
	decoder *mp3.Decoder
	buf     []byte
	format  audio.Format
	done    bool
}

// NewMP3 creates a new MP3 decoder
func NewMP3(r io.ReadSeeker) (Decoder, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, FullDecodeError("failed to create mp3 decoder: %w", err)
	}

	log.Printf("Loaded MP3 (sample rate: %d Hz)", decoder.SampleRate())

	return &MP3Decoder{
		src:     r,
		decoder: decoder,
		buf:     make([]byte, mp3PacketFrames*mp3BytesPerFrame),
		format: audio.Format{
			Codec:      "mp3",
			SampleRate: decoder.SampleRate(),
			Channels:   mp3Channels,
			BitDepth:   16,
		},
	}, nil
}

// NextPacket decodes up to one MP3 frame worth of samples
func (d *MP3Decoder) NextPacket() (*Packet, error) {
	if d.done {
		return nil, nil
	}

	n, err := io.ReadFull(d.decoder, d.buf)
	eof := errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
	if err != nil && !eof {
		return nil, fromLibrary(err)
	}
	n -= n % mp3BytesPerFrame
	if n == 0 {
		d.done = true
		return nil, nil
	}

	samples := make([]float64, n/2)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(d.buf[i*2:])))
	}
	return NewSamplesPacket(samples), nil
}

// Seek moves to a sample position. go-mp3 seeks with sample accuracy, so
// the returned position equals absgp. Seeking to the end leaves the
// decoder exhausted without touching go-mp3, which would read past the
// last frame.
func (d *MP3Decoder) Seek(absgp uint64) (uint64, error) {
	length := d.decoder.Length()
	if length < 0 {
		return 0, FullDecodeError("stream length unknown, cannot seek")
	}

	end := uint64(length / mp3BytesPerFrame)
	if absgp > end {
		return 0, FullDecodeError("seek position %d beyond end of stream (%d)", absgp, end)
	}
	if absgp == end {
		d.done = true
		return end, nil
	}

	if _, err := d.decoder.Seek(int64(absgp)*mp3BytesPerFrame, io.SeekStart); err != nil {
		return 0, fromLibrary(err)
	}
	d.done = false
	return absgp, nil
}

// Format describes the decoded stream
func (d *MP3Decoder) Format() audio.Format {
	return d.format
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return closeSource(d.src)
}
