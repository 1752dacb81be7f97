// ABOUTME: Ogg Vorbis audio decoder
// ABOUTME: Decodes Vorbis audio to float64 samples using oggvorbis
package decode

import (
	"errors"
	"io"
	"log"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	"github.com/jfreymuth/oggvorbis"
)

// samples per channel read per packet
const vorbisPacketFrames = 4096

// VorbisDecoder decodes Ogg Vorbis audio
type VorbisDecoder struct {
	src    io.ReadSeeker
	reader *oggvorbis.Reader
	buf    []float32
	format audio.Format
	done   bool
}

// NewVorbis creates a new Ogg Vorbis decoder
func NewVorbis(r io.ReadSeeker) (Decoder, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, FullDecodeError("failed to create vorbis decoder: %w", err)
	}

	log.Printf("Loaded Ogg Vorbis (sample rate: %d Hz, channels: %d)", reader.SampleRate(), reader.Channels())

	return &VorbisDecoder{
		src:    r,
		reader: reader,
		buf:    make([]float32, vorbisPacketFrames*reader.Channels()),
		format: audio.Format{
			Codec:      "vorbis",
			SampleRate: reader.SampleRate(),
			Channels:   reader.Channels(),
		},
	}, nil
}

// NextPacket decodes the next block of interleaved samples
func (d *VorbisDecoder) NextPacket() (*Packet, error) {
	if d.done {
		return nil, nil
	}

	n, err := d.reader.Read(d.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fromLibrary(err)
	}
	if n == 0 {
		d.done = true
		return nil, nil
	}

	samples := make([]float64, n)
	for i, s := range d.buf[:n] {
		samples[i] = float64(s)
	}
	return NewSamplesPacket(samples), nil
}

// Seek moves to a sample position
func (d *VorbisDecoder) Seek(absgp uint64) (uint64, error) {
	end := uint64(d.reader.Length())
	if absgp > end {
		return 0, FullDecodeError("seek position %d beyond end of stream (%d)", absgp, end)
	}
	if absgp == end {
		d.done = true
		return end, nil
	}

	if err := d.reader.SetPosition(int64(absgp)); err != nil {
		return 0, fromLibrary(err)
	}
	d.done = false
	return uint64(d.reader.Position()), nil
}

// Format describes the decoded stream
func (d *VorbisDecoder) Format() audio.Format {
	return d.format
}

// Close releases decoder resources
func (d *VorbisDecoder) Close() error {
	return closeSource(d.src)
}
