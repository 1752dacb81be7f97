// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Demuxes Ogg pages and decodes Opus packets to float64 samples
package decode

import (
	"encoding/binary"
	"errors"
	"io"
	"log"
	"sort"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/ogg"
	"gopkg.in/hraban/opus.v2"
)

const (
	// Opus always decodes at 48kHz in Ogg
	opusSampleRate = 48000

	// 120ms, the longest Opus packet
	opusMaxFrameSize = 5760

	opusHeadLen = 19
)

// OpusDecoder decodes Opus audio carried in an Ogg container.
//
// Positions are in samples per channel at 48kHz after pre-skip, so
// position 0 is the first audible sample.
type OpusDecoder struct {
	src     io.ReadSeeker
	pages   *ogg.Reader
	packets *ogg.PacketReader
	decoder *opus.Decoder
	pcm     []float32
	format  audio.Format

	preSkip    uint64
	skip       uint64 // samples still to drop after a (re)start
	pos        uint64
	dataOffset int64
	index      []pageEntry
	done       bool
}

// NewOpus creates a new Ogg Opus decoder
func NewOpus(r io.ReadSeeker) (Decoder, error) {
	pages := ogg.NewReader(r)
	packets := ogg.NewPacketReader(pages)

	head, err := packets.Next()
	if err != nil {
		return nil, FullDecodeError("read OpusHead: %w", err)
	}
	if len(head.Data) < opusHeadLen || string(head.Data[0:8]) != "OpusHead" {
		return nil, FullDecodeError("not an Ogg Opus stream")
	}
	channels := int(head.Data[9])
	preSkip := uint64(binary.LittleEndian.Uint16(head.Data[10:12]))
	if mapping := head.Data[18]; mapping > 1 || channels < 1 || channels > 2 {
		return nil, FullDecodeError("unsupported channel mapping %d with %d channels", mapping, channels)
	}

	tags, err := packets.Next()
	if err != nil {
		return nil, FullDecodeError("read OpusTags: %w", err)
	}
	if len(tags.Data) < 8 || string(tags.Data[0:8]) != "OpusTags" {
		return nil, FullDecodeError("missing OpusTags header")
	}

	decoder, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, FullDecodeError("failed to create opus decoder: %w", err)
	}

	log.Printf("Loaded Ogg Opus (channels: %d, pre-skip: %d)", channels, preSkip)

	return &OpusDecoder{
		src:     r,
		pages:   pages,
		packets: packets,
		decoder: decoder,
		pcm:     make([]float32, opusMaxFrameSize*channels),
		format: audio.Format{
			Codec:      "opus",
			SampleRate: opusSampleRate,
			Channels:   channels,
		},
		preSkip:    preSkip,
		skip:       preSkip,
		dataOffset: pages.Offset(),
	}, nil
}

// NextPacket decodes the next Opus packet that yields audible samples
func (d *OpusDecoder) NextPacket() (*Packet, error) {
	if d.done {
		return nil, nil
	}

	channels := d.format.Channels
	for {
		pkt, err := d.packets.Next()
		if errors.Is(err, io.EOF) {
			d.done = true
			return nil, nil
		}
		if err != nil {
			return nil, FullDecodeError("read ogg packet: %w", err)
		}

		n, err := d.decoder.DecodeFloat32(pkt.Data, d.pcm)
		if err != nil {
			return nil, fromLibrary(err)
		}

		start := uint64(0)
		if d.skip > 0 {
			start = min(d.skip, uint64(n))
			d.skip -= start
		}
		stop := uint64(n)
		// the final page's granule trims padding off the last packet
		if pkt.EOS && pkt.Granule != ogg.UnknownGranule && pkt.Granule >= d.preSkip {
			if end := pkt.Granule - d.preSkip; d.pos+stop-start > end {
				stop = start + (end - min(end, d.pos))
			}
		}
		if stop <= start {
			continue
		}

		samples := make([]float64, int(stop-start)*channels)
		for i, s := range d.pcm[int(start)*channels : int(stop)*channels] {
			samples[i] = float64(s)
		}
		d.pos += stop - start
		return NewSamplesPacket(samples), nil
	}
}

// Seek restarts decoding on the page boundary at or before absgp.
// The decoder state is reset, so the first packet after a seek is
// decoded without its predecessor. A failed seek leaves the read
// position unchanged.
func (d *OpusDecoder) Seek(absgp uint64) (uint64, error) {
	resume := d.pages.Offset()
	reached, err := d.seek(absgp)
	if err != nil {
		if rerr := d.pages.Seek(resume); rerr != nil {
			log.Printf("Opus: failed to restore read position %d: %v", resume, rerr)
		}
		return 0, err
	}
	return reached, nil
}

func (d *OpusDecoder) seek(absgp uint64) (uint64, error) {
	if err := d.buildIndex(); err != nil {
		return 0, err
	}

	var end uint64
	if len(d.index) > 0 {
		last := d.index[len(d.index)-1].granule
		end = last - min(last, d.preSkip)
	}
	if absgp > end {
		return 0, FullDecodeError("seek position %d beyond end of stream (%d)", absgp, end)
	}
	if absgp == end && absgp > 0 {
		d.pos = end
		d.done = true
		return end, nil
	}

	target := absgp + d.preSkip
	i := sort.Search(len(d.index), func(i int) bool {
		return d.index[i].granule >= target
	})
	var startGranule uint64
	if i > 0 {
		startGranule = d.index[i-1].granule
	}

	offset := d.dataOffset
	if i < len(d.index) {
		offset = d.index[i].offset
	}
	decoder, err := opus.NewDecoder(opusSampleRate, d.format.Channels)
	if err != nil {
		return 0, fromLibrary(err)
	}
	if err := d.pages.Seek(offset); err != nil {
		return 0, FullDecodeError("seek to page: %w", err)
	}
	d.packets.Reset()
	d.decoder = decoder

	d.skip = d.preSkip - min(d.preSkip, startGranule)
	d.pos = startGranule - min(startGranule, d.preSkip)
	d.done = false
	return d.pos, nil
}

// buildIndex records the offset and granule of every audio page
func (d *OpusDecoder) buildIndex() error {
	if d.index != nil {
		return nil
	}
	if err := d.pages.Seek(d.dataOffset); err != nil {
		return FullDecodeError("seek to audio data: %w", err)
	}

	index, err := scanPages(d.pages)
	if err != nil {
		return FullDecodeError("index pages: %w", err)
	}
	d.index = index
	return nil
}

// Format describes the decoded stream
func (d *OpusDecoder) Format() audio.Format {
	return d.format
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return closeSource(d.src)
}
