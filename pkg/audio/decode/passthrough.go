// ABOUTME: Passthrough decoder for Ogg Vorbis
// ABOUTME: Forwards Ogg pages untouched as raw packets
package decode

import (
	"encoding/binary"
	"errors"
	"io"
	"log"
	"sort"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/ogg"
)

const (
	// vorbisIdentLen is the size of a Vorbis identification header
	vorbisIdentLen = 30

	// vorbisHeaderPackets counts the identification, comment and setup headers
	vorbisHeaderPackets = 3
)

// pageEntry locates a page for seeking. Granule is never UnknownGranule:
// such pages inherit the granule of the page before them.
type pageEntry struct {
	offset  int64
	granule uint64
}

// PassthroughDecoder yields the pages of an Ogg Vorbis stream as raw
// packets so they can be forwarded without decoding
type PassthroughDecoder struct {
	src    io.ReadSeeker
	pages  *ogg.Reader
	format audio.Format

	// headers holds the pages carrying the three Vorbis headers. They are
	// sent again before the first audio page after a seek.
	headers    [][]byte
	dataOffset int64
	queued     [][]byte

	index []pageEntry
	done  bool
}

// NewPassthrough creates a passthrough decoder. The first page must carry
// a Vorbis identification header and the stream must hold all three
// header packets.
func NewPassthrough(r io.ReadSeeker) (Decoder, error) {
	pages := ogg.NewReader(r)
	first, err := pages.Next()
	if err != nil {
		return nil, PassthroughError("read first page: %w", err)
	}

	packets := first.Packets()
	if len(packets) == 0 {
		return nil, PassthroughError("first page carries no packet")
	}
	ident := packets[0]
	if len(ident) < vorbisIdentLen || ident[0] != 1 || string(ident[1:7]) != "vorbis" {
		return nil, PassthroughError("not an Ogg Vorbis stream")
	}

	format := audio.Format{
		Codec:      "vorbis",
		Channels:   int(ident[11]),
		SampleRate: int(binary.LittleEndian.Uint32(ident[12:16])),
	}

	headers := [][]byte{first.Bytes()}
	for n := terminatedPackets(first); n < vorbisHeaderPackets; {
		page, err := pages.Next()
		if errors.Is(err, io.EOF) {
			return nil, PassthroughError("incomplete Vorbis headers: %d of %d packets", n, vorbisHeaderPackets)
		}
		if err != nil {
			return nil, PassthroughError("read header page: %w", err)
		}
		headers = append(headers, page.Bytes())
		n += terminatedPackets(page)
	}
	dataOffset := pages.Offset()

	if err := pages.Seek(0); err != nil {
		return nil, PassthroughError("rewind: %w", err)
	}

	log.Printf("Loaded Ogg Vorbis passthrough (sample rate: %d Hz, channels: %d)", format.SampleRate, format.Channels)

	return &PassthroughDecoder{
		src:        r,
		pages:      pages,
		format:     format,
		headers:    headers,
		dataOffset: dataOffset,
	}, nil
}

// terminatedPackets counts the packets that end on page
func terminatedPackets(page *ogg.Page) int {
	n := 0
	for _, v := range page.Segments {
		if v < 255 {
			n++
		}
	}
	return n
}

// NextPacket returns the next page as a raw packet
func (d *PassthroughDecoder) NextPacket() (*Packet, error) {
	if d.done {
		return nil, nil
	}
	if len(d.queued) > 0 {
		data := d.queued[0]
		d.queued = d.queued[1:]
		return NewRawPacket(data), nil
	}

	page, err := d.pages.Next()
	if errors.Is(err, io.EOF) {
		d.done = true
		return nil, nil
	}
	if err != nil {
		return nil, PassthroughError("read page: %w", err)
	}

	return NewRawPacket(page.Bytes()), nil
}

// Seek resumes output at the page following the last page whose granule
// position is below absgp. The returned position is that page's starting
// granule. When output resumes past the headers, the header pages are
// sent first. A failed seek leaves the read position unchanged.
func (d *PassthroughDecoder) Seek(absgp uint64) (uint64, error) {
	resume := d.pages.Offset()
	reached, err := d.seek(absgp)
	if err != nil {
		if rerr := d.pages.Seek(resume); rerr != nil {
			log.Printf("Passthrough: failed to restore read position %d: %v", resume, rerr)
		}
		return 0, err
	}
	return reached, nil
}

func (d *PassthroughDecoder) seek(absgp uint64) (uint64, error) {
	if err := d.buildIndex(); err != nil {
		return 0, err
	}
	if len(d.index) == 0 {
		return 0, PassthroughError("seek in empty stream")
	}

	end := d.index[len(d.index)-1].granule
	if absgp > end {
		return 0, PassthroughError("seek position %d beyond end of stream (%d)", absgp, end)
	}
	if absgp == end && absgp > 0 {
		d.queued = nil
		d.done = true
		return end, nil
	}

	i := sort.Search(len(d.index), func(i int) bool {
		return d.index[i].granule >= absgp
	})
	var reached uint64
	if i > 0 {
		reached = d.index[i-1].granule
	}

	if err := d.pages.Seek(d.index[i].offset); err != nil {
		return 0, PassthroughError("seek to page: %w", err)
	}
	d.queued = nil
	if d.index[i].offset >= d.dataOffset {
		d.queued = d.headers
	}
	d.done = false

	log.Printf("Passthrough seek: requested %d, resuming at granule %d", absgp, reached)
	return reached, nil
}

// buildIndex scans the whole stream once to record page offsets
func (d *PassthroughDecoder) buildIndex() error {
	if d.index != nil {
		return nil
	}
	if err := d.pages.Seek(0); err != nil {
		return PassthroughError("rewind: %w", err)
	}

	index, err := scanPages(d.pages)
	if err != nil {
		return PassthroughError("index pages: %w", err)
	}
	d.index = index
	return nil
}

// scanPages reads pages until the end of the stream
func scanPages(pages *ogg.Reader) ([]pageEntry, error) {
	index := []pageEntry{}
	var granule uint64
	for {
		page, err := pages.Next()
		if errors.Is(err, io.EOF) {
			return index, nil
		}
		if err != nil {
			return nil, err
		}
		if page.Granule != ogg.UnknownGranule {
			granule = page.Granule
		}
		index = append(index, pageEntry{offset: page.Offset, granule: granule})
	}
}

// Format describes the forwarded stream
func (d *PassthroughDecoder) Format() audio.Format {
	return d.format
}

// Close releases the source
func (d *PassthroughDecoder) Close() error {
	return closeSource(d.src)
}
